package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/sysmedic/internal/core/convo"
	"github.com/colonyops/sysmedic/internal/core/task"
	"github.com/colonyops/sysmedic/internal/printer"
)

type PlanCmd struct {
	flags *Flags
}

// NewPlanCmd creates the one-shot plan preview command.
func NewPlanCmd(flags *Flags) *PlanCmd {
	return &PlanCmd{flags: flags}
}

// Register adds the plan command to the application.
func (cmd *PlanCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "plan",
		Usage:     "Fetch and preview a worklist without executing anything",
		UsageText: "sysmedic plan <prompt>",
		Description: `Requests a worklist for the prompt and prints each step with its allowlist
verdict. Nothing is executed and no session artifacts are written.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *PlanCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	prompt := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if prompt == "" {
		return fmt.Errorf("plan requires a prompt, e.g.: sysmedic plan \"nginx will not start\"")
	}

	engine, err := cfg.PolicyEngine()
	if err != nil {
		return fmt.Errorf("compile allowlist: %w", err)
	}

	p, _, err := buildPlanner(cfg).Plan(ctx, prompt, []convo.Entry{})
	if err != nil {
		return err
	}

	for i := range p.Tasks {
		if p.Tasks[i].Detail.Kind() == task.KindNote {
			p.Tasks[i].Status = task.Complete()
			continue
		}
		if denial := engine.Evaluate(p.Tasks[i]); denial != nil {
			p.Tasks[i].Status = task.Blocked(denial.Error())
		} else {
			p.Tasks[i].Status = task.Ready()
		}
	}

	out := printer.New(c.Root().Writer, cfg.HistoryLimit)
	out.PlanInstalled(p.Summary, p.Tasks)
	out.Printf("")
	out.Info("preview only; use 'sysmedic run' to execute")
	return nil
}
