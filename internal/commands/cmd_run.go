package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/sysmedic/internal/core/convo"
	"github.com/colonyops/sysmedic/internal/core/logging"
	"github.com/colonyops/sysmedic/internal/core/session"
	"github.com/colonyops/sysmedic/internal/medic"
	"github.com/colonyops/sysmedic/internal/printer"
)

// tickInterval is how often the control loop polls for a finished plan
// request while one is outstanding.
const tickInterval = 200 * time.Millisecond

type RunCmd struct {
	flags *Flags
}

// NewRunCmd creates the interactive session command.
func NewRunCmd(flags *Flags) *RunCmd {
	return &RunCmd{flags: flags}
}

// Register adds the run command to the application.
func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Start an interactive troubleshooting session",
		UsageText: "sysmedic run [options] [initial prompt]",
		Description: `Starts an interactive session: describe the problem, review the proposed
worklist, and approve or reject any step the allowlist blocked. Commands run
strictly in order; results feed back into the next request.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *RunCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	store, err := session.New(cfg.SessionDir)
	if err != nil {
		// Losing the session directory means no artifacts at all; treat
		// as fatal rather than running without a record.
		return fmt.Errorf("create session directory: %w", err)
	}

	// Every log event emitted on this context carries the session ID.
	ctx = logging.WithSessionID(ctx, store.ID())

	log, err := convo.OpenLog(store.ConvoPath())
	if err != nil {
		return fmt.Errorf("open conversation log: %w", err)
	}
	defer log.Close()

	out := printer.New(c.Root().Writer, cfg.HistoryLimit)

	engine, err := cfg.PolicyEngine()
	if err != nil {
		return fmt.Errorf("compile allowlist: %w", err)
	}

	svc, err := medic.NewService(medic.Deps{
		Policy:   engine,
		Planner:  buildPlanner(cfg),
		Runner:   buildRunner(cfg),
		Store:    store,
		Log:      log,
		Notifier: out,
	})
	if err != nil {
		return err
	}

	if cfg.DryRun {
		out.Info("dry-run: commands and file edits will not touch the system")
	}
	if cfg.Offline {
		out.Info("offline: using the canned local planner")
	}

	in := bufio.NewReader(os.Stdin)
	loop := &sessionLoop{svc: svc, out: out, in: in}

	if prompt := strings.TrimSpace(strings.Join(c.Args().Slice(), " ")); prompt != "" {
		if err := loop.submit(ctx, prompt); err != nil {
			return err
		}
	}

	return loop.repl(ctx)
}

// sessionLoop is the foreground control loop: it alternates between
// reading operator input and polling the outstanding plan request.
type sessionLoop struct {
	svc *medic.Service
	out *printer.Printer
	in  *bufio.Reader
}

func (l *sessionLoop) repl(ctx context.Context) error {
	for {
		// Resolve any pending approval before taking new prompts.
		if t, ok := l.svc.PendingApproval(); ok {
			approved, err := l.askApproval()
			if err != nil {
				return err
			}
			if approved {
				if err := l.svc.Approve(ctx); err != nil {
					l.out.Errorf("%v", err)
				}
			} else {
				l.out.Info("rejected: " + t.Description)
				if err := l.svc.Reject(ctx); err != nil {
					l.out.Errorf("%v", err)
				}
			}
			continue
		}

		l.out.Printf("")
		fmt.Fprint(os.Stdout, "sysmedic> ")
		line, err := l.in.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		prompt := strings.TrimSpace(line)
		switch prompt {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if err := l.submit(ctx, prompt); err != nil {
			return err
		}
	}
}

// submit dispatches a prompt and ticks until the result is consumed.
// Install and execution happen inside the tick, so when this returns
// the worklist has either drained or halted on an approval.
func (l *sessionLoop) submit(ctx context.Context, prompt string) error {
	if err := l.svc.SubmitPrompt(ctx, prompt); err != nil {
		l.out.Errorf("%v", err)
		return nil
	}

	l.out.Info("thinking...")
	for {
		if l.svc.Tick(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(tickInterval):
		}
	}
}

func (l *sessionLoop) askApproval() (bool, error) {
	line, err := l.in.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
