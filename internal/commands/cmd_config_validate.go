package commands

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/sysmedic/internal/printer"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "sysmedic config validate [options]",
				Description: "Validates the configuration file, checking allowlist patterns, limits, and credentials.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validationIssue struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	issues := cmd.check()

	if cmd.format == "json" {
		out := struct {
			Valid  bool              `json:"valid"`
			Errors []validationIssue `json:"errors,omitempty"`
		}{
			Valid:  len(issues) == 0,
			Errors: issues,
		}
		enc := json.NewEncoder(c.Root().Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	p := printer.New(c.Root().Writer, 0)
	for _, issue := range issues {
		p.Errorf("%s: %s", issue.Category, issue.Message)
		if issue.Item != "" {
			p.Printf("  Item: %s", issue.Item)
		}
	}

	if len(issues) == 0 {
		p.Successf("Configuration is valid")
		return nil
	}

	p.Errorf("%d error(s) found", len(issues))
	return cli.Exit("", 1)
}

// check reports every problem instead of stopping at the first, so the
// operator can fix a config file in one pass.
func (cmd *ConfigValidateCmd) check() []validationIssue {
	cfg := cmd.flags.Config
	var issues []validationIssue

	for _, pat := range cfg.Allowlist.CommandPatterns {
		if _, err := regexp.Compile(pat); err != nil {
			issues = append(issues, validationIssue{
				Category: "allowlist.commands",
				Item:     pat,
				Message:  err.Error(),
			})
		}
	}
	for _, pat := range cfg.Allowlist.FilePatterns {
		if !doublestar.ValidatePattern(pat) {
			issues = append(issues, validationIssue{
				Category: "allowlist.files",
				Item:     pat,
				Message:  "invalid glob pattern",
			})
		}
	}

	if cfg.HistoryLimit <= 0 {
		issues = append(issues, validationIssue{Category: "limits", Message: "history_limit must be positive"})
	}
	if cfg.MaxHistoryTokens <= 0 {
		issues = append(issues, validationIssue{Category: "limits", Message: "max_history_tokens must be positive"})
	}
	if cfg.DefaultShell == "" {
		issues = append(issues, validationIssue{Category: "shell", Message: "default_shell must not be empty"})
	}
	if !cfg.Offline && cfg.APIKey == "" {
		issues = append(issues, validationIssue{
			Category: "credentials",
			Message:  "missing API key: set SYSMEDIC_API_KEY or OPENAI_API_KEY, or add api_key to the config file",
		})
	}

	return issues
}
