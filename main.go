package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/sysmedic/internal/commands"
	"github.com/colonyops/sysmedic/internal/core/config"
	"github.com/colonyops/sysmedic/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "sysmedic",
		Usage:     "LLM-assisted server troubleshooting with an allowlisted worklist",
		UsageText: "sysmedic [global options] command [command options]",
		Description: `Sysmedic turns a plain-language problem description into a reviewed worklist
of shell commands, file edits, and notes. Steps matching the allowlist run
automatically in order; anything else waits for your explicit approval.

Run 'sysmedic run' to start an interactive session.
Run 'sysmedic plan "<problem>"' to preview a worklist without executing it.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("SYSMEDIC_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file",
				Sources:     cli.EnvVars("SYSMEDIC_LOG_FILE"),
				Value:       commands.DefaultLogFile(),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("SYSMEDIC_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "session-dir",
				Usage:       "directory for session artifacts",
				Sources:     cli.EnvVars("SYSMEDIC_SESSION_DIR"),
				Value:       commands.DefaultSessionDir(),
				Destination: &flags.SessionDir,
			},
			&cli.StringFlag{
				Name:        "model",
				Usage:       "override the planning model",
				Sources:     cli.EnvVars("SYSMEDIC_MODEL"),
				Destination: &flags.Model,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "print what would run without touching the system",
				Sources:     cli.EnvVars("SYSMEDIC_DRYRUN"),
				Destination: &flags.DryRun,
			},
			&cli.BoolFlag{
				Name:        "offline",
				Usage:       "use the canned local planner instead of the API",
				Sources:     cli.EnvVars("SYSMEDIC_OFFLINE"),
				Destination: &flags.Offline,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			// CLI flags win over file and environment values. The
			// session-dir flag carries a default, so only an explicit
			// flag beats a configured value.
			if c.IsSet("session-dir") || cfg.SessionDir == "" {
				cfg.SessionDir = flags.SessionDir
			}
			if flags.Model != "" {
				cfg.Model = flags.Model
			}
			if flags.DryRun {
				cfg.DryRun = true
			}
			if flags.Offline {
				cfg.Offline = true
			}

			// Validation happens per command so `config validate` can
			// still report problems in a broken config.
			flags.Config = &cfg
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewRunCmd(flags).Register(app)
	app = commands.NewPlanCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
