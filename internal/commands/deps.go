package commands

import (
	"github.com/colonyops/sysmedic/internal/core/config"
	"github.com/colonyops/sysmedic/internal/planner"
	"github.com/colonyops/sysmedic/pkg/executil"
)

// buildPlanner selects the planning client for the effective config.
func buildPlanner(cfg *config.Config) planner.Planner {
	if cfg.Offline {
		return &planner.Offline{DefaultShell: cfg.DefaultShell}
	}

	return planner.NewClient(planner.Options{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		Model:            cfg.Model,
		DefaultShell:     cfg.DefaultShell,
		MaxHistoryTokens: cfg.MaxHistoryTokens,
	})
}

// buildRunner selects the execution collaborator.
func buildRunner(cfg *config.Config) executil.Runner {
	if cfg.DryRun {
		return executil.Dry{}
	}
	return executil.Shell{}
}
