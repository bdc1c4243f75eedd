package config

import (
	"fmt"

	"github.com/colonyops/sysmedic/internal/core/policy"
)

// Validate checks structural validity: allowlist patterns must compile,
// numeric limits must be positive, and a shell must be set. Pattern
// failures here are startup errors; the policy engine never compiles at
// runtime. Credentials are checked separately so commands that never
// call the planning service still work without a key.
func (c *Config) Validate() error {
	if _, err := policy.NewEngine(c.Allowlist); err != nil {
		return fmt.Errorf("allowlist: %w", err)
	}

	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	if c.MaxHistoryTokens <= 0 {
		return fmt.Errorf("max_history_tokens must be positive, got %d", c.MaxHistoryTokens)
	}
	if c.DefaultShell == "" {
		return fmt.Errorf("default_shell must not be empty")
	}
	return nil
}

// ValidateCredentials ensures a usable API credential exists unless the
// planner is offline.
func (c *Config) ValidateCredentials() error {
	if !c.Offline && c.APIKey == "" {
		return fmt.Errorf("missing API key: set SYSMEDIC_API_KEY or OPENAI_API_KEY, or add api_key to the config file")
	}
	return nil
}

// PolicyEngine compiles the allowlist into a policy engine.
func (c *Config) PolicyEngine() (*policy.Engine, error) {
	return policy.NewEngine(c.Allowlist)
}
