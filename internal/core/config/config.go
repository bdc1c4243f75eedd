// Package config handles configuration loading and validation for sysmedic.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/sysmedic/internal/core/policy"
)

// Built-in defaults. The planning service speaks the OpenAI
// chat-completions protocol; BaseURL may point anywhere compatible.
const (
	DefaultModel            = "gpt-4o"
	DefaultShell            = "/bin/bash"
	DefaultHistoryLimit     = 50
	DefaultMaxHistoryTokens = 32_000
)

// Config holds the application configuration.
type Config struct {
	APIKey           string        `yaml:"api_key"`
	BaseURL          string        `yaml:"base_url"`
	Model            string        `yaml:"model"`
	DefaultShell     string        `yaml:"default_shell"`
	Allowlist        policy.Config `yaml:"allowlist"`
	HistoryLimit     int           `yaml:"history_limit"`
	MaxHistoryTokens int           `yaml:"max_history_tokens"`
	Offline          bool          `yaml:"offline"`
	DryRun           bool          `yaml:"dry_run"`
	SessionDir       string        `yaml:"session_dir"`
}

// DefaultConfig returns a Config with sensible defaults. The allowlist
// zero value already falls back to the built-in pattern sets.
func DefaultConfig() Config {
	return Config{
		Model:            DefaultModel,
		DefaultShell:     DefaultShell,
		HistoryLimit:     DefaultHistoryLimit,
		MaxHistoryTokens: DefaultMaxHistoryTokens,
	}
}

// Load reads the config file at path and layers environment overrides
// on top. A missing file is not an error: the defaults plus environment
// are enough to run. Load does not validate — commands that act on the
// config call Validate themselves, so `config validate` can still
// inspect a broken file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overrides
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv layers environment variables over file-sourced values.
// SYSMEDIC_API_KEY wins over OPENAI_API_KEY, which wins over the file.
func (c *Config) applyEnv() {
	if v := envValue("SYSMEDIC_API_KEY"); v != "" {
		c.APIKey = v
	} else if c.APIKey == "" {
		c.APIKey = envValue("OPENAI_API_KEY")
	}

	if v := envValue("SYSMEDIC_SESSION_DIR"); v != "" {
		c.SessionDir = v
	}

	if v, ok := envBool("SYSMEDIC_DRYRUN"); ok {
		c.DryRun = v
	}
	if v, ok := envBool("SYSMEDIC_OFFLINE"); ok {
		c.Offline = v
	}
}

func envValue(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func envBool(name string) (bool, bool) {
	switch strings.ToLower(envValue(name)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}
