package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SYSMEDIC_API_KEY", "sk-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultShell, cfg.DefaultShell)
	assert.Equal(t, DefaultHistoryLimit, cfg.HistoryLimit)
	assert.Equal(t, "sk-test", cfg.APIKey)
}

func TestLoadFileValues(t *testing.T) {
	t.Setenv("SYSMEDIC_API_KEY", "")
	path := writeConfig(t, `
api_key: sk-from-file
model: gpt-4o-mini
default_shell: /bin/sh
history_limit: 10
offline: false
allowlist:
  command_patterns:
    - "^uptime$"
  file_patterns:
    - "/etc/**"
  max_edit_size_kb: 32
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-from-file", cfg.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "/bin/sh", cfg.DefaultShell)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, []string{"^uptime$"}, cfg.Allowlist.CommandPatterns)
	assert.Equal(t, 32, cfg.Allowlist.MaxEditSizeKB)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SYSMEDIC_API_KEY", "sk-env")
	t.Setenv("SYSMEDIC_DRYRUN", "true")
	path := writeConfig(t, "api_key: sk-from-file\ndry_run: false\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.True(t, cfg.DryRun)
}

func TestOpenAIKeyFallback(t *testing.T) {
	t.Setenv("SYSMEDIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", cfg.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults with key are valid",
			mutate: func(c *Config) { c.APIKey = "sk" },
		},
		{
			name:    "bad allowlist pattern",
			mutate:  func(c *Config) { c.APIKey = "sk"; c.Allowlist.CommandPatterns = []string{"^(bad"} },
			wantErr: "allowlist",
		},
		{
			name:    "zero history limit",
			mutate:  func(c *Config) { c.APIKey = "sk"; c.HistoryLimit = 0 },
			wantErr: "history_limit",
		},
		{
			name:    "empty shell",
			mutate:  func(c *Config) { c.APIKey = "sk"; c.DefaultShell = "" },
			wantErr: "default_shell",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ValidateCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing API key")

	cfg.Offline = true
	assert.NoError(t, cfg.ValidateCredentials())

	cfg.Offline = false
	cfg.APIKey = "sk"
	assert.NoError(t, cfg.ValidateCredentials())
}

func TestLoadToleratesInvalidPatterns(t *testing.T) {
	// Load must hand back a broken config so `config validate` can
	// report on it; Validate is where the pattern failure surfaces.
	t.Setenv("SYSMEDIC_API_KEY", "sk")
	path := writeConfig(t, "allowlist:\n  command_patterns:\n    - \"^(unclosed\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"^(unclosed"}, cfg.Allowlist.CommandPatterns)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid command pattern")
}
