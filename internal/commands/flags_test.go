package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigPathUsesXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")

	assert.Equal(t, filepath.Join("/tmp/xdg-config", "sysmedic", "config.yaml"), DefaultConfigPath())
}

func TestDefaultSessionDirUsesXDGDataHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	assert.Equal(t, filepath.Join("/tmp/xdg-data", "sysmedic", "sessions"), DefaultSessionDir())
}

func TestDefaultLogFileUsesXDGStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")

	assert.Equal(t, filepath.Join("/tmp/xdg-state", "sysmedic", "sysmedic.log"), DefaultLogFile())
}
