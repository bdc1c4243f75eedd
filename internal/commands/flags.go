package commands

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/colonyops/sysmedic/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	SessionDir string
	Model      string
	DryRun     bool
	Offline    bool

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "sysmedic", "config.yaml")
}

// DefaultSessionDir returns the default session directory using XDG_DATA_HOME.
func DefaultSessionDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "sysmedic", "sessions")
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/sysmedic/sysmedic.log
// On Linux: $XDG_STATE_HOME/sysmedic/sysmedic.log (defaults to ~/.local/state/sysmedic/sysmedic.log)
func DefaultLogFile() string {
	// Check XDG_STATE_HOME first (works on both macOS and Linux)
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "sysmedic", "sysmedic.log")
	}

	home, _ := os.UserHomeDir()

	// On macOS, use ~/Library/Logs
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "sysmedic", "sysmedic.log")
	}

	// On Linux, use ~/.local/state
	return filepath.Join(home, ".local", "state", "sysmedic", "sysmedic.log")
}
