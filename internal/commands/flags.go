package commands

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/colonyops/revdeck/internal/core/config"
	"github.com/colonyops/revdeck/internal/data/db"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// DB is the local database for resume state and draft text. Nil when
	// the data directory could not be opened; commands degrade to
	// session-only behavior.
	DB *db.DB
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "revdeck", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "revdeck")
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/revdeck/revdeck.log
// On Linux: $XDG_STATE_HOME/revdeck/revdeck.log (defaults to ~/.local/state/revdeck/revdeck.log)
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "revdeck", "revdeck.log")
	}

	home, _ := os.UserHomeDir()

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "revdeck", "revdeck.log")
	}

	return filepath.Join(home, ".local", "state", "revdeck", "revdeck.log")
}
