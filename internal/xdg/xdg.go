// Package xdg provides XDG Base Directory Specification compliant paths
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "stackmon"

// ConfigDir returns the XDG config directory for stackmon
// Priority: XDG_CONFIG_HOME > ~/.config/stackmon
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for stackmon
// Priority: XDG_DATA_HOME > ~/.local/share/stackmon
func DataDir() (string, error) {
	return resolve("XDG_DATA_HOME", ".local", "share")
}

// StateDir returns the XDG state directory for stackmon
// Priority: XDG_STATE_HOME > ~/.local/state/stackmon
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", ".local", "state")
}

// LogsDir returns the directory that receives managed service output.
// Falls back to the data directory when no state directory can be resolved.
func LogsDir() string {
	stateDir, err := StateDir()
	if err != nil {
		dataDir, _ := DataDir()
		return filepath.Join(dataDir, "logs")
	}
	return filepath.Join(stateDir, "logs")
}

func resolve(envVar string, fallback ...string) (string, error) {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{homeDir}, fallback...)
	return filepath.Join(append(parts, appName)...), nil
}
