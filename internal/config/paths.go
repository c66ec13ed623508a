package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName = ".mindcue"
	homeEnvVar = "MINDCUE_HOME"
)

// DataDir returns the base data directory. MINDCUE_HOME overrides the
// default of ~/.mindcue.
func DataDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(homeEnvVar)); dir != "" {
		return filepath.Clean(dir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// ConfigPath returns the path to config.toml.
func ConfigPath() (string, error) {
	return dataPath("config.toml")
}

// LogPath returns the default log file used while the TUI owns the terminal.
func LogPath() (string, error) {
	return dataPath("mindcue.log")
}

// SessionPath returns the path to the local sign-in marker.
func SessionPath() (string, error) {
	return dataPath("session.json")
}

// DefaultDBPath returns the default database file for a storage backend.
func DefaultDBPath(backend string) (string, error) {
	if backend == StorageBackendSQLite {
		return dataPath("projects.sqlite")
	}
	return dataPath("projects.db")
}

func dataPath(name string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}
