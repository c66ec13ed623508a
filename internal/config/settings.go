package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"mindcue/internal/workflow"
)

const (
	StorageBackendBbolt  = "bbolt"
	StorageBackendSQLite = "sqlite"
	StorageBackendMemory = "memory"
)

const defaultLogLevel = "info"

type Config struct {
	Workflow WorkflowConfig `toml:"workflow"`
	Storage  StorageConfig  `toml:"storage"`
	Logging  LoggingConfig  `toml:"logging"`
	Identity IdentityConfig `toml:"identity"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// WorkflowConfig holds transition delays as Go duration strings ("4s",
// "1500ms").
type WorkflowConfig struct {
	AnalysisDelay string `toml:"analysis_delay"`
	StrategyDelay string `toml:"strategy_delay"`
	ScriptDelay   string `toml:"script_delay"`
	ReplyDelay    string `toml:"reply_delay"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type IdentityConfig struct {
	DisplayName string `toml:"display_name"`
	Email       string `toml:"email"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

func DefaultConfig() Config {
	defaults := workflow.DefaultDelays()
	return Config{
		Workflow: WorkflowConfig{
			AnalysisDelay: defaults.Analysis.String(),
			StrategyDelay: defaults.Strategy.String(),
			ScriptDelay:   defaults.Script.String(),
			ReplyDelay:    defaults.Reply.String(),
		},
		Storage: StorageConfig{
			Backend: StorageBackendBbolt,
		},
		Logging: LoggingConfig{
			Level: defaultLogLevel,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads path over DefaultConfig. A missing or empty file yields
// the defaults.
func LoadFromPath(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WorkflowDelays parses the configured delays. Blank, malformed or negative
// values fall back to the defaults.
func (c Config) WorkflowDelays() workflow.Delays {
	defaults := workflow.DefaultDelays()
	return workflow.Delays{
		Analysis: parseDelay(c.Workflow.AnalysisDelay, defaults.Analysis),
		Strategy: parseDelay(c.Workflow.StrategyDelay, defaults.Strategy),
		Script:   parseDelay(c.Workflow.ScriptDelay, defaults.Script),
		Reply:    parseDelay(c.Workflow.ReplyDelay, defaults.Reply),
	}
}

func parseDelay(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func (c Config) StorageBackend() string {
	switch strings.ToLower(strings.TrimSpace(c.Storage.Backend)) {
	case StorageBackendSQLite:
		return StorageBackendSQLite
	case StorageBackendMemory:
		return StorageBackendMemory
	default:
		return StorageBackendBbolt
	}
}

func (c Config) StoragePath() (string, error) {
	path := strings.TrimSpace(c.Storage.Path)
	if path == "" {
		return DefaultDBPath(c.StorageBackend())
	}
	return resolveConfigPath(path)
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return defaultLogLevel
	}
	return strings.ToLower(level)
}

func (c Config) LogFile() (string, error) {
	path := strings.TrimSpace(c.Logging.File)
	if path == "" {
		return LogPath()
	}
	return resolveConfigPath(path)
}

func (c Config) IdentityDisplayName() string {
	return strings.TrimSpace(c.Identity.DisplayName)
}

func (c Config) IdentityEmail() string {
	return strings.TrimSpace(c.Identity.Email)
}

func (c Config) MetricsEnabled() bool {
	return c.Metrics.Enabled
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func resolveConfigPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}
