package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"mindcue/internal/app"
	"mindcue/internal/config"
	"mindcue/internal/identity"
	"mindcue/internal/logging"
	"mindcue/internal/store"
)

const version = "dev"

// commandWiring holds everything commands reach outside the process for, so
// tests can swap in memory stores and temp paths.
type commandWiring struct {
	stdout      io.Writer
	stderr      io.Writer
	loadConfig  func() (config.Config, error)
	configPath  func() (string, error)
	openStore   func(cfg config.Config) (store.ProjectStore, error)
	newIdentity func(cfg config.Config) (*identity.Local, error)
	runUI       func(ctx context.Context, opts app.Options, onStart func(*tea.Program)) error
	version     string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:      stdout,
		stderr:      stderr,
		loadConfig:  config.Load,
		configPath:  config.ConfigPath,
		openStore:   openConfiguredStore,
		newIdentity: newLocalIdentity,
		runUI:       app.Run,
		version:     buildVersion(),
	}
}

func newRootCommand(wiring commandWiring) *cobra.Command {
	root := &cobra.Command{
		Use:           "mindcue",
		Short:         "Guided video strategy and script workflow",
		Long:          "mindcue turns a product landing page into an editable analysis, a video strategy and ready-to-shoot scripts.",
		Version:       wiring.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd.Context(), wiring)
		},
	}
	root.SetOut(wiring.stdout)
	root.SetErr(wiring.stderr)
	root.AddCommand(
		newUICommand(wiring),
		newAnalyzeCommand(wiring),
		newProjectsCommand(wiring),
		newConfigCommand(wiring),
		newLogoutCommand(wiring),
	)
	return root
}

func openConfiguredStore(cfg config.Config) (store.ProjectStore, error) {
	path := ""
	if cfg.StorageBackend() != config.StorageBackendMemory {
		var err error
		if path, err = cfg.StoragePath(); err != nil {
			return nil, err
		}
	}
	return store.Open(cfg.StorageBackend(), path)
}

func newLocalIdentity(cfg config.Config) (*identity.Local, error) {
	path, err := config.SessionPath()
	if err != nil {
		return nil, err
	}
	return identity.NewLocal(path,
		identity.WithDisplayName(cfg.IdentityDisplayName()),
		identity.WithEmail(cfg.IdentityEmail()),
	), nil
}

// cliEnv is the per-invocation state shared by commands that touch projects.
type cliEnv struct {
	cfg    config.Config
	store  store.ProjectStore
	logger logging.Logger
}

// loadEnv loads config and opens the store, logging to stderr.
func loadEnv(wiring commandWiring) (*cliEnv, error) {
	cfg, err := wiring.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return openEnv(wiring, cfg, logging.New(wiring.stderr, logging.ParseLevel(cfg.LogLevel())))
}

func openEnv(wiring commandWiring, cfg config.Config, logger logging.Logger) (*cliEnv, error) {
	st, err := wiring.openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StorageBackend(), err)
	}
	logger.Debug("store opened", logging.F("backend", st.Backend()))
	return &cliEnv{cfg: cfg, store: st, logger: logger}, nil
}

func (r *cliEnv) Close() {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.logger.Warn("store close failed", logging.F("error", err))
	}
	_ = r.logger.Sync()
}

func exitOnErr(label string, err error, stderr io.Writer) {
	if err == nil {
		return
	}
	fmt.Fprintf(stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	return versionFromBuildInfo(info)
}

// versionFromBuildInfo prefers a tagged module version, then the VCS revision.
func versionFromBuildInfo(info *debug.BuildInfo) string {
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	var revision, modified string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		}
	}
	if revision == "" {
		return version
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if modified == "true" {
		return revision + "-dirty"
	}
	return revision
}
