package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mindcue/internal/app"
	"mindcue/internal/config"
	"mindcue/internal/logging"
	"mindcue/internal/metrics"
)

func newUICommand(wiring commandWiring) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Run the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd.Context(), wiring)
		},
	}
}

// runUI runs the TUI next to a config watcher. The TUI owns the terminal, so
// logs go to the configured log file.
func runUI(ctx context.Context, wiring commandWiring) error {
	cfg, err := wiring.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logPath, err := cfg.LogFile()
	if err != nil {
		return err
	}
	logger, closer, err := logging.NewFile(logPath, logging.ParseLevel(cfg.LogLevel()))
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closer.Close()

	env, err := openEnv(wiring, cfg, logger)
	if err != nil {
		return err
	}
	defer env.Close()

	ident, err := wiring.newIdentity(cfg)
	if err != nil {
		return err
	}
	cfgPath, err := wiring.configPath()
	if err != nil {
		return err
	}

	var recorder *metrics.Recorder
	opts := app.Options{
		Projects: env.store,
		Identity: ident,
		Logger:   logger,
		Delays:   cfg.WorkflowDelays(),
		Dark:     lipgloss.HasDarkBackground(),
	}
	if cfg.MetricsEnabled() {
		recorder = metrics.NewRecorder()
		opts.Metrics = recorder
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	started := make(chan *tea.Program, 1)
	g.Go(func() error {
		defer cancel()
		return wiring.runUI(gctx, opts, func(p *tea.Program) { started <- p })
	})
	g.Go(func() error {
		var program *tea.Program
		select {
		case program = <-started:
		case <-gctx.Done():
			return nil
		}
		watcher := config.NewWatcher(cfgPath, func(next config.Config) {
			program.Send(app.ConfigReloadedMsg{Delays: next.WorkflowDelays()})
		}, config.WithWatchLogger(logger))
		return watcher.Run(gctx)
	})
	err = g.Wait()
	logSummary(logger, recorder)
	return err
}

func logSummary(logger logging.Logger, recorder *metrics.Recorder) {
	if recorder == nil {
		return
	}
	summary, err := recorder.Summary()
	if err != nil {
		logger.Warn("metrics summary failed", logging.F("error", err))
		return
	}
	logger.Info("session metrics", logging.F("summary", summary.String()))
}
