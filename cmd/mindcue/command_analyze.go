package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mindcue/internal/logging"
	"mindcue/internal/metrics"
	"mindcue/internal/present"
	"mindcue/internal/workflow"
)

type analyzeOptions struct {
	confirm bool
	timeout time.Duration
	metrics bool
}

func newAnalyzeCommand(wiring commandWiring) *cobra.Command {
	opts := analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Analyze a landing page without the UI",
		Long: "Runs the guided workflow headless with real timers and prints each stage as markdown.\n" +
			"With --yes the analysis is saved as a project and scripts are written.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), wiring, args[0], opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.confirm, "yes", "y", false, "confirm the analysis and create scripts")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "give up after this long")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print workflow metrics to stderr when done")
	return cmd
}

func runAnalyze(ctx context.Context, wiring commandWiring, rawURL string, opts analyzeOptions) error {
	rawURL = strings.TrimSpace(rawURL)
	if !workflow.IsURL(rawURL) {
		return fmt.Errorf("not a landing page URL: %q", rawURL)
	}
	env, err := loadEnv(wiring)
	if err != nil {
		return err
	}
	defer env.Close()

	owner := ""
	if ident, err := wiring.newIdentity(env.cfg); err == nil {
		if user, err := ident.Current(ctx); err == nil {
			owner = user.Email
			if owner == "" {
				owner = user.ID
			}
		}
	}

	recorder := metrics.NewRecorder()
	loop := workflow.NewLoop(
		workflow.WithProjectStore(env.store),
		workflow.WithLogger(env.logger),
		workflow.WithMetrics(recorder),
		workflow.WithDelays(env.cfg.WorkflowDelays()),
		workflow.WithOwner(owner),
	)
	defer loop.Close()

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	run := analyzeRun{loop: loop, out: wiring.stdout}
	err = run.execute(ctx, rawURL, opts.confirm)
	if opts.metrics {
		if _, werr := recorder.WriteText(wiring.stderr); werr != nil {
			env.logger.Warn("metrics write failed", logging.F("error", werr))
		}
	}
	return err
}

type analyzeRun struct {
	loop *workflow.Loop
	out  io.Writer
}

func (r analyzeRun) execute(ctx context.Context, rawURL string, confirm bool) error {
	if err := r.loop.Do(ctx, func(ctx context.Context, c *workflow.Controller) error {
		return c.SubmitInput(ctx, rawURL)
	}); err != nil {
		return err
	}
	state, err := r.waitFor(ctx, workflow.PhaseResults)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, present.Analysis(state.Draft))
	if !confirm {
		fmt.Fprintln(r.out, "_Re-run with --yes to save this analysis and write scripts._")
		return nil
	}

	var projectID string
	if err := r.loop.Do(ctx, func(ctx context.Context, c *workflow.Controller) error {
		project, err := c.ConfirmAnalysis(ctx)
		if err == nil {
			projectID = project.ID
		}
		return err
	}); err != nil {
		return err
	}
	if _, err := r.waitFor(ctx, workflow.PhaseStrategyResults); err != nil {
		return err
	}
	fmt.Fprintln(r.out, present.Strategy(workflow.Strategy()))

	if err := r.loop.Do(ctx, func(ctx context.Context, c *workflow.Controller) error {
		return c.CreateScripts(ctx)
	}); err != nil {
		return err
	}
	state, err = r.waitFor(ctx, workflow.PhaseScriptResults)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, present.Scripts(state.Scripts))
	fmt.Fprintf(r.out, "Project: `%s`\n", projectID)
	if state.Failure != nil {
		return errors.New(state.Failure.Message)
	}
	return nil
}

func (r analyzeRun) waitFor(ctx context.Context, phase workflow.Phase) (workflow.State, error) {
	if err := r.loop.WaitForPhase(ctx, phase); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return workflow.State{}, fmt.Errorf("timed out waiting for %s", phase)
		}
		return workflow.State{}, err
	}
	return r.loop.Snapshot(ctx)
}
