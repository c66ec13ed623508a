package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mindcue/internal/logging"
	"mindcue/internal/types"
)

// ProjectStore is the persistence collaborator the controller needs.
type ProjectStore interface {
	CreateProject(ctx context.Context, req types.NewProject) (*types.Project, error)
	GetProject(ctx context.Context, id string) (*types.Project, bool, error)
	ListProjectHistory(ctx context.Context) ([]types.ProjectSummary, error)
	AddScripts(ctx context.Context, id string, scripts []types.Script) (*types.Project, error)
}

// Controller drives the guided workflow. It owns its State exclusively and is
// not safe for concurrent use: callers serialize access on one loop.
type Controller struct {
	state     State
	env       Env
	scheduler Scheduler
	projects  ProjectStore
	writer    ScriptWriter
	owner     string
	logger    logging.Logger
	metrics   Metrics
}

type Option func(*Controller)

func WithScheduler(scheduler Scheduler) Option {
	return func(c *Controller) {
		if scheduler != nil {
			c.scheduler = scheduler
		}
	}
}

func WithProjectStore(store ProjectStore) Option {
	return func(c *Controller) {
		if store != nil {
			c.projects = store
		}
	}
}

func WithScriptWriter(writer ScriptWriter) Option {
	return func(c *Controller) {
		if writer != nil {
			c.writer = writer
		}
	}
}

func WithLogger(logger logging.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(c *Controller) {
		if metrics != nil {
			c.metrics = metrics
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.env.Now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) {
		if newID != nil {
			c.env.NewID = newID
		}
	}
}

func WithDelays(delays Delays) Option {
	return func(c *Controller) {
		c.env.Delays = delays.Normalize()
	}
}

func WithOwner(owner string) Option {
	return func(c *Controller) {
		c.owner = strings.TrimSpace(owner)
	}
}

func NewController(opts ...Option) *Controller {
	c := &Controller{
		env:       DefaultEnv(),
		scheduler: noopScheduler{},
		logger:    logging.Nop(),
		metrics:   nopMetrics{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.env = c.env.normalize()
	if c.writer == nil {
		c.writer = CannedScriptWriter{Now: c.env.Now, NewID: c.env.NewID, Owner: c.owner}
	}
	c.state = NewState(c.env)
	return c
}

// State returns a deep copy of the current state.
func (c *Controller) State() State {
	return c.state.Clone()
}

func (c *Controller) Phase() Phase {
	return c.state.Phase
}

func (c *Controller) Delays() Delays {
	return c.env.Delays
}

// SetDelays changes the delays used by transitions requested from now on.
func (c *Controller) SetDelays(delays Delays) {
	c.env.Delays = delays.Normalize()
}

func (c *Controller) SubmitInput(ctx context.Context, text string) error {
	return c.apply(ctx, InputSubmitted{Text: text})
}

// ConfirmAnalysis materializes a project from a copy of the draft and starts
// strategy processing. A persistence failure leaves the phase at results and
// is returned wrapped in ErrMaterialize so the caller can offer a retry.
func (c *Controller) ConfirmAnalysis(ctx context.Context) (*types.Project, error) {
	if err := CheckConfirm(c.state); err != nil {
		c.observeRejection("confirm_analysis", err)
		return nil, err
	}
	if c.projects == nil {
		return nil, c.failMaterialize(ctx, ErrStoreUnavailable)
	}
	draft := c.state.Draft.Clone()
	project, err := c.projects.CreateProject(ctx, types.NewProject{
		Name:     draft.ProjectName(),
		Owner:    c.owner,
		Analysis: *draft,
	})
	if err != nil {
		return nil, c.failMaterialize(ctx, err)
	}
	c.metrics.ObserveMaterialization(true)
	if err := c.apply(ctx, AnalysisConfirmed{Project: project}); err != nil {
		return nil, err
	}
	c.logger.Info("project materialized",
		logging.F("project_id", project.ID),
		logging.F("project_name", project.Name),
	)
	return project.Clone(), nil
}

func (c *Controller) failMaterialize(ctx context.Context, cause error) error {
	c.metrics.ObserveMaterialization(false)
	c.logger.Warn("project materialization failed", logging.F("error", cause))
	err := fmt.Errorf("%w: %w", ErrMaterialize, cause)
	if applyErr := c.apply(ctx, MaterializeFailed{Err: err}); applyErr != nil {
		return errors.Join(err, applyErr)
	}
	return err
}

func (c *Controller) EditAnalysis() error {
	return c.apply(context.Background(), EditStarted{})
}

func (c *Controller) SetField(field Field, value string) error {
	return c.apply(context.Background(), FieldChanged{Field: field, Value: value})
}

func (c *Controller) SaveAnalysis() error {
	return c.apply(context.Background(), EditSaved{})
}

// CancelEdit leaves edit mode without reverting fields already changed.
func (c *Controller) CancelEdit() error {
	return c.apply(context.Background(), EditCanceled{})
}

func (c *Controller) StartOver() {
	_ = c.apply(context.Background(), StartedOver{})
}

func (c *Controller) NewProject() {
	_ = c.apply(context.Background(), NewProjectRequested{})
}

func (c *Controller) CreateScripts(ctx context.Context) error {
	return c.apply(ctx, ScriptsRequested{})
}

func (c *Controller) SelectProject(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if c.projects == nil {
		return ErrStoreUnavailable
	}
	project, ok, err := c.projects.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return c.apply(ctx, ProjectSelected{Project: project})
}

func (c *Controller) ProjectHistory(ctx context.Context) ([]types.ProjectSummary, error) {
	if c.projects == nil {
		return nil, ErrStoreUnavailable
	}
	return c.projects.ListProjectHistory(ctx)
}

// Fire delivers a timer. It reports whether the timer was still current.
func (c *Controller) Fire(ctx context.Context, token Token) bool {
	err := c.apply(ctx, TimerFired{Token: token})
	return err == nil
}

func (c *Controller) apply(ctx context.Context, event Event) error {
	if ctx == nil {
		ctx = context.Background()
	}
	from := c.state.Phase
	next, effects, err := Reduce(c.state, event, c.env)
	if err != nil {
		switch {
		case errors.Is(err, ErrStaleTimer):
			c.metrics.ObserveStaleTimer()
			c.logger.Debug("stale timer ignored", logging.F("phase", from))
		default:
			c.observeRejection(event.eventName(), err)
		}
		return err
	}
	c.state = next
	if to := next.Phase; to != from {
		c.metrics.ObserveTransition(from, to)
		c.logger.Info("workflow phase changed",
			logging.F("event", event.eventName()),
			logging.F("from", from),
			logging.F("to", to),
		)
	}
	for _, effect := range effects {
		c.runEffect(ctx, effect)
	}
	return nil
}

func (c *Controller) observeRejection(op string, err error) {
	reason, ok := ReasonOf(err)
	if !ok {
		return
	}
	c.metrics.ObserveRejection(op, reason)
	c.logger.Debug("workflow operation rejected",
		logging.F("op", op),
		logging.F("reason", string(reason)),
		logging.F("phase", c.state.Phase),
	)
}

func (c *Controller) runEffect(ctx context.Context, effect Effect) {
	switch eff := effect.(type) {
	case ScheduleEffect:
		c.scheduler.Schedule(eff.Token, eff.Delay)
	case GenerateScriptsEffect:
		c.generateScripts(ctx)
	}
}

// generateScripts is where script content is produced once script-results is
// reached. Failures are recorded on the state; the phase still settles.
func (c *Controller) generateScripts(ctx context.Context) {
	var analysis types.Analysis
	if c.state.Draft != nil {
		analysis = *c.state.Draft.Clone()
	}
	scripts, err := c.writer.WriteScripts(ctx, analysis)
	var project *types.Project
	if err == nil && c.state.Project != nil && c.projects != nil && len(scripts) > 0 {
		project, err = c.projects.AddScripts(ctx, c.state.Project.ID, scripts)
	}
	if err != nil {
		c.logger.Warn("script generation failed", logging.F("error", err))
	}
	_ = c.apply(ctx, ScriptsGenerated{Scripts: scripts, Project: project, Err: err})
}
