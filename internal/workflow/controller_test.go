package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mindcue/internal/logging"
	"mindcue/internal/types"
)

type fakeStore struct {
	mu        sync.Mutex
	projects  map[string]*types.Project
	order     []string
	createErr error
	addErr    error
	created   []types.NewProject
}

func newFakeStore() *fakeStore {
	return &fakeStore{projects: map[string]*types.Project{}}
}

func (s *fakeStore) CreateProject(_ context.Context, req types.NewProject) (*types.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, req)
	project := &types.Project{
		ID:       fmt.Sprintf("project-%d", len(s.order)+1),
		Name:     req.Name,
		Owner:    req.Owner,
		Analysis: *req.Analysis.Clone(),
		Status:   types.ProjectStatusActive,
	}
	s.projects[project.ID] = project
	s.order = append(s.order, project.ID)
	return project.Clone(), nil
}

func (s *fakeStore) GetProject(_ context.Context, id string) (*types.Project, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[id]
	if !ok {
		return nil, false, nil
	}
	return project.Clone(), true, nil
}

func (s *fakeStore) ListProjectHistory(context.Context) ([]types.ProjectSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ProjectSummary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.projects[s.order[i]].Summary())
	}
	return out, nil
}

func (s *fakeStore) AddScripts(_ context.Context, id string, scripts []types.Script) (*types.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return nil, s.addErr
	}
	project, ok := s.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	project.Scripts = append(project.Scripts, types.CloneScripts(scripts)...)
	return project.Clone(), nil
}

type recordingMetrics struct {
	mu           sync.Mutex
	transitions  []string
	rejections   []string
	stale        int
	materialized []bool
}

func (m *recordingMetrics) ObserveTransition(from, to Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, string(from)+"->"+string(to))
}

func (m *recordingMetrics) ObserveRejection(op string, reason RejectReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections = append(m.rejections, op+":"+string(reason))
}

func (m *recordingMetrics) ObserveStaleTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stale++
}

func (m *recordingMetrics) ObserveMaterialization(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.materialized = append(m.materialized, ok)
}

type controllerHarness struct {
	ctrl    *Controller
	sched   *ManualScheduler
	store   *fakeStore
	metrics *recordingMetrics
}

func newHarness(opts ...Option) *controllerHarness {
	env := testEnv()
	h := &controllerHarness{
		sched:   NewManualScheduler(),
		store:   newFakeStore(),
		metrics: &recordingMetrics{},
	}
	base := []Option{
		WithScheduler(h.sched),
		WithProjectStore(h.store),
		WithMetrics(h.metrics),
		WithClock(env.Now),
		WithIDGenerator(env.NewID),
		WithDelays(env.Delays),
		WithOwner("dana@example.com"),
	}
	h.ctrl = NewController(append(base, opts...)...)
	return h
}

// fireAll delivers every scheduled timer, including ones scheduled while
// firing.
func (h *controllerHarness) fireAll(t *testing.T) {
	t.Helper()
	for i := 0; i < 10; i++ {
		timers := h.sched.Take()
		if len(timers) == 0 {
			return
		}
		for _, timer := range timers {
			h.ctrl.Fire(context.Background(), timer.Token)
		}
	}
	t.Fatalf("timers kept rescheduling")
}

func (h *controllerHarness) toResults(t *testing.T, url string) {
	t.Helper()
	if err := h.ctrl.SubmitInput(context.Background(), url); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	h.fireAll(t)
	if got := h.ctrl.Phase(); got != PhaseResults {
		t.Fatalf("expected results, got %s", got)
	}
}

func TestControllerConfirmMaterializesProject(t *testing.T) {
	h := newHarness()
	h.toResults(t, testURL)

	project, err := h.ctrl.ConfirmAnalysis(context.Background())
	if err != nil {
		t.Fatalf("ConfirmAnalysis: %v", err)
	}
	if project.Name != "CloudSync Pro Campaign" {
		t.Fatalf("unexpected project name %q", project.Name)
	}
	if project.Owner != "dana@example.com" {
		t.Fatalf("unexpected owner %q", project.Owner)
	}
	if project.Analysis.SourceURL != testURL {
		t.Fatalf("unexpected source url %q", project.Analysis.SourceURL)
	}
	if got := h.ctrl.Phase(); got != PhaseStrategyProcessing {
		t.Fatalf("expected strategy-processing, got %s", got)
	}
	state := h.ctrl.State()
	if state.Project == nil || state.Project.ID != project.ID {
		t.Fatalf("expected current project, got %#v", state.Project)
	}
	if len(h.metrics.materialized) != 1 || !h.metrics.materialized[0] {
		t.Fatalf("expected successful materialization metric, got %v", h.metrics.materialized)
	}
}

func TestControllerConfirmSnapshotIndependentOfLaterEdits(t *testing.T) {
	h := newHarness()
	h.toResults(t, testURL)
	first, err := h.ctrl.ConfirmAnalysis(context.Background())
	if err != nil {
		t.Fatalf("ConfirmAnalysis: %v", err)
	}

	first.Analysis.Product.USPs[0] = "mutated by caller"
	state := h.ctrl.State()
	state.Draft.Product.Name = "mutated snapshot"

	h.ctrl.StartOver()
	h.toResults(t, "https://vaultly.example.com")
	if err := h.ctrl.EditAnalysis(); err != nil {
		t.Fatalf("EditAnalysis: %v", err)
	}
	if err := h.ctrl.SetField(FieldProductName, "Vaultly"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if err := h.ctrl.SaveAnalysis(); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	second, err := h.ctrl.ConfirmAnalysis(context.Background())
	if err != nil {
		t.Fatalf("ConfirmAnalysis: %v", err)
	}
	if second.Name != "Vaultly Campaign" {
		t.Fatalf("unexpected second project name %q", second.Name)
	}

	stored, ok, err := h.store.GetProject(context.Background(), first.ID)
	if err != nil || !ok {
		t.Fatalf("GetProject: %v %v", ok, err)
	}
	if stored.Analysis.Product.Name != "CloudSync Pro" {
		t.Fatalf("first project analysis changed: %q", stored.Analysis.Product.Name)
	}
	if stored.Analysis.Product.USPs[0] != "End-to-end encryption" {
		t.Fatalf("first project usps changed: %v", stored.Analysis.Product.USPs)
	}

	history, err := h.ctrl.ProjectHistory(context.Background())
	if err != nil {
		t.Fatalf("ProjectHistory: %v", err)
	}
	if len(history) != 2 || history[0].Name != "Vaultly" || history[1].Name != "CloudSync Pro" {
		t.Fatalf("unexpected history: %#v", history)
	}
}

func TestControllerConfirmSavesDraftAsShown(t *testing.T) {
	cases := []struct {
		name string
		edit func(t *testing.T, c *Controller)
	}{
		{name: "unedited"},
		{
			name: "edit then cancel",
			edit: func(t *testing.T, c *Controller) {
				mustDo(t, c.EditAnalysis())
				mustDo(t, c.SetField(FieldProductName, "  Vaultly  "))
				mustDo(t, c.SetField(FieldProductUSPs, " Zero-knowledge vault ,, Passkeys "))
				mustDo(t, c.CancelEdit())
			},
		},
		{
			name: "edit then save",
			edit: func(t *testing.T, c *Controller) {
				mustDo(t, c.EditAnalysis())
				mustDo(t, c.SetField(FieldProductCTA, "  Try it free  "))
				mustDo(t, c.SaveAnalysis())
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			h.toResults(t, testURL)
			if tc.edit != nil {
				tc.edit(t, h.ctrl)
			}
			draft := h.ctrl.State().Draft

			project, err := h.ctrl.ConfirmAnalysis(context.Background())
			if err != nil {
				t.Fatalf("ConfirmAnalysis: %v", err)
			}
			if diff := cmp.Diff(*draft, project.Analysis); diff != "" {
				t.Fatalf("saved analysis differs from draft (-draft +saved):\n%s", diff)
			}
			stored, ok, err := h.store.GetProject(context.Background(), project.ID)
			if err != nil || !ok {
				t.Fatalf("GetProject: %v %v", ok, err)
			}
			if diff := cmp.Diff(*draft, stored.Analysis); diff != "" {
				t.Fatalf("stored analysis differs from draft (-draft +stored):\n%s", diff)
			}
		})
	}
}

func TestControllerSchedulesConfiguredDelays(t *testing.T) {
	var scheduled []ScheduledTimer
	delays := Delays{Analysis: 5 * time.Second, Strategy: 7 * time.Second, Script: 11 * time.Second, Reply: time.Second}
	h := newHarness(
		WithScheduler(SchedulerFunc(func(token Token, delay time.Duration) {
			scheduled = append(scheduled, ScheduledTimer{Token: token, Delay: delay})
		})),
		WithDelays(delays),
	)
	ctx := context.Background()
	fireLast := func(want Phase) {
		t.Helper()
		if len(scheduled) == 0 {
			t.Fatalf("nothing scheduled")
		}
		if !h.ctrl.Fire(ctx, scheduled[len(scheduled)-1].Token) {
			t.Fatalf("expected timer to fire")
		}
		if got := h.ctrl.Phase(); got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}

	mustDo(t, h.ctrl.SubmitInput(ctx, testURL))
	fireLast(PhaseResults)
	if _, err := h.ctrl.ConfirmAnalysis(ctx); err != nil {
		t.Fatalf("ConfirmAnalysis: %v", err)
	}
	fireLast(PhaseStrategyResults)
	mustDo(t, h.ctrl.CreateScripts(ctx))
	fireLast(PhaseScriptResults)

	got := make([]time.Duration, 0, len(scheduled))
	for _, timer := range scheduled {
		got = append(got, timer.Delay)
	}
	want := []time.Duration{delays.Analysis, delays.Strategy, delays.Script}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected delays (-want +got):\n%s", diff)
	}
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestControllerMaterializeFailureStaysInResults(t *testing.T) {
	h := newHarness()
	h.toResults(t, testURL)
	cause := errors.New("database is locked")
	h.store.createErr = cause

	project, err := h.ctrl.ConfirmAnalysis(context.Background())
	if project != nil {
		t.Fatalf("expected no project")
	}
	if !errors.Is(err, ErrMaterialize) || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped materialize error, got %v", err)
	}
	if got := h.ctrl.Phase(); got != PhaseResults {
		t.Fatalf("expected results, got %s", got)
	}
	state := h.ctrl.State()
	if state.Failure == nil || !strings.Contains(state.Failure.Message, "database is locked") {
		t.Fatalf("expected failure recorded, got %#v", state.Failure)
	}
	if len(h.sched.Pending()) != 0 {
		t.Fatalf("expected no timers after failure")
	}

	h.store.createErr = nil
	if _, err := h.ctrl.ConfirmAnalysis(context.Background()); err != nil {
		t.Fatalf("retry ConfirmAnalysis: %v", err)
	}
	if state := h.ctrl.State(); state.Failure != nil {
		t.Fatalf("expected failure cleared, got %#v", state.Failure)
	}
	if got := h.metrics.materialized; len(got) != 2 || got[0] || !got[1] {
		t.Fatalf("unexpected materialization metrics %v", got)
	}
}

func TestControllerConfirmWithoutStore(t *testing.T) {
	h := newHarness()
	ctrl := NewController(WithScheduler(h.sched))
	if err := ctrl.SubmitInput(context.Background(), testURL); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	for _, timer := range h.sched.Take() {
		ctrl.Fire(context.Background(), timer.Token)
	}
	_, err := ctrl.ConfirmAnalysis(context.Background())
	if !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, ErrMaterialize) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
	if _, err := ctrl.ProjectHistory(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
}

func TestControllerConfirmRejectedOutsideResults(t *testing.T) {
	h := newHarness()
	_, err := h.ctrl.ConfirmAnalysis(context.Background())
	if !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}
	if len(h.store.created) != 0 {
		t.Fatalf("store must not be called")
	}
	if len(h.metrics.rejections) != 1 || h.metrics.rejections[0] != "confirm_analysis:invalid_phase" {
		t.Fatalf("unexpected rejections %v", h.metrics.rejections)
	}
}

func TestControllerScriptsGeneratedAndPersisted(t *testing.T) {
	h := newHarness()
	h.toResults(t, testURL)
	project, err := h.ctrl.ConfirmAnalysis(context.Background())
	if err != nil {
		t.Fatalf("ConfirmAnalysis: %v", err)
	}
	h.fireAll(t)
	if got := h.ctrl.Phase(); got != PhaseStrategyResults {
		t.Fatalf("expected strategy-results, got %s", got)
	}
	if err := h.ctrl.CreateScripts(context.Background()); err != nil {
		t.Fatalf("CreateScripts: %v", err)
	}
	h.fireAll(t)

	state := h.ctrl.State()
	if state.Phase != PhaseScriptResults {
		t.Fatalf("expected script-results, got %s", state.Phase)
	}
	if len(state.Scripts) != 2 {
		t.Fatalf("expected 2 scripts, got %d", len(state.Scripts))
	}
	if !strings.Contains(state.Scripts[0].Scenes[1].Text, "CloudSync Pro") {
		t.Fatalf("expected product name in script, got %q", state.Scripts[0].Scenes[1].Text)
	}
	if state.Scripts[0].CreatedBy != "dana@example.com" || state.Scripts[0].Status != types.ScriptStatusDraft {
		t.Fatalf("unexpected script metadata %#v", state.Scripts[0])
	}
	stored, _, _ := h.store.GetProject(context.Background(), project.ID)
	if len(stored.Scripts) != 2 {
		t.Fatalf("expected scripts persisted, got %d", len(stored.Scripts))
	}
	if state.Project == nil || len(state.Project.Scripts) != 2 {
		t.Fatalf("expected current project refreshed, got %#v", state.Project)
	}

	want := []string{
		"initial->processing",
		"processing->results",
		"results->strategy-processing",
		"strategy-processing->strategy-results",
		"strategy-results->script-processing",
		"script-processing->script-results",
	}
	if strings.Join(h.metrics.transitions, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected transitions %v", h.metrics.transitions)
	}
}

func TestControllerScriptWriterFailureRecorded(t *testing.T) {
	writer := ScriptWriterFunc(func(context.Context, types.Analysis) ([]types.Script, error) {
		return nil, errors.New("writer unavailable")
	})
	h := newHarness(WithScriptWriter(writer))
	h.toResults(t, testURL)
	if _, err := h.ctrl.ConfirmAnalysis(context.Background()); err != nil {
		t.Fatalf("ConfirmAnalysis: %v", err)
	}
	h.fireAll(t)
	if err := h.ctrl.CreateScripts(context.Background()); err != nil {
		t.Fatalf("CreateScripts: %v", err)
	}
	h.fireAll(t)
	state := h.ctrl.State()
	if state.Phase != PhaseScriptResults {
		t.Fatalf("expected script-results, got %s", state.Phase)
	}
	if state.Failure == nil || state.Failure.Message != "writer unavailable" {
		t.Fatalf("expected writer failure, got %#v", state.Failure)
	}
}

func TestControllerSelectProject(t *testing.T) {
	h := newHarness()
	if err := h.ctrl.SelectProject(context.Background(), "missing"); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}

	h.toResults(t, testURL)
	project, err := h.ctrl.ConfirmAnalysis(context.Background())
	if err != nil {
		t.Fatalf("ConfirmAnalysis: %v", err)
	}
	h.ctrl.NewProject()
	if got := h.ctrl.Phase(); got != PhaseInitial {
		t.Fatalf("expected initial, got %s", got)
	}
	if err := h.ctrl.SelectProject(context.Background(), " "+project.ID+" "); err != nil {
		t.Fatalf("SelectProject: %v", err)
	}
	state := h.ctrl.State()
	if state.Phase != PhaseScriptResults || state.Project == nil || state.Project.ID != project.ID {
		t.Fatalf("unexpected state after select: %#v", state)
	}
}

func TestControllerStaleTimerCounted(t *testing.T) {
	h := newHarness()
	if err := h.ctrl.SubmitInput(context.Background(), testURL); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	h.ctrl.StartOver()
	for _, timer := range h.sched.Take() {
		if h.ctrl.Fire(context.Background(), timer.Token) {
			t.Fatalf("expected token %d to be stale", timer.Token)
		}
	}
	if h.metrics.stale != 1 {
		t.Fatalf("expected one stale timer, got %d", h.metrics.stale)
	}
	if got := h.ctrl.Phase(); got != PhaseInitial {
		t.Fatalf("expected initial, got %s", got)
	}
}

func TestControllerLogsTransitions(t *testing.T) {
	var buf bytes.Buffer
	h := newHarness(WithLogger(logging.New(&buf, logging.Debug)))
	h.toResults(t, testURL)
	_ = h.ctrl.SaveAnalysis()

	out := buf.String()
	if !strings.Contains(out, "workflow phase changed") {
		t.Fatalf("expected transition log, got %q", out)
	}
	if !strings.Contains(out, `"to": "results"`) {
		t.Fatalf("expected target phase in log, got %q", out)
	}
	if !strings.Contains(out, "workflow operation rejected") || !strings.Contains(out, "not_editing") {
		t.Fatalf("expected rejection log, got %q", out)
	}
}

func TestControllerSetDelaysAppliesToNextTransition(t *testing.T) {
	h := newHarness()
	h.ctrl.SetDelays(Delays{Analysis: 0, Strategy: -1, Reply: 0, Script: 0})
	if got := h.ctrl.Delays().Strategy; got != DefaultStrategyDelay {
		t.Fatalf("negative delay should fall back to default, got %s", got)
	}
	if err := h.ctrl.SubmitInput(context.Background(), testURL); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	timers := h.sched.Pending()
	if len(timers) != 1 || timers[0].Delay != 0 {
		t.Fatalf("unexpected timers %#v", timers)
	}
}
