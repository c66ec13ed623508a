package workflow

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"mindcue/internal/types"
)

// Event is a user intent or a timer/backing-operation result fed to Reduce.
type Event interface {
	eventName() string
}

type InputSubmitted struct{ Text string }
type AnalysisConfirmed struct{ Project *types.Project }
type MaterializeFailed struct{ Err error }
type EditStarted struct{}
type FieldChanged struct {
	Field Field
	Value string
}
type EditSaved struct{}
type EditCanceled struct{}
type StartedOver struct{}
type NewProjectRequested struct{}
type ScriptsRequested struct{}
type ScriptsGenerated struct {
	Scripts []types.Script
	Project *types.Project
	Err     error
}
type TimerFired struct{ Token Token }
type ProjectSelected struct{ Project *types.Project }

func (InputSubmitted) eventName() string      { return "submit_input" }
func (AnalysisConfirmed) eventName() string   { return "confirm_analysis" }
func (MaterializeFailed) eventName() string   { return "confirm_analysis" }
func (EditStarted) eventName() string         { return "edit_analysis" }
func (FieldChanged) eventName() string        { return "set_field" }
func (EditSaved) eventName() string           { return "save_analysis" }
func (EditCanceled) eventName() string        { return "cancel_edit" }
func (StartedOver) eventName() string         { return "start_over" }
func (NewProjectRequested) eventName() string { return "new_project" }
func (ScriptsRequested) eventName() string    { return "create_scripts" }
func (ScriptsGenerated) eventName() string    { return "scripts_generated" }
func (TimerFired) eventName() string          { return "timer_fired" }
func (ProjectSelected) eventName() string     { return "select_project" }

// Effect is work the reducer asks its caller to perform.
type Effect interface {
	effect()
}

type ScheduleEffect struct {
	Token Token
	Kind  TimerKind
	Delay time.Duration
}

// GenerateScriptsEffect asks for scripts once script-results is reached.
type GenerateScriptsEffect struct{}

func (ScheduleEffect) effect()        {}
func (GenerateScriptsEffect) effect() {}

// Reduce applies event to state. On error the returned state equals the input
// state and no effects are produced.
func Reduce(state State, event Event, env Env) (State, []Effect, error) {
	env = env.normalize()
	next := state.Clone()
	var effects []Effect
	var err error
	switch ev := event.(type) {
	case InputSubmitted:
		effects, err = reduceInput(&next, ev, env)
	case AnalysisConfirmed:
		effects, err = reduceConfirmed(&next, ev, env)
	case MaterializeFailed:
		err = reduceMaterializeFailed(&next, ev, env)
	case EditStarted:
		err = reduceEditStarted(&next)
	case FieldChanged:
		err = reduceFieldChanged(&next, ev)
	case EditSaved:
		err = reduceEditSaved(&next)
	case EditCanceled:
		err = reduceEditCanceled(&next)
	case StartedOver:
		resetState(&next, env, StartOverGreeting)
	case NewProjectRequested:
		resetState(&next, env, WelcomeGreeting)
	case ScriptsRequested:
		effects, err = reduceScriptsRequested(&next, env)
	case ScriptsGenerated:
		err = reduceScriptsGenerated(&next, ev, env)
	case TimerFired:
		effects, err = reduceTimer(&next, ev, env)
	case ProjectSelected:
		err = reduceProjectSelected(&next, ev)
	default:
		err = fmt.Errorf("%w: %T", ErrUnsupportedEvent, event)
	}
	if err != nil {
		return state, nil, err
	}
	return next, effects, nil
}

// IsURL reports whether text is a well-formed absolute URL.
func IsURL(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, " \t\n") {
		return false
	}
	parsed, err := url.ParseRequestURI(text)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != ""
}

func reduceInput(s *State, ev InputSubmitted, env Env) ([]Effect, error) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return nil, reject("submit_input", s.Phase, ReasonEmptyInput, ErrEmptyInput)
	}
	s.Messages = append(s.Messages, userMessage(env, ev.Text))
	if !IsURL(text) {
		token := s.issueToken()
		if s.Replies == nil {
			s.Replies = map[Token]struct{}{}
		}
		s.Replies[token] = struct{}{}
		return []Effect{ScheduleEffect{Token: token, Kind: TimerReply, Delay: env.Delays.Reply}}, nil
	}
	if s.Phase != PhaseInitial || s.Pending != nil {
		s.Messages = append(s.Messages, systemMessage(env, AnalysisInProgressReply))
		return nil, nil
	}
	s.SourceURL = text
	s.Failure = nil
	return []Effect{beginWaiting(s, PhaseProcessing, env)}, nil
}

// beginWaiting enters a waiting phase and records its pending advance.
func beginWaiting(s *State, phase Phase, env Env) Effect {
	target, _ := phase.advanceTarget()
	token := s.issueToken()
	s.Phase = phase
	s.Pending = &Pending{Token: token, From: phase, To: target}
	return ScheduleEffect{Token: token, Kind: TimerAdvance, Delay: env.Delays.Advance(phase)}
}

// CheckConfirm reports whether confirmAnalysis may run against state.
func CheckConfirm(s State) error {
	const op = "confirm_analysis"
	if s.Phase != PhaseResults {
		return invalidPhaseError(op, s.Phase)
	}
	if s.Editing {
		return reject(op, s.Phase, ReasonEditInProgress, ErrEditInProgress)
	}
	if s.Draft == nil {
		return reject(op, s.Phase, ReasonNoDraft, ErrNoDraft)
	}
	if err := ValidateAnalysis(s.Draft); err != nil {
		return reject(op, s.Phase, ReasonInvalidDraft, err)
	}
	return nil
}

func reduceConfirmed(s *State, ev AnalysisConfirmed, env Env) ([]Effect, error) {
	if err := CheckConfirm(*s); err != nil {
		return nil, err
	}
	if ev.Project == nil {
		return nil, fmt.Errorf("%w: no project returned", ErrMaterialize)
	}
	s.Project = ev.Project.Clone()
	s.Scripts = nil
	s.Failure = nil
	return []Effect{beginWaiting(s, PhaseStrategyProcessing, env)}, nil
}

func reduceMaterializeFailed(s *State, ev MaterializeFailed, env Env) error {
	if s.Phase != PhaseResults {
		return invalidPhaseError("confirm_analysis", s.Phase)
	}
	message := ErrMaterialize.Error()
	if ev.Err != nil {
		message = ev.Err.Error()
	}
	s.Failure = &Failure{Phase: s.Phase, Op: "confirm_analysis", Message: message, At: env.Now()}
	return nil
}

func reduceEditStarted(s *State) error {
	const op = "edit_analysis"
	if s.Phase != PhaseResults {
		return invalidPhaseError(op, s.Phase)
	}
	if s.Editing {
		return reject(op, s.Phase, ReasonAlreadyEditing, ErrAlreadyEditing)
	}
	if s.Draft == nil {
		return reject(op, s.Phase, ReasonNoDraft, ErrNoDraft)
	}
	s.Editing = true
	return nil
}

func reduceFieldChanged(s *State, ev FieldChanged) error {
	const op = "set_field"
	if !s.Editing {
		return reject(op, s.Phase, ReasonNotEditing, ErrNotEditing)
	}
	if err := SetField(s.Draft, ev.Field, ev.Value); err != nil {
		return reject(op, s.Phase, ReasonUnknownField, err)
	}
	return nil
}

func reduceEditSaved(s *State) error {
	const op = "save_analysis"
	if !s.Editing {
		return reject(op, s.Phase, ReasonNotEditing, ErrNotEditing)
	}
	NormalizeAnalysis(s.Draft)
	if err := ValidateAnalysis(s.Draft); err != nil {
		return reject(op, s.Phase, ReasonInvalidDraft, err)
	}
	s.Editing = false
	return nil
}

// reduceEditCanceled leaves edit mode. Field edits were applied as they were
// typed and are kept, tidied the same way a save tidies them.
func reduceEditCanceled(s *State) error {
	if !s.Editing {
		return reject("cancel_edit", s.Phase, ReasonNotEditing, ErrNotEditing)
	}
	NormalizeAnalysis(s.Draft)
	s.Editing = false
	return nil
}

func resetState(s *State, env Env, greeting string) {
	s.Phase = PhaseInitial
	s.Editing = false
	s.Messages = []types.Message{systemMessage(env, greeting)}
	s.Draft = nil
	s.SourceURL = ""
	s.Pending = nil
	s.Replies = map[Token]struct{}{}
	s.Project = nil
	s.Scripts = nil
	s.Failure = nil
}

func reduceScriptsRequested(s *State, env Env) ([]Effect, error) {
	if s.Phase != PhaseStrategyResults {
		return nil, invalidPhaseError("create_scripts", s.Phase)
	}
	s.Failure = nil
	return []Effect{beginWaiting(s, PhaseScriptProcessing, env)}, nil
}

func reduceScriptsGenerated(s *State, ev ScriptsGenerated, env Env) error {
	if s.Phase != PhaseScriptResults {
		return invalidPhaseError("scripts_generated", s.Phase)
	}
	s.Scripts = types.CloneScripts(ev.Scripts)
	if ev.Project != nil {
		s.Project = ev.Project.Clone()
	}
	if ev.Err != nil {
		s.Failure = &Failure{Phase: s.Phase, Op: "generate_scripts", Message: ev.Err.Error(), At: env.Now()}
	}
	return nil
}

func reduceTimer(s *State, ev TimerFired, env Env) ([]Effect, error) {
	if _, ok := s.Replies[ev.Token]; ok {
		delete(s.Replies, ev.Token)
		s.Messages = append(s.Messages, systemMessage(env, ClarificationReply))
		return nil, nil
	}
	if s.Pending == nil || s.Pending.Token != ev.Token || s.Phase != s.Pending.From {
		return nil, ErrStaleTimer
	}
	target := s.Pending.To
	s.Pending = nil
	s.Phase = target
	switch target {
	case PhaseResults:
		s.Draft = SampleAnalysis(s.SourceURL)
		s.Editing = false
	case PhaseScriptResults:
		return []Effect{GenerateScriptsEffect{}}, nil
	}
	return nil, nil
}

func reduceProjectSelected(s *State, ev ProjectSelected) error {
	if ev.Project == nil {
		return fmt.Errorf("%w: no project", ErrProjectNotFound)
	}
	s.Phase = PhaseScriptResults
	s.Editing = false
	s.Draft = ev.Project.Analysis.Clone()
	s.SourceURL = ev.Project.Analysis.SourceURL
	s.Pending = nil
	s.Replies = map[Token]struct{}{}
	s.Project = ev.Project.Clone()
	s.Scripts = types.CloneScripts(ev.Project.Scripts)
	s.Failure = nil
	return nil
}
