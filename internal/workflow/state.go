package workflow

import (
	"time"

	"github.com/google/uuid"

	"mindcue/internal/types"
)

// Token identifies one scheduled timer. Tokens only ever increase, so a timer
// whose token is no longer recorded in State is stale.
type Token uint64

type TimerKind string

const (
	TimerAdvance TimerKind = "advance"
	TimerReply   TimerKind = "reply"
)

// Pending is the timed advance out of a waiting phase.
type Pending struct {
	Token Token
	From  Phase
	To    Phase
}

// Failure records a backing operation that failed and can be retried.
type Failure struct {
	Phase   Phase
	Op      string
	Message string
	At      time.Time
}

type State struct {
	Phase     Phase
	Editing   bool
	Messages  []types.Message
	Draft     *types.Analysis
	SourceURL string
	Pending   *Pending
	Replies   map[Token]struct{}
	NextToken Token
	Project   *types.Project
	Scripts   []types.Script
	Failure   *Failure
}

type Delays struct {
	Analysis time.Duration
	Strategy time.Duration
	Script   time.Duration
	Reply    time.Duration
}

const (
	DefaultAnalysisDelay = 4 * time.Second
	DefaultStrategyDelay = 4 * time.Second
	DefaultScriptDelay   = 6 * time.Second
	DefaultReplyDelay    = 1500 * time.Millisecond
)

func DefaultDelays() Delays {
	return Delays{
		Analysis: DefaultAnalysisDelay,
		Strategy: DefaultStrategyDelay,
		Script:   DefaultScriptDelay,
		Reply:    DefaultReplyDelay,
	}
}

// Normalize replaces negative delays with defaults. Zero is allowed and
// means "fire on the next loop turn".
func (d Delays) Normalize() Delays {
	defaults := DefaultDelays()
	if d.Analysis < 0 {
		d.Analysis = defaults.Analysis
	}
	if d.Strategy < 0 {
		d.Strategy = defaults.Strategy
	}
	if d.Script < 0 {
		d.Script = defaults.Script
	}
	if d.Reply < 0 {
		d.Reply = defaults.Reply
	}
	return d
}

// Advance is the delay before a waiting phase moves on.
func (d Delays) Advance(from Phase) time.Duration {
	switch from {
	case PhaseProcessing:
		return d.Analysis
	case PhaseStrategyProcessing:
		return d.Strategy
	case PhaseScriptProcessing:
		return d.Script
	default:
		return 0
	}
}

// Env carries the non-deterministic inputs of the reducer.
type Env struct {
	Now    func() time.Time
	NewID  func() string
	Delays Delays
}

func DefaultEnv() Env {
	return Env{
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  uuid.NewString,
		Delays: DefaultDelays(),
	}
}

func (e Env) normalize() Env {
	defaults := DefaultEnv()
	if e.Now == nil {
		e.Now = defaults.Now
	}
	if e.NewID == nil {
		e.NewID = defaults.NewID
	}
	e.Delays = e.Delays.Normalize()
	return e
}

// NewState returns the start state with a single welcome greeting.
func NewState(env Env) State {
	env = env.normalize()
	return State{
		Phase:    PhaseInitial,
		Messages: []types.Message{systemMessage(env, WelcomeGreeting)},
		Replies:  map[Token]struct{}{},
	}
}

// Clone returns a deep copy safe to hand to the presentation layer.
func (s State) Clone() State {
	out := s
	out.Messages = append([]types.Message(nil), s.Messages...)
	out.Draft = s.Draft.Clone()
	if s.Pending != nil {
		pending := *s.Pending
		out.Pending = &pending
	}
	out.Replies = make(map[Token]struct{}, len(s.Replies))
	for token := range s.Replies {
		out.Replies[token] = struct{}{}
	}
	out.Project = s.Project.Clone()
	out.Scripts = types.CloneScripts(s.Scripts)
	if s.Failure != nil {
		failure := *s.Failure
		out.Failure = &failure
	}
	return out
}

// HasPendingTimers reports whether any timed advance or reply is outstanding.
func (s State) HasPendingTimers() bool {
	return s.Pending != nil || len(s.Replies) > 0
}

func (s *State) issueToken() Token {
	s.NextToken++
	return s.NextToken
}

func systemMessage(env Env, text string) types.Message {
	return types.Message{
		ID:        env.NewID(),
		Text:      text,
		Author:    types.MessageAuthorSystem,
		CreatedAt: env.Now(),
	}
}

func userMessage(env Env, text string) types.Message {
	return types.Message{
		ID:        env.NewID(),
		Text:      text,
		Author:    types.MessageAuthorUser,
		CreatedAt: env.Now(),
	}
}
