package workflow

import (
	"sync"
	"time"
)

// Scheduler arranges for Controller.Fire(token) to be called after delay on
// the controller's own loop.
type Scheduler interface {
	Schedule(token Token, delay time.Duration)
}

type SchedulerFunc func(token Token, delay time.Duration)

func (f SchedulerFunc) Schedule(token Token, delay time.Duration) {
	f(token, delay)
}

type noopScheduler struct{}

func (noopScheduler) Schedule(Token, time.Duration) {}

type ScheduledTimer struct {
	Token Token
	Delay time.Duration
}

// ManualScheduler records timers so callers can fire them explicitly.
type ManualScheduler struct {
	mu     sync.Mutex
	timers []ScheduledTimer
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) Schedule(token Token, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers = append(s.timers, ScheduledTimer{Token: token, Delay: delay})
}

// Pending returns the recorded timers without consuming them.
func (s *ManualScheduler) Pending() []ScheduledTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ScheduledTimer(nil), s.timers...)
}

// Take returns and clears the recorded timers.
func (s *ManualScheduler) Take() []ScheduledTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.timers
	s.timers = nil
	return out
}
