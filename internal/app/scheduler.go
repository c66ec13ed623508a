package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mindcue/internal/workflow"
)

type timerFiredMsg struct {
	token workflow.Token
}

// teaScheduler turns controller timers into tea.Tick commands. The controller
// only runs inside Update, so timers queued there are drained into the
// command Update returns.
type teaScheduler struct {
	queued []tea.Cmd
}

func (s *teaScheduler) Schedule(token workflow.Token, delay time.Duration) {
	s.queued = append(s.queued, tea.Tick(delay, func(time.Time) tea.Msg {
		return timerFiredMsg{token: token}
	}))
}

func (s *teaScheduler) drain() tea.Cmd {
	if len(s.queued) == 0 {
		return nil
	}
	cmds := s.queued
	s.queued = nil
	return tea.Batch(cmds...)
}
