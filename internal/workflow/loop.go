package workflow

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrLoopClosed = errors.New("workflow loop is closed")

// Loop runs a Controller on a single goroutine and delivers its timers with
// real clocks. All access to the controller goes through Do.
type Loop struct {
	ctrl *Controller
	cmds chan loopCmd
	stop chan struct{}
	done chan struct{}

	timers   map[Token]*time.Timer
	inflight sync.WaitGroup

	mu        sync.Mutex
	changed   chan struct{}
	closeOnce sync.Once
}

type loopCmd struct {
	fn       func()
	readOnly bool
}

// NewLoop starts a loop around a new controller built from opts. Any scheduler
// option is replaced by the loop itself.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		cmds:    make(chan loopCmd),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		timers:  map[Token]*time.Timer{},
		changed: make(chan struct{}),
	}
	opts = append(opts, WithScheduler(l))
	l.ctrl = NewController(opts...)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.stop:
			return
		case cmd := <-l.cmds:
			cmd.fn()
			if !cmd.readOnly {
				l.notify()
			}
		}
	}
}

func (l *Loop) notify() {
	l.mu.Lock()
	close(l.changed)
	l.changed = make(chan struct{})
	l.mu.Unlock()
}

// Schedule is called by the controller from the loop goroutine.
func (l *Loop) Schedule(token Token, delay time.Duration) {
	l.inflight.Add(1)
	l.timers[token] = time.AfterFunc(delay, func() {
		defer l.inflight.Done()
		l.post(func() {
			delete(l.timers, token)
			l.ctrl.Fire(context.Background(), token)
		})
	})
}

func (l *Loop) post(fn func()) bool {
	select {
	case l.cmds <- loopCmd{fn: fn}:
		return true
	case <-l.stop:
		return false
	}
}

// Do runs fn on the loop goroutine and returns its error.
func (l *Loop) Do(ctx context.Context, fn func(context.Context, *Controller) error) error {
	return l.exec(ctx, false, fn)
}

func (l *Loop) exec(ctx context.Context, readOnly bool, fn func(context.Context, *Controller) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	result := make(chan error, 1)
	cmd := loopCmd{fn: func() { result <- fn(ctx, l.ctrl) }, readOnly: readOnly}
	select {
	case l.cmds <- cmd:
	case <-l.stop:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the controller state.
func (l *Loop) Snapshot(ctx context.Context) (State, error) {
	var state State
	err := l.exec(ctx, true, func(_ context.Context, c *Controller) error {
		state = c.State()
		return nil
	})
	return state, err
}

// WaitForPhase blocks until the controller reaches phase.
func (l *Loop) WaitForPhase(ctx context.Context, phase Phase) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		var (
			current Phase
			changed <-chan struct{}
		)
		err := l.exec(ctx, true, func(_ context.Context, c *Controller) error {
			current = c.Phase()
			l.mu.Lock()
			changed = l.changed
			l.mu.Unlock()
			return nil
		})
		if err != nil {
			return err
		}
		if current == phase {
			return nil
		}
		select {
		case <-changed:
		case <-l.done:
			return ErrLoopClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the loop and any timers that have not fired yet.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.stop)
		<-l.done
		for token, timer := range l.timers {
			if timer.Stop() {
				l.inflight.Done()
			}
			delete(l.timers, token)
		}
		l.inflight.Wait()
	})
}
