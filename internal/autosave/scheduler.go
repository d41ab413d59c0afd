// Package autosave coalesces bursts of edits into a single deferred write.
//
// A Scheduler holds at most one pending run. Every Trigger replaces it: the
// previous timer is stopped and its generation is retired, so a superseded
// callback that already left the timer queue still never calls the write.
package autosave

import (
	"sync"
	"time"
)

// DefaultInterval is the quiet period used when none is configured.
const DefaultInterval = 1500 * time.Millisecond

// Timer is the part of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Option func(*Scheduler)

// WithAfterFunc replaces the timer source, typically with a fake clock in tests.
func WithAfterFunc(after AfterFunc) Option {
	return func(s *Scheduler) {
		s.after = after
	}
}

type Scheduler struct {
	interval time.Duration
	run      func()
	after    AfterFunc

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	pending bool
	closed  bool
}

// New returns a scheduler that calls run once interval has passed without a new Trigger.
func New(interval time.Duration, run func(), opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		interval: interval,
		run:      run,
		after:    realAfterFunc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Trigger cancels any pending run and schedules a new one. It is a no-op after Close.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.stopLocked()

	s.gen++
	gen := s.gen
	s.pending = true
	s.timer = s.after(s.interval, func() { s.fire(gen) })
}

// Cancel drops the pending run, if any, and reports whether there was one.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// Pending reports whether a run is scheduled and has not started.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Flush runs a pending run now, on the caller's goroutine. It reports whether anything ran.
func (s *Scheduler) Flush() bool {
	s.mu.Lock()
	had := s.stopLocked()
	s.mu.Unlock()

	if had {
		s.run()
	}
	return had
}

// Close cancels the pending run and disables further triggers.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.closed = true
}

// stopLocked retires the current generation. Callers hold s.mu.
func (s *Scheduler) stopLocked() bool {
	had := s.pending
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.pending = false
	return had
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.timer = nil
	s.mu.Unlock()

	s.run()
}
