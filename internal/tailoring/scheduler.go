package tailoring

import (
	"sync"
	"time"
)

// Timer is a scheduled callback that can be stopped
type Timer interface {
	Stop() bool
}

// Clock abstracts time so debounce behaviour can be tested without sleeping
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns the wall clock
func RealClock() Clock {
	return realClock{}
}

// Scheduler holds at most one pending callback; scheduling again replaces it
type Scheduler struct {
	mu    sync.Mutex
	clock Clock
	timer Timer
	seq   uint64
}

// NewScheduler creates a scheduler on the given clock
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{clock: clock}
}

// Schedule cancels any pending callback and runs fn after delay
func (s *Scheduler) Schedule(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.seq++
	seq := s.seq
	s.timer = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		// A timer that fired while being replaced must not run.
		if seq != s.seq {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		fn()
	})
}

// CancelPending drops the pending callback, reporting whether there was one
func (s *Scheduler) CancelPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.timer != nil
	s.stopLocked()
	s.seq++
	return pending
}

// Pending reports whether a callback is waiting to run
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
