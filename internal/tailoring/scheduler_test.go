package tailoring

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerReplacesPending(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock)

	var fired []int
	for i := 1; i <= 3; i++ {
		n := i
		s.Schedule(time.Second, func() { fired = append(fired, n) })
		clock.Advance(500 * time.Millisecond)
	}
	if !s.Pending() {
		t.Fatal("Expected a pending callback")
	}

	clock.Advance(time.Second)
	if len(fired) != 1 || fired[0] != 3 {
		t.Errorf("Expected only the last callback to fire, got %v", fired)
	}
	if s.Pending() {
		t.Error("Expected nothing pending after firing")
	}
}

func TestSchedulerCancelPending(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock)

	if s.CancelPending() {
		t.Error("Expected nothing to cancel")
	}

	called := false
	s.Schedule(time.Second, func() { called = true })
	if !s.CancelPending() {
		t.Error("Expected pending callback to be cancelled")
	}
	clock.Advance(time.Hour)
	if called {
		t.Error("Cancelled callback ran")
	}
}

func TestSchedulerIgnoresStaleFire(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock)

	var calls int32
	s.Schedule(time.Second, func() { atomic.AddInt32(&calls, 1) })

	// Simulate a timer that fired concurrently with its replacement.
	clock.mu.Lock()
	stale := clock.timers[0]
	clock.mu.Unlock()
	s.Schedule(time.Second, func() { atomic.AddInt32(&calls, 10) })
	stale.fn()

	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("Stale timer ran its callback, calls=%d", got)
	}
	clock.Advance(time.Second)
	if got := atomic.LoadInt32(&calls); got != 10 {
		t.Errorf("Expected replacement callback to run once, calls=%d", got)
	}
}

func TestSchedulerRealClock(t *testing.T) {
	s := NewScheduler(nil)
	done := make(chan struct{})
	s.Schedule(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Callback did not run on the real clock")
	}
}
