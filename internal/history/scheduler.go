package history

import (
	"sync"
	"time"
)

// Timer is a pending scheduled call.
type Timer interface {
	// Stop prevents the call from running. It reports whether the call was
	// still pending.
	Stop() bool
}

// Clock creates timers. The default clock uses time.AfterFunc; tests
// substitute a manual clock to fire timers deterministically.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns the wall-clock Clock.
func RealClock() Clock {
	return realClock{}
}

// Scheduler coalesces a stream of values into the last one submitted within a
// quiet period. Each Schedule call resets the delay. Cancel drops the pending
// value; Flush hands it over immediately.
//
// A generation counter guards against a timer that already fired but has not
// yet delivered: its value is discarded once the generation moves on.
type Scheduler struct {
	clock Clock
	delay time.Duration

	mu      sync.Mutex
	timer   Timer
	pending *Snapshot
	gen     uint64
}

// NewScheduler creates a scheduler with the given quiet period.
func NewScheduler(clock Clock, delay time.Duration) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{clock: clock, delay: delay}
}

// Schedule replaces the pending snapshot and restarts the delay. When the
// delay elapses, fire is called with the generation of this call; the owner
// claims the snapshot with Take, which fails if Schedule, Cancel or Flush ran
// in the meantime.
func (s *Scheduler) Schedule(snap Snapshot, fire func(gen uint64)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	gen := s.gen
	s.pending = &snap
	s.timer = s.clock.AfterFunc(s.delay, func() { fire(gen) })
}

// Cancel drops any pending snapshot. Reports whether one was pending.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	had := s.pending != nil
	s.stopLocked()
	s.gen++
	s.pending = nil
	return had
}

// Flush stops the timer and returns the pending snapshot, if any.
func (s *Scheduler) Flush() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	if s.pending == nil {
		return Snapshot{}, false
	}
	snap := *s.pending
	s.pending = nil
	return snap, true
}

// Pending reports whether a snapshot is waiting for the delay to elapse.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Take claims the pending snapshot for a fired timer of generation gen.
func (s *Scheduler) Take(gen uint64) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.pending == nil {
		return Snapshot{}, false
	}
	snap := *s.pending
	s.pending = nil
	s.timer = nil
	return snap, true
}

func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
