package history

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/quill/internal/bibliography"
)

// DefaultCoalesceDelay is the quiet period after which typed edits are recorded.
const DefaultCoalesceDelay = time.Second

// Controller is a linear undo/redo log with coalesced edit recording.
//
// The log always holds at least one snapshot and 0 <= index < len(log).
// Pushing while index is not at the end discards every snapshot after index.
// A push identical to the snapshot at index is skipped.
type Controller struct {
	mu    sync.Mutex
	log   []Snapshot
	index int

	sched  *Scheduler
	logger *zap.Logger
}

// Option configures a Controller.
type Option func(*controllerConfig)

type controllerConfig struct {
	clock  Clock
	delay  time.Duration
	logger *zap.Logger
}

// WithClock sets the clock used for coalescing timers.
func WithClock(c Clock) Option {
	return func(cfg *controllerConfig) {
		cfg.clock = c
	}
}

// WithDelay sets the coalescing quiet period.
func WithDelay(d time.Duration) Option {
	return func(cfg *controllerConfig) {
		if d > 0 {
			cfg.delay = d
		}
	}
}

// WithLogger sets the logger for push/skip events.
func WithLogger(l *zap.Logger) Option {
	return func(cfg *controllerConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// NewController creates a controller whose log starts with initial.
func NewController(initial Snapshot, opts ...Option) *Controller {
	cfg := controllerConfig{
		clock:  RealClock(),
		delay:  DefaultCoalesceDelay,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Controller{
		log:    []Snapshot{initial.Clone()},
		sched:  NewScheduler(cfg.clock, cfg.delay),
		logger: cfg.logger,
	}
}

// RecordEdit schedules a coalesced snapshot. Each call restarts the delay;
// only the last call before the delay elapses is pushed.
func (c *Controller) RecordEdit(text string, entries []bibliography.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sched.Schedule(NewSnapshot(text, entries), c.fire)
}

// RecordImmediate cancels any pending coalesced snapshot and pushes one now.
// Reports whether a snapshot was pushed (false when it duplicates the current one).
func (c *Controller) RecordImmediate(text string, entries []bibliography.Entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sched.Cancel()
	return c.pushLocked(NewSnapshot(text, entries))
}

// Flush pushes a pending coalesced snapshot immediately.
// Reports whether a snapshot was pushed.
func (c *Controller) Flush() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.sched.Flush()
	if !ok {
		return false
	}
	return c.pushLocked(snap)
}

// Undo steps back one snapshot and returns it. Any pending coalesced snapshot
// is cancelled so it cannot resurrect the state just undone.
func (c *Controller) Undo() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index == 0 {
		return Snapshot{}, false
	}
	c.sched.Cancel()
	c.index--
	c.checkLocked()
	return c.log[c.index].Clone(), true
}

// Redo steps forward one snapshot and returns it.
func (c *Controller) Redo() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index >= len(c.log)-1 {
		return Snapshot{}, false
	}
	c.sched.Cancel()
	c.index++
	c.checkLocked()
	return c.log[c.index].Clone(), true
}

// CanUndo reports whether Undo would change state.
func (c *Controller) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index > 0
}

// CanRedo reports whether Redo would change state.
func (c *Controller) CanRedo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index < len(c.log)-1
}

// Current returns the snapshot at the current index.
func (c *Controller) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log[c.index].Clone()
}

// Len returns the number of snapshots in the log.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.log)
}

// Index returns the current position in the log.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Pending reports whether a coalesced snapshot is waiting to be pushed.
func (c *Controller) Pending() bool {
	return c.sched.Pending()
}

// Stop cancels any pending coalesced snapshot without pushing it.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sched.Cancel()
}

// fire is the coalescing timer callback.
func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.sched.Take(gen)
	if !ok {
		return
	}
	c.pushLocked(snap)
}

func (c *Controller) pushLocked(snap Snapshot) bool {
	if snap.Equal(c.log[c.index]) {
		c.logger.Debug("history push skipped", zap.Int("index", c.index))
		return false
	}

	if dropped := len(c.log) - 1 - c.index; dropped > 0 {
		c.logger.Debug("history branch truncated", zap.Int("dropped", dropped))
	}
	c.log = append(c.log[:c.index+1], snap)
	c.index = len(c.log) - 1
	c.checkLocked()

	c.logger.Debug("history push",
		zap.Int("index", c.index),
		zap.Int("text_len", len(snap.Text)),
		zap.Int("entries", len(snap.Bibliography)))
	return true
}

// checkLocked panics when the index invariant is broken; that is a
// programming error, never a recoverable condition.
func (c *Controller) checkLocked() {
	if c.index < 0 || c.index >= len(c.log) {
		panic(fmt.Sprintf("history: index %d out of bounds for log of length %d", c.index, len(c.log)))
	}
}
