// Package sweep schedules the delayed removal of completed items. Each
// pending removal runs a two-phase timer chain: after the policy delay a
// fade cue is announced so surfaces can animate, and after the fade window
// the item is removed for real. Re-completing, un-completing, or deleting
// the item in between cancels or restarts the chain.
package sweep

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/docket/internal/clock"
	"github.com/rpggio/docket/internal/domain/item"
)

// CueFunc announces an imminent removal so the owning surface can start
// its fade animation.
type CueFunc func(target item.Target, itemID string, fade time.Duration) error

// RemoveFunc removes the item once the fade window has elapsed. It must
// re-validate current state: the scheduler guarantees the chain was live
// when it fired, not that the item still exists or is still completed.
type RemoveFunc func(target item.Target, itemID string) error

// Scheduler tracks at most one pending removal chain per item. All
// transitions happen under a single mutex; callbacks are invoked outside
// it so they may call back into stores that in turn talk to the scheduler.
type Scheduler struct {
	mu       sync.Mutex
	clk      clock.Clock
	cue      CueFunc
	remove   RemoveFunc
	logger   *slog.Logger
	pending  map[string]*chain
	disposed bool
}

// chain is one scheduled removal. The map entry is compared by pointer
// identity when a timer fires: a cancelled or superseded chain no longer
// matches and the firing is abandoned.
type chain struct {
	target item.Target
	itemID string
	fade   time.Duration
	timer  clock.Timer
}

// NewScheduler wires the two callbacks. A nil clock falls back to the
// system clock and a nil logger discards.
func NewScheduler(clk clock.Clock, cue CueFunc, remove RemoveFunc, logger *slog.Logger) *Scheduler {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		clk:     clk,
		cue:     cue,
		remove:  remove,
		logger:  logger,
		pending: make(map[string]*chain),
	}
}

// Schedule starts (or restarts) the removal chain for one item. An
// existing chain for the same item is superseded and its timers never take
// effect. A disabled policy behaves like Cancel.
func (s *Scheduler) Schedule(target item.Target, itemID string, policy Policy) {
	if !policy.Enabled {
		s.Cancel(target, itemID)
		return
	}
	policy = policy.normalized()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	key := chainKey(target, itemID)
	if old, ok := s.pending[key]; ok {
		old.timer.Stop()
		s.logger.Debug("restarting removal chain", "bucket", target.Key(), "item", itemID)
	}
	c := &chain{target: target, itemID: itemID, fade: policy.Fade}
	c.timer = s.clk.AfterFunc(policy.Delay, func() { s.beginFade(key, c) })
	s.pending[key] = c
}

// Cancel drops any pending chain for the item. A chain whose timer is
// mid-fire loses the identity check and backs off, so after Cancel returns
// neither the cue nor the removal will take effect.
func (s *Scheduler) Cancel(target item.Target, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := chainKey(target, itemID)
	if c, ok := s.pending[key]; ok {
		c.timer.Stop()
		delete(s.pending, key)
	}
}

// CancelScope drops pending chains for every given item in the bucket.
// Used before a bucket is cleared wholesale.
func (s *Scheduler) CancelScope(target item.Target, items []item.Item) {
	for i := range items {
		s.Cancel(target, items[i].ID)
	}
}

// Dispose cancels everything and rejects future schedules. Safe to call
// more than once.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	for key, c := range s.pending {
		c.timer.Stop()
		delete(s.pending, key)
	}
}

// beginFade is the delay-timer callback: announce the cue and arm the
// fade timer. The chain stays in the map so Cancel can still stop the
// second phase.
func (s *Scheduler) beginFade(key string, c *chain) {
	s.mu.Lock()
	if s.disposed || s.pending[key] != c {
		s.mu.Unlock()
		return
	}
	c.timer = s.clk.AfterFunc(c.fade, func() { s.finish(key, c) })
	s.mu.Unlock()

	s.invoke("fade cue", c, func() error { return s.cue(c.target, c.itemID, c.fade) })
}

// finish is the fade-timer callback: clear the slot, then remove. The slot
// is cleared exactly once per chain, before the removal runs, so a re-toggle
// during the removal callback schedules a fresh chain instead of racing this
// one.
func (s *Scheduler) finish(key string, c *chain) {
	s.mu.Lock()
	if s.disposed || s.pending[key] != c {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.mu.Unlock()

	s.invoke("removal", c, func() error { return s.remove(c.target, c.itemID) })
}

func (s *Scheduler) invoke(stage string, c *chain, fn func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("sweep callback panicked",
				"stage", stage, "bucket", c.target.Key(), "item", c.itemID, "panic", rec)
		}
	}()
	if err := fn(); err != nil {
		s.logger.Error("sweep callback failed",
			"stage", stage, "bucket", c.target.Key(), "item", c.itemID, "error", err)
	}
}

func chainKey(target item.Target, itemID string) string {
	return target.Key() + "|" + itemID
}
