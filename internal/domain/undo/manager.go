// Package undo holds short-lived bucket snapshots so a destructive
// operation can be reverted from a notification affordance.
package undo

import (
	"log/slog"
	"sync"

	"github.com/rpggio/docket/internal/domain/item"
)

// Manager keeps at most one snapshot per bucket key. Capturing over an
// existing snapshot replaces it, and a snapshot can be consumed exactly
// once. The manager itself never expires entries; callers schedule
// cleanup by consuming and discarding after their undo window closes.
type Manager struct {
	mu     sync.Mutex
	slots  map[string][]item.Item
	logger *slog.Logger
}

// NewManager returns an empty snapshot manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		slots:  make(map[string][]item.Item),
		logger: logger,
	}
}

// Capture stores a copy of items under key, replacing any earlier snapshot.
// The copy is taken eagerly so later mutations of the live bucket cannot
// leak into a restore.
func (m *Manager) Capture(key string, items []item.Item) {
	snapshot := make([]item.Item, len(items))
	copy(snapshot, items)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.slots[key]; exists {
		m.logger.Debug("replacing pending snapshot", "bucket", key)
	}
	m.slots[key] = snapshot
}

// Consume removes and returns the snapshot for key. The second return
// reports whether a snapshot was present; a second consume of the same
// capture always reports false.
func (m *Manager) Consume(key string) ([]item.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot, ok := m.slots[key]
	if ok {
		delete(m.slots, key)
	}
	return snapshot, ok
}
