// Package router turns intents into store mutations and pushes the
// resulting state back out. Every successful mutation ends in exactly one
// snapshot broadcast; declined or no-op intents broadcast nothing. A
// single mutex serializes all operations, so surfaces, agents, and timer
// callbacks never interleave mid-mutation.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rpggio/docket/internal/clock"
	"github.com/rpggio/docket/internal/domain/item"
	"github.com/rpggio/docket/internal/domain/sweep"
	"github.com/rpggio/docket/internal/protocol"
	"github.com/rpggio/docket/internal/viewmodel"
)

// undoWindow is how long a captured snapshot stays restorable after the
// undo offer goes unanswered.
const undoWindow = 10 * time.Second

// Settings are the behavior toggles the router reads at runtime.
type Settings struct {
	// ConfirmDestructive gates multi-item clears behind a confirmation.
	ConfirmDestructive bool
	// AutoDelete controls sweeping of completed items.
	AutoDelete sweep.Policy
}

// Config wires a Router. Store, Snapshots, Builder, and Poster are
// required; collaborators must be non-nil as well. Clock and Logger may
// be nil and default to the system clock and a discard logger.
type Config struct {
	Store      Store
	Snapshots  Snapshots
	Builder    SnapshotBuilder
	Poster     Poster
	Confirmer  Confirmer
	Notifier   Notifier
	Partitions PartitionResolver
	Clock      clock.Clock
	Catalog    viewmodel.Catalog
	Settings   Settings
	Logger     *slog.Logger
}

// ClearOutcome reports how a clear request concluded.
type ClearOutcome string

const (
	ClearDone         ClearOutcome = "cleared"
	ClearDeclined     ClearOutcome = "declined"
	ClearAlreadyEmpty ClearOutcome = "already_empty"
)

// Router owns the mutation paths. All exported operations are safe for
// concurrent use.
type Router struct {
	mu         sync.Mutex
	store      Store
	undo       Snapshots
	builder    SnapshotBuilder
	poster     Poster
	confirmer  Confirmer
	notifier   Notifier
	partitions PartitionResolver
	clk        clock.Clock
	catalog    viewmodel.Catalog
	settings   Settings
	sweeper    *sweep.Scheduler
	logger     *slog.Logger
}

// New builds a router and its removal scheduler.
func New(cfg Config) *Router {
	if cfg.Clock == nil {
		cfg.Clock = clock.System()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	r := &Router{
		store:      cfg.Store,
		undo:       cfg.Snapshots,
		builder:    cfg.Builder,
		poster:     cfg.Poster,
		confirmer:  cfg.Confirmer,
		notifier:   cfg.Notifier,
		partitions: cfg.Partitions,
		clk:        cfg.Clock,
		catalog:    cfg.Catalog,
		settings:   cfg.Settings,
		logger:     cfg.Logger,
	}
	r.sweeper = sweep.NewScheduler(cfg.Clock, r.sendFadeCue, r.removeFaded, cfg.Logger)
	return r
}

// Close cancels all pending removal chains and rejects new ones.
func (r *Router) Close() {
	r.sweeper.Dispose()
}

// ResolveTarget turns wire-level scope fields into a bucket target.
// Workspace intents without a partition key fall back to the active
// partition; global intents ignore any partition key.
func (r *Router) ResolveTarget(ctx context.Context, scope item.Scope, partitionKey string) (item.Target, error) {
	switch scope {
	case item.ScopeGlobal:
		return item.Global(), nil
	case item.ScopeWorkspace:
		if partitionKey != "" {
			return item.Workspace(partitionKey), nil
		}
		active, err := r.partitions.ActivePartition(ctx)
		if err != nil {
			return item.Target{}, fmt.Errorf("resolving active partition: %w", err)
		}
		if active == "" {
			return item.Target{}, item.ErrMissingPartition
		}
		return item.Workspace(active), nil
	default:
		return item.Target{}, fmt.Errorf("%w: %q", item.ErrInvalidScope, scope)
	}
}

// CreateItem appends a new item to the bucket and rebroadcasts. A blank
// title declines the mutation without a broadcast.
func (r *Router) CreateItem(ctx context.Context, target item.Target, title string) (*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	created, err := r.store.Create(ctx, target, title)
	if err != nil {
		return nil, err
	}
	if err := r.broadcastLocked(ctx, viewmodel.Framing{}); err != nil {
		return created, err
	}
	return created, nil
}

// EditItem retitles an existing item and rebroadcasts.
func (r *Router) EditItem(ctx context.Context, target item.Target, itemID, title string) (*item.Item, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return nil, item.ErrEmptyTitle
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	items, err := r.store.Items(ctx, target)
	if err != nil {
		return nil, err
	}
	idx := item.IndexOf(items, itemID)
	if idx < 0 {
		return nil, item.ErrItemNotFound
	}
	items[idx].Title = trimmed
	items[idx].UpdatedAt = r.clk.Now()
	persisted, err := r.store.Replace(ctx, target, items)
	if err != nil {
		return nil, err
	}
	updated := persisted[item.IndexOf(persisted, itemID)]
	if err := r.broadcastLocked(ctx, viewmodel.Framing{}); err != nil {
		return &updated, err
	}
	return &updated, nil
}

// ToggleComplete flips an item's completion state, then arms or cancels
// its auto-removal chain to match, and rebroadcasts.
func (r *Router) ToggleComplete(ctx context.Context, target item.Target, itemID string) (*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, err := r.store.Items(ctx, target)
	if err != nil {
		return nil, err
	}
	idx := item.IndexOf(items, itemID)
	if idx < 0 {
		return nil, item.ErrItemNotFound
	}
	items[idx].Completed = !items[idx].Completed
	items[idx].UpdatedAt = r.clk.Now()
	persisted, err := r.store.Replace(ctx, target, items)
	if err != nil {
		return nil, err
	}
	toggled := persisted[item.IndexOf(persisted, itemID)]

	if toggled.Completed {
		r.sweeper.Schedule(target, itemID, r.settings.AutoDelete)
	} else {
		r.sweeper.Cancel(target, itemID)
	}

	if err := r.broadcastLocked(ctx, viewmodel.Framing{}); err != nil {
		return &toggled, err
	}
	return &toggled, nil
}

// RemoveItem deletes one item, captures the pre-removal bucket for undo,
// rebroadcasts, and offers the undo affordance.
func (r *Router) RemoveItem(ctx context.Context, target item.Target, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, err := r.store.Items(ctx, target)
	if err != nil {
		return err
	}
	idx := item.IndexOf(items, itemID)
	if idx < 0 {
		return item.ErrItemNotFound
	}
	removedTitle := items[idx].Title

	r.sweeper.Cancel(target, itemID)
	r.undo.Capture(target.Key(), items)

	rest := append(items[:idx], items[idx+1:]...)
	if _, err := r.store.Replace(ctx, target, rest); err != nil {
		return err
	}
	r.offerUndo(target, r.catalog.RemovedNotice(removedTitle))
	return r.broadcastLocked(ctx, viewmodel.Framing{})
}

// Reorder applies an explicit id order to the bucket. It reports whether
// anything moved; an unchanged order is a no-op without a broadcast.
func (r *Router) Reorder(ctx context.Context, target item.Target, idOrder []string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, err := r.store.Items(ctx, target)
	if err != nil {
		return false, err
	}
	if len(items) <= 1 {
		return false, nil
	}
	next, changed := item.Reorder(items, idOrder, r.clk.Now())
	if !changed {
		return false, nil
	}
	if _, err := r.store.Replace(ctx, target, next); err != nil {
		return false, err
	}
	if err := r.broadcastLocked(ctx, viewmodel.Framing{}); err != nil {
		return true, err
	}
	return true, nil
}

// ClearScope empties the bucket. Multi-item clears go through the
// confirmer when configured; an already-empty bucket only raises a notice.
// A cleared bucket is captured for undo like a removal.
func (r *Router) ClearScope(ctx context.Context, target item.Target) (ClearOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, err := r.store.Items(ctx, target)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		r.notifier.Info(ctx, r.catalog.NoticeAlreadyEmpty)
		return ClearAlreadyEmpty, nil
	}
	label := r.catalog.Label(target)
	if r.settings.ConfirmDestructive && len(items) > 1 {
		approved, err := r.confirmer.Confirm(ctx, r.catalog.ConfirmClearPrompt(len(items), label))
		if err != nil {
			return "", fmt.Errorf("confirming clear: %w", err)
		}
		if !approved {
			return ClearDeclined, nil
		}
	}

	r.sweeper.CancelScope(target, items)
	r.undo.Capture(target.Key(), items)

	if _, err := r.store.Replace(ctx, target, nil); err != nil {
		return "", err
	}
	r.offerUndo(target, r.catalog.ClearedNotice(label))
	if err := r.broadcastLocked(ctx, viewmodel.Framing{}); err != nil {
		return ClearDone, err
	}
	return ClearDone, nil
}

// Ready handles a surface's readiness announcement by rebroadcasting the
// full state with first-render framing.
func (r *Router) Ready(ctx context.Context, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Debug("surface ready", "channel", channel)
	return r.broadcastLocked(ctx, viewmodel.Framing{Default: viewmodel.EmptyOnInit})
}

// State builds the current snapshot without broadcasting anything.
func (r *Router) State(ctx context.Context) (*viewmodel.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.builder.Build(ctx, viewmodel.Framing{})
}

// Items returns the bucket's items in display order.
func (r *Router) Items(ctx context.Context, target item.Target) ([]item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, err := r.store.Items(ctx, target)
	if err != nil {
		return nil, err
	}
	return item.SortForDisplay(items), nil
}

// RequestInlineCreate asks the bucket's surface to open its inline
// composer. No state changes and nothing is rebroadcast.
func (r *Router) RequestInlineCreate(ctx context.Context, target item.Target) error {
	if err := target.Validate(); err != nil {
		return err
	}
	return r.poster.Post(protocol.ChannelFor(target), protocol.Outbound{
		Kind:         protocol.KindStartInlineCreate,
		Scope:        target.Scope,
		PartitionKey: target.Partition,
	})
}

// RequestInlineEdit asks the bucket's surface to open inline editing for
// one existing item.
func (r *Router) RequestInlineEdit(ctx context.Context, target item.Target, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, err := r.store.Items(ctx, target)
	if err != nil {
		return err
	}
	if item.IndexOf(items, itemID) < 0 {
		return item.ErrItemNotFound
	}
	return r.poster.Post(protocol.ChannelFor(target), protocol.Outbound{
		Kind:         protocol.KindStartInlineEdit,
		Scope:        target.Scope,
		PartitionKey: target.Partition,
		ItemID:       itemID,
	})
}

// offerUndo raises the undo affordance off the mutation path. An accepted
// offer restores the captured snapshot; a declined or errored offer lets
// the snapshot expire once the undo window lapses.
func (r *Router) offerUndo(target item.Target, message string) {
	go func() {
		ctx := context.Background()
		accepted, err := r.notifier.OfferUndo(ctx, message, r.catalog.UndoLabel)
		if err != nil {
			r.logger.Warn("undo offer failed", "bucket", target.Key(), "error", err)
		}
		if accepted {
			if err := r.restoreSnapshot(ctx, target); err != nil {
				r.logger.Error("undo restore failed", "bucket", target.Key(), "error", err)
			}
			return
		}
		key := target.Key()
		r.clk.AfterFunc(undoWindow, func() {
			if _, ok := r.undo.Consume(key); ok {
				r.logger.Debug("undo window expired", "bucket", key)
			}
		})
	}()
}

// restoreSnapshot puts a consumed snapshot back as the bucket's content.
// A missing snapshot (already expired or restored) is a quiet no-op.
func (r *Router) restoreSnapshot(ctx context.Context, target item.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot, ok := r.undo.Consume(target.Key())
	if !ok {
		return nil
	}
	if _, err := r.store.Replace(ctx, target, snapshot); err != nil {
		return fmt.Errorf("restoring bucket: %w", err)
	}
	return r.broadcastLocked(ctx, viewmodel.Framing{})
}

// sendFadeCue is the scheduler's first-phase callback: tell the owning
// surface to start fading the item.
func (r *Router) sendFadeCue(target item.Target, itemID string, fade time.Duration) error {
	return r.poster.Post(protocol.ChannelFor(target), protocol.Outbound{
		Kind:         protocol.KindAutoDeleteCue,
		Scope:        target.Scope,
		PartitionKey: target.Partition,
		ItemID:       itemID,
		DurationMs:   int(fade / time.Millisecond),
	})
}

// removeFaded is the scheduler's second-phase callback. State may have
// moved on since the chain was armed, so the item is re-validated: it must
// still exist and still be completed, otherwise nothing happens. The
// removal rebroadcasts with completion framing and never captures undo.
func (r *Router) removeFaded(target item.Target, itemID string) error {
	ctx := context.Background()
	r.mu.Lock()
	defer r.mu.Unlock()
	items, err := r.store.Items(ctx, target)
	if err != nil {
		return fmt.Errorf("reading bucket: %w", err)
	}
	idx := item.IndexOf(items, itemID)
	if idx < 0 || !items[idx].Completed {
		return nil
	}
	rest := append(items[:idx], items[idx+1:]...)
	if _, err := r.store.Replace(ctx, target, rest); err != nil {
		return err
	}
	framing := viewmodel.Framing{
		Buckets: map[string]viewmodel.EmptyContext{
			target.Key(): viewmodel.EmptyAfterCompletion,
		},
	}
	return r.broadcastLocked(ctx, framing)
}

// broadcastLocked builds a snapshot and pushes it to every surface.
// Callers hold r.mu, which is what makes "exactly one broadcast per
// mutation" hold process-wide.
func (r *Router) broadcastLocked(ctx context.Context, framing viewmodel.Framing) error {
	snap, err := r.builder.Build(ctx, framing)
	if err != nil {
		return fmt.Errorf("building state snapshot: %w", err)
	}
	r.poster.Broadcast(protocol.Outbound{Kind: protocol.KindStateUpdate, Snapshot: snap})
	return nil
}
