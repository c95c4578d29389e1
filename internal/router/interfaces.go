package router

import (
	"context"

	"github.com/rpggio/docket/internal/domain/item"
	"github.com/rpggio/docket/internal/protocol"
	"github.com/rpggio/docket/internal/viewmodel"
)

// Store is the item persistence surface the router mutates through.
type Store interface {
	Items(ctx context.Context, target item.Target) ([]item.Item, error)
	Create(ctx context.Context, target item.Target, title string) (*item.Item, error)
	Replace(ctx context.Context, target item.Target, items []item.Item) ([]item.Item, error)
}

// Snapshots is the single-slot undo stash.
type Snapshots interface {
	Capture(key string, items []item.Item)
	Consume(key string) ([]item.Item, bool)
}

// SnapshotBuilder projects store state into the display snapshot.
type SnapshotBuilder interface {
	Build(ctx context.Context, framing viewmodel.Framing) (*viewmodel.Snapshot, error)
}

// Poster pushes outbound messages to display surfaces.
type Poster interface {
	Post(channel string, msg protocol.Outbound) error
	Broadcast(msg protocol.Outbound)
}

// Confirmer asks the user to approve a destructive operation. It is
// called in the middle of a message-handling turn and must not call back
// into the router.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Notifier raises user-facing notices. OfferUndo blocks until the user
// reacts or the notification's own display window lapses, and reports
// whether the undo action was chosen.
type Notifier interface {
	Info(ctx context.Context, message string)
	OfferUndo(ctx context.Context, message, action string) (bool, error)
}

// PartitionResolver names the currently active workspace partition, used
// when an intent targets workspace scope without naming a partition.
type PartitionResolver interface {
	ActivePartition(ctx context.Context) (string, error)
}
