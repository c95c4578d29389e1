package repository

import (
	"context"
	"time"
)

// Envelope versions. A stored payload whose version does not match is
// treated as absent rather than migrated.
const (
	GlobalVersion    = 1
	WorkspaceVersion = 1
)

// StoredItem is the persisted form of a task item. Scope and partition are
// implied by the slot and partition key it is stored under, and are
// reconstructed on read.
type StoredItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GlobalEnvelope is the payload held in the global slot.
type GlobalEnvelope struct {
	Version int          `json:"version"`
	Items   []StoredItem `json:"items"`
}

// WorkspaceEnvelope is the payload held in the workspace slot. Partitions
// map a workspace folder identity to its item list; a cleared partition
// keeps its key with an empty list.
type WorkspaceEnvelope struct {
	Version    int                     `json:"version"`
	Partitions map[string][]StoredItem `json:"partitions"`
}

// Mementos is the durable two-slot store backing the task collections.
// Reads never fail on missing data: an absent slot or a version mismatch
// yields an empty envelope at the current version. Callers serialize writes
// per slot.
type Mementos interface {
	ReadGlobal(ctx context.Context) (GlobalEnvelope, error)
	WriteGlobal(ctx context.Context, env GlobalEnvelope) error
	ReadWorkspace(ctx context.Context) (WorkspaceEnvelope, error)
	WriteWorkspace(ctx context.Context, env WorkspaceEnvelope) error
}
