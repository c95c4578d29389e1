package item

import "time"

// Scope identifies which top-level collection an item belongs to
type Scope string

const (
	// ScopeGlobal is the single profile-wide collection.
	ScopeGlobal Scope = "global"
	// ScopeWorkspace is the per-project collection, partitioned by folder.
	ScopeWorkspace Scope = "workspace"
)

// IsValid reports whether s is one of the two known scopes.
func (s Scope) IsValid() bool {
	return s == ScopeGlobal || s == ScopeWorkspace
}

// Target addresses one bucket: the global collection, or a single workspace
// partition.
type Target struct {
	Scope     Scope  `json:"scope"`
	Partition string `json:"partition,omitempty"`
}

// Global returns the target for the profile-wide bucket.
func Global() Target {
	return Target{Scope: ScopeGlobal}
}

// Workspace returns the target for one workspace partition.
func Workspace(partition string) Target {
	return Target{Scope: ScopeWorkspace, Partition: partition}
}

// Validate reports whether the target addresses a real bucket.
func (t Target) Validate() error {
	switch t.Scope {
	case ScopeGlobal:
		return nil
	case ScopeWorkspace:
		if t.Partition == "" {
			return ErrMissingPartition
		}
		return nil
	default:
		return ErrInvalidScope
	}
}

// Key returns the stable string form used to key undo slots and removal
// timers. Global is a single key; each workspace partition gets its own.
func (t Target) Key() string {
	if t.Scope == ScopeWorkspace {
		return string(ScopeWorkspace) + "/" + t.Partition
	}
	return string(ScopeGlobal)
}

// Item is a single task entry
type Item struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	Scope     Scope     `json:"scope"`
	Partition string    `json:"partition,omitempty"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
