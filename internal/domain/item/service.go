package item

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/docket/internal/clock"
	"github.com/rpggio/docket/internal/repository"
)

// Store provides bucket-level task persistence. All writes funnel through
// Replace, which renormalizes positions before persisting, so stored buckets
// always hold contiguous positions 1..N. Callers serialize writes per
// bucket; the store itself does not lock.
type Store struct {
	repo   repository.Mementos
	clock  clock.Clock
	logger *slog.Logger
}

// NewStore creates a new item store
func NewStore(repo repository.Mementos, clk clock.Clock, logger *slog.Logger) *Store {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{repo: repo, clock: clk, logger: logger}
}

// Items returns all items in the target bucket, in persisted order.
func (s *Store) Items(ctx context.Context, target Target) ([]Item, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	switch target.Scope {
	case ScopeGlobal:
		env, err := s.repo.ReadGlobal(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading global slot: %w", err)
		}
		return fromStored(env.Items, target), nil
	default:
		env, err := s.repo.ReadWorkspace(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading workspace slot: %w", err)
		}
		return fromStored(env.Partitions[target.Partition], target), nil
	}
}

// Workspaces returns every workspace partition with its items, keyed by
// partition. Cleared partitions appear with an empty slice.
func (s *Store) Workspaces(ctx context.Context) (map[string][]Item, error) {
	env, err := s.repo.ReadWorkspace(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading workspace slot: %w", err)
	}
	out := make(map[string][]Item, len(env.Partitions))
	for partition, stored := range env.Partitions {
		out[partition] = fromStored(stored, Workspace(partition))
	}
	return out, nil
}

// Partitions returns the known workspace partition keys, sorted.
func (s *Store) Partitions(ctx context.Context) ([]string, error) {
	env, err := s.repo.ReadWorkspace(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading workspace slot: %w", err)
	}
	keys := make([]string, 0, len(env.Partitions))
	for partition := range env.Partitions {
		keys = append(keys, partition)
	}
	sort.Strings(keys)
	return keys, nil
}

// Create appends a new active item to the end of the target bucket and
// persists. The title is trimmed; an empty result is rejected. The returned
// item carries its persisted position.
func (s *Store) Create(ctx context.Context, target Target, title string) (*Item, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	items, err := s.Items(ctx, target)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	created := Item{
		ID:        uuid.NewString(),
		Title:     title,
		Scope:     target.Scope,
		Partition: target.Partition,
		Position:  maxPosition(items) + 1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	persisted, err := s.Replace(ctx, target, append(items, created))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("item created", "bucket", target.Key(), "item", created.ID)
	for i := range persisted {
		if persisted[i].ID == created.ID {
			return &persisted[i], nil
		}
	}
	return &created, nil
}

// Replace is the single write path for a bucket: it renormalizes positions
// to 1..N and persists the result, returning the normalized items.
func (s *Store) Replace(ctx context.Context, target Target, items []Item) ([]Item, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	normalized := NormalizePositions(items)

	switch target.Scope {
	case ScopeGlobal:
		env := repository.GlobalEnvelope{
			Version: repository.GlobalVersion,
			Items:   toStored(normalized),
		}
		if err := s.repo.WriteGlobal(ctx, env); err != nil {
			return nil, fmt.Errorf("writing global slot: %w", err)
		}
	default:
		env, err := s.repo.ReadWorkspace(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading workspace slot: %w", err)
		}
		if env.Partitions == nil {
			env.Partitions = make(map[string][]repository.StoredItem)
		}
		env.Version = repository.WorkspaceVersion
		env.Partitions[target.Partition] = toStored(normalized)
		if err := s.repo.WriteWorkspace(ctx, env); err != nil {
			return nil, fmt.Errorf("writing workspace slot: %w", err)
		}
	}
	return normalized, nil
}

func maxPosition(items []Item) int {
	max := 0
	for _, it := range items {
		if it.Position > max {
			max = it.Position
		}
	}
	return max
}

func toStored(items []Item) []repository.StoredItem {
	stored := make([]repository.StoredItem, len(items))
	for i, it := range items {
		stored[i] = repository.StoredItem{
			ID:        it.ID,
			Title:     it.Title,
			Completed: it.Completed,
			Position:  it.Position,
			CreatedAt: it.CreatedAt,
			UpdatedAt: it.UpdatedAt,
		}
	}
	return stored
}

func fromStored(stored []repository.StoredItem, target Target) []Item {
	items := make([]Item, len(stored))
	for i, st := range stored {
		items[i] = Item{
			ID:        st.ID,
			Title:     st.Title,
			Completed: st.Completed,
			Scope:     target.Scope,
			Partition: target.Partition,
			Position:  st.Position,
			CreatedAt: st.CreatedAt,
			UpdatedAt: st.UpdatedAt,
		}
	}
	return items
}
