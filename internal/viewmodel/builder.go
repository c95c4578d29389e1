package viewmodel

import (
	"context"
	"fmt"

	"github.com/rpggio/docket/internal/clock"
	"github.com/rpggio/docket/internal/domain/item"
)

// Source is the read side of the item store the builder projects from.
type Source interface {
	Items(ctx context.Context, target item.Target) ([]item.Item, error)
	Workspaces(ctx context.Context) (map[string][]item.Item, error)
}

// Builder assembles snapshots from the store. It holds no state of its
// own beyond the catalog and clock, so one builder serves all surfaces.
type Builder struct {
	source  Source
	catalog Catalog
	clk     clock.Clock
}

// NewBuilder returns a builder over the given source. A nil clock falls
// back to the system clock.
func NewBuilder(source Source, catalog Catalog, clk clock.Clock) *Builder {
	if clk == nil {
		clk = clock.System()
	}
	return &Builder{source: source, catalog: catalog, clk: clk}
}

// Build reads every bucket and projects the full snapshot. The read is
// side-effect free and the result is detached from store state.
func (b *Builder) Build(ctx context.Context, framing Framing) (*Snapshot, error) {
	globalItems, err := b.source.Items(ctx, item.Global())
	if err != nil {
		return nil, fmt.Errorf("reading global bucket: %w", err)
	}
	partitions, err := b.source.Workspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading workspace buckets: %w", err)
	}

	snap := &Snapshot{
		GeneratedAt: b.clk.Now(),
		Global:      b.bucketView(item.Global(), globalItems, framing),
		Workspaces:  make(map[string]BucketView, len(partitions)),
		Strings:     b.catalog.Strings,
	}
	for partition, bucket := range partitions {
		target := item.Workspace(partition)
		snap.Workspaces[partition] = b.bucketView(target, bucket, framing)
	}
	return snap, nil
}

func (b *Builder) bucketView(target item.Target, items []item.Item, framing Framing) BucketView {
	ordered := item.SortForDisplay(items)
	views := make([]ItemView, len(ordered))
	for i, it := range ordered {
		views[i] = ItemView{
			ID:        it.ID,
			Title:     it.Title,
			Completed: it.Completed,
			Position:  it.Position,
			CreatedAt: it.CreatedAt,
			UpdatedAt: it.UpdatedAt,
		}
	}
	return BucketView{
		Label:     b.catalog.Label(target),
		EmptyText: b.catalog.EmptyText(framing.For(target.Key())),
		Items:     views,
	}
}
