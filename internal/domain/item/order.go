package item

import (
	"sort"
	"time"
)

// SortForDisplay returns a copy of items ordered by ascending position.
// Equal positions keep their incoming order.
func SortForDisplay(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

// NormalizePositions reassigns positions to the contiguous sequence 1..N,
// preserving the existing relative order. Renumbering alone is not a field
// mutation: timestamps are left untouched.
func NormalizePositions(items []Item) []Item {
	out := SortForDisplay(items)
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

// IndexOf returns the index of the item with the given id, or -1.
func IndexOf(items []Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// Reorder rebuilds the bucket in the order given by idOrder: listed items
// first, in that order (ids not present in the bucket are skipped), then any
// unlisted items appended in their prior relative order. Positions are
// reassigned 1..N. UpdatedAt is refreshed at now for explicitly placed items
// whose position changed; unlisted items shift silently. The returned flag
// reports whether any position changed at all.
func Reorder(items []Item, idOrder []string, now time.Time) ([]Item, bool) {
	current := SortForDisplay(items)

	index := make(map[string]int, len(current))
	for i, it := range current {
		index[it.ID] = i
	}

	placed := make(map[string]bool, len(idOrder))
	next := make([]Item, 0, len(current))
	for _, id := range idOrder {
		i, ok := index[id]
		if !ok || placed[id] {
			continue
		}
		placed[id] = true
		next = append(next, current[i])
	}
	for _, it := range current {
		if !placed[it.ID] {
			next = append(next, it)
		}
	}

	changed := false
	for i := range next {
		pos := i + 1
		if next[i].Position == pos {
			continue
		}
		next[i].Position = pos
		changed = true
		if placed[next[i].ID] {
			next[i].UpdatedAt = now
		}
	}
	return next, changed
}
