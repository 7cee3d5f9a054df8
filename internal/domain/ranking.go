package domain

import (
	"fmt"
	"sort"
)

// Collection names one of the manually-orderable record sets. Each
// collection keeps its members' SortRank values densely packed as
// 0..n-1 after every successful reorder.
type Collection string

const (
	CollectionItems      Collection = "items"
	CollectionCategories Collection = "categories"
	CollectionSuppliers  Collection = "suppliers"
	CollectionLocations  Collection = "locations"
)

// Valid reports whether c names a known collection.
func (c Collection) Valid() bool {
	switch c {
	case CollectionItems, CollectionCategories, CollectionSuppliers, CollectionLocations:
		return true
	}
	return false
}

// RankedRecord is the rank-relevant view of a collection member.
type RankedRecord struct {
	ID       int
	Name     string
	SortRank int
}

// Reorder moves the element at from to position to with list-splice
// semantics: remove, then reinsert. The input is the current
// rank-sorted view of the collection; the returned slice is the new
// total order, to be persisted as rank = index for every member so
// that gaps left by earlier deletions are renormalized away.
func Reorder(ids []int, from, to int) ([]int, error) {
	n := len(ids)
	if from < 0 || from >= n {
		return nil, &ValidationError{Field: "from", Message: fmt.Sprintf("index %d out of range [0,%d)", from, n)}
	}
	if to < 0 || to >= n {
		return nil, &ValidationError{Field: "to", Message: fmt.Sprintf("index %d out of range [0,%d)", to, n)}
	}

	moved := ids[from]
	rest := make([]int, 0, n-1)
	rest = append(rest, ids[:from]...)
	rest = append(rest, ids[from+1:]...)

	out := make([]int, 0, n)
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	return out, nil
}

// AutoSortKey pairs a member id with its comparison keys for an
// auto-sort pass.
type AutoSortKey struct {
	ID      int
	Primary string
	Name    string
}

// OrderByKeys returns the ids ordered by Primary (case-sensitive),
// tie-broken by Name ascending, so repeated runs on unchanged data
// produce the same order. The result feeds a bulk rank assignment.
func OrderByKeys(keys []AutoSortKey) []int {
	sorted := make([]AutoSortKey, len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Primary != sorted[j].Primary {
			return sorted[i].Primary < sorted[j].Primary
		}
		return sorted[i].Name < sorted[j].Name
	})

	ids := make([]int, len(sorted))
	for i, k := range sorted {
		ids[i] = k.ID
	}
	return ids
}
