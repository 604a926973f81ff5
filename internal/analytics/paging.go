package analytics

import (
	"sort"
)

// sortNewestFirst orders items descending by the timestamp key, stable for
// exact ties so repeated calls on the same input never reorder
// non-deterministically. Both reductions share this helper.
func sortNewestFirst[T any](items []T, at func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool {
		return at(items[i]) > at(items[j])
	})
}

// Page slices one fixed-size page out of an already sorted result.
// Pages are zero-indexed. An out-of-range page or non-positive page size
// yields an empty slice, never a panic; the final page may be short.
//
// Pagination is the caller's concern: the reductions return the full sorted
// view and the presentation layer slices it, so a changing data set only
// shifts page contents on the next full reduction, never mid-view.
func Page[T any](items []T, page, pageSize int) []T {
	if page < 0 || pageSize <= 0 {
		return []T{}
	}

	start := page * pageSize
	if start >= len(items) {
		return []T{}
	}

	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	return items[start:end]
}

// PageCount returns how many pages of the given size the result occupies.
// An empty result has zero pages.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Filter returns the items satisfying keep, preserving order.
// The input slice is never mutated.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
