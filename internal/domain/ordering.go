package domain

import (
	"cmp"
	"fmt"
	"slices"
)

// FirstPosition is the position of the first activity of a destination.
const FirstPosition = 0

// NextPosition returns the position of an activity appended to a destination
// that currently holds count activities.
func NextPosition(count int) int {
	if count < 0 {
		count = 0
	}
	return FirstPosition + count
}

// ValidateOrder checks that requested is a permutation of current.
func ValidateOrder(current, requested []int64) error {
	if len(current) != len(requested) {
		return fmt.Errorf("%w: expected %d activity ids, got %d", ErrInvalidOrder, len(current), len(requested))
	}

	known := make(map[int64]struct{}, len(current))
	for _, id := range current {
		known[id] = struct{}{}
	}

	seen := make(map[int64]struct{}, len(requested))
	for _, id := range requested {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: activity %d does not belong to this destination", ErrInvalidOrder, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: activity %d listed more than once", ErrInvalidOrder, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ApplyOrder returns a copy of activities where each position is the index of
// the activity in order, sorted by the new position. order must have passed
// ValidateOrder against the activity ids.
func ApplyOrder(activities []Activity, order []int64) []Activity {
	index := make(map[int64]int, len(order))
	for i, id := range order {
		index[id] = FirstPosition + i
	}

	out := slices.Clone(activities)
	for i := range out {
		if pos, ok := index[out[i].ID]; ok {
			out[i].Position = pos
		}
	}
	SortByPosition(out)
	return out
}

// Compact renumbers positions to FirstPosition..n-1 keeping the relative order.
func Compact(activities []Activity) []Activity {
	out := slices.Clone(activities)
	SortByPosition(out)
	for i := range out {
		out[i].Position = FirstPosition + i
	}
	return out
}

// SortByPosition sorts in place by position, then id.
func SortByPosition(activities []Activity) {
	slices.SortStableFunc(activities, func(a, b Activity) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// IsContiguous reports whether the positions are exactly FirstPosition..n-1.
func IsContiguous(activities []Activity) bool {
	seen := make([]bool, len(activities))
	for _, a := range activities {
		idx := a.Position - FirstPosition
		if idx < 0 || idx >= len(activities) || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

// IDs lists the activity ids in slice order.
func IDs(activities []Activity) []int64 {
	ids := make([]int64, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.ID)
	}
	return ids
}
