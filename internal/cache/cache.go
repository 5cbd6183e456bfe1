// Package cache provides list caches for destination activities.
package cache

import (
	"context"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/domain"
)

// Noop never stores anything; every Get is a miss.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, string, int64) ([]domain.Activity, int64, bool) {
	return nil, 0, false
}

// Set performs no action.
func (Noop) Set(context.Context, string, int64, int64, []domain.Activity) {}

// Invalidate performs no action.
func (Noop) Invalidate(context.Context, string, int64) error { return nil }
