//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/domain"
)

func startRedisCache(t *testing.T, ctx context.Context) *RedisListCache {
	t.Helper()

	container, err := rediscontainer.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	rdb, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisListCache(rdb, time.Minute, nil)
}

func TestRedisListCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := startRedisCache(t, ctx)

	_, gen, ok := c.Get(ctx, "user-1", 1)
	require.False(t, ok)
	require.Zero(t, gen)

	list := []domain.Activity{
		{ID: 1, DestinationID: 1, Title: "Eiffel Tower", Position: 0},
		{ID: 2, DestinationID: 1, Title: "Louvre Museum", Position: 1},
	}
	c.Set(ctx, "user-1", 1, gen, list)

	cached, _, ok := c.Get(ctx, "user-1", 1)
	require.True(t, ok)
	require.Equal(t, []int64{1, 2}, domain.IDs(cached))

	_, _, ok = c.Get(ctx, "user-2", 1)
	require.False(t, ok, "entries are scoped per owner")

	require.NoError(t, c.Invalidate(ctx, "user-1", 1))
	_, gen, ok = c.Get(ctx, "user-1", 1)
	require.False(t, ok)
	require.Equal(t, int64(1), gen)
}

func TestRedisListCacheDropsListReadBeforeInvalidate(t *testing.T) {
	ctx := context.Background()
	c := startRedisCache(t, ctx)

	stale := []domain.Activity{{ID: 1, Position: 0}, {ID: 2, Position: 1}}
	fresh := []domain.Activity{{ID: 2, Position: 0}, {ID: 1, Position: 1}}

	_, readGen, ok := c.Get(ctx, "user-1", 1)
	require.False(t, ok)

	// A reorder commits and invalidates while the stale list is still in flight.
	require.NoError(t, c.Invalidate(ctx, "user-1", 1))
	c.Set(ctx, "user-1", 1, readGen, stale)

	_, currentGen, ok := c.Get(ctx, "user-1", 1)
	require.False(t, ok, "a list read under an old generation is not cached")
	require.Greater(t, currentGen, readGen)

	c.Set(ctx, "user-1", 1, currentGen, fresh)
	cached, _, ok := c.Get(ctx, "user-1", 1)
	require.True(t, ok)
	require.Equal(t, []int64{2, 1}, domain.IDs(cached))
}
