package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/domain"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/persistence/memory"
)

const owner = "user-1"

type fixture struct {
	service *domain.Service
	store   *memory.Store
	cache   *mapCache
	clock   *clockwork.FakeClock
	dest    domain.Destination
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	dest, err := memory.SeedDemo(context.Background(), store, owner)
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC))
	cache := newMapCache()
	return fixture{
		service: domain.NewService(store, cache, domain.WithClock(clock)),
		store:   store,
		cache:   cache,
		clock:   clock,
		dest:    dest,
	}
}

func TestAddActivityAppendsAtEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.AddActivity(ctx, owner, domain.AddActivityInput{
		DestinationID: f.dest.ID,
		Title:         "  Sainte-Chapelle ",
		WebLink:       "https://www.sainte-chapelle.fr",
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), created.ID)
	require.Equal(t, 6, created.Position)
	require.Equal(t, f.dest.ID, created.DestinationID)
	require.Equal(t, "Sainte-Chapelle", created.Title)
	require.Equal(t, f.clock.Now(), created.CreatedAt)
}

func TestAddActivityValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input domain.AddActivityInput
		field string
	}{
		{name: "blank title", input: domain.AddActivityInput{DestinationID: f.dest.ID, Title: "   "}, field: "title"},
		{name: "relative link", input: domain.AddActivityInput{DestinationID: f.dest.ID, Title: "Pont Neuf", WebLink: "/pont-neuf"}, field: "web_link"},
		{name: "ftp link", input: domain.AddActivityInput{DestinationID: f.dest.ID, Title: "Pont Neuf", WebLink: "ftp://example.com"}, field: "web_link"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.AddActivity(ctx, owner, tc.input)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestAddActivityUnknownDestination(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.AddActivity(context.Background(), owner, domain.AddActivityInput{DestinationID: 999, Title: "Somewhere"})
	require.ErrorIs(t, err, domain.ErrDestinationNotFound)

	_, err = f.service.AddActivity(context.Background(), "someone-else", domain.AddActivityInput{DestinationID: f.dest.ID, Title: "Somewhere"})
	require.ErrorIs(t, err, domain.ErrDestinationNotFound)
}

func TestListActivitiesUsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.ListActivities(ctx, owner, f.dest.ID)
	require.NoError(t, err)
	require.Len(t, first, 6)
	require.Equal(t, 1, f.cache.sets)

	_, err = f.service.ListActivities(ctx, owner, f.dest.ID)
	require.NoError(t, err)
	require.Equal(t, 1, f.cache.hits)
	require.Equal(t, 1, f.cache.sets)
}

func TestMutationsInvalidateCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.service.ListActivities(ctx, owner, f.dest.ID)
	require.NoError(t, err)

	_, err = f.service.EditNotes(ctx, owner, list[0].ID, "bring water")
	require.NoError(t, err)
	require.Equal(t, 1, f.cache.invalidations)

	refreshed, err := f.service.ListActivities(ctx, owner, f.dest.ID)
	require.NoError(t, err)
	require.Equal(t, "bring water", refreshed[0].FreeText)
}

func TestEditChangesOnlyTargetField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	list, err := f.service.ListActivities(ctx, owner, f.dest.ID)
	require.NoError(t, err)
	original := list[0]

	f.clock.Advance(time.Hour)

	edited, err := f.service.EditActivity(ctx, owner, original.ID, "Eiffel Tower summit")
	require.NoError(t, err)
	require.Equal(t, "Eiffel Tower summit", edited.Title)
	require.Equal(t, original.FreeText, edited.FreeText)
	require.Equal(t, original.WebLink, edited.WebLink)
	require.Equal(t, original.Position, edited.Position)
	require.Equal(t, f.clock.Now(), edited.UpdatedAt)

	linked, err := f.service.EditLink(ctx, owner, original.ID, "")
	require.NoError(t, err)
	require.Empty(t, linked.WebLink)
	require.Equal(t, "Eiffel Tower summit", linked.Title)
}

func TestEditUnknownActivity(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.EditNotes(context.Background(), owner, 12345, "x")
	require.ErrorIs(t, err, domain.ErrActivityNotFound)
}

func TestReorderActivities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	list, err := f.service.ListActivities(ctx, owner, f.dest.ID)
	require.NoError(t, err)

	ids := domain.IDs(list)
	newOrder := []int64{ids[5], ids[0], ids[4], ids[1], ids[3], ids[2]}

	reordered, err := f.service.ReorderActivities(ctx, owner, f.dest.ID, newOrder)
	require.NoError(t, err)
	require.Equal(t, newOrder, domain.IDs(reordered))

	stored, err := f.store.ListActivities(ctx, owner, f.dest.ID)
	require.NoError(t, err)
	require.Equal(t, newOrder, domain.IDs(stored))
	require.True(t, domain.IsContiguous(stored))
}

func TestReorderRejectsMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.ReorderActivities(ctx, owner, f.dest.ID, []int64{1, 2, 3})
	require.ErrorIs(t, err, domain.ErrInvalidOrder)

	_, err = f.service.ReorderActivities(ctx, owner, f.dest.ID, nil)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
}

func TestDeleteActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	list, err := f.service.ListActivities(ctx, owner, f.dest.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteActivity(ctx, owner, list[0].ID))

	_, err = f.service.GetActivity(ctx, owner, list[0].ID)
	require.ErrorIs(t, err, domain.ErrActivityNotFound)

	remaining, err := f.service.ListActivities(ctx, owner, f.dest.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 5)
	require.True(t, domain.IsContiguous(remaining))

	require.ErrorIs(t, f.service.DeleteActivity(ctx, owner, list[0].ID), domain.ErrActivityNotFound)
}

type mapCache struct {
	entries       map[string][]domain.Activity
	generations   map[string]int64
	hits          int
	sets          int
	invalidations int
}

func newMapCache() *mapCache {
	return &mapCache{
		entries:     make(map[string][]domain.Activity),
		generations: make(map[string]int64),
	}
}

func cacheKey(ownerID string, destinationID int64) string {
	return fmt.Sprintf("%s:%d", ownerID, destinationID)
}

func (c *mapCache) Get(_ context.Context, ownerID string, destinationID int64) ([]domain.Activity, int64, bool) {
	key := cacheKey(ownerID, destinationID)
	list, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return list, c.generations[key], ok
}

func (c *mapCache) Set(_ context.Context, ownerID string, destinationID int64, generation int64, activities []domain.Activity) {
	key := cacheKey(ownerID, destinationID)
	if c.generations[key] != generation {
		return
	}
	c.sets++
	c.entries[key] = activities
}

func (c *mapCache) Invalidate(_ context.Context, ownerID string, destinationID int64) error {
	key := cacheKey(ownerID, destinationID)
	c.invalidations++
	c.generations[key]++
	delete(c.entries, key)
	return nil
}

// reorderingStore commits a reorder through the service right after the first
// list read, so that read is stale by the time the service caches it.
type reorderingStore struct {
	*memory.Store
	service *domain.Service
	order   []int64
	fired   bool
}

func (s *reorderingStore) ListActivities(ctx context.Context, ownerID string, destinationID int64) ([]domain.Activity, error) {
	list, err := s.Store.ListActivities(ctx, ownerID, destinationID)
	if err != nil || s.fired {
		return list, err
	}
	s.fired = true
	if _, err := s.service.ReorderActivities(ctx, ownerID, destinationID, s.order); err != nil {
		return nil, err
	}
	return list, nil
}

func TestListActivitiesDoesNotCacheListReadBeforeReorder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	dest, err := memory.SeedDemo(ctx, store, owner)
	require.NoError(t, err)

	wrapped := &reorderingStore{Store: store, order: []int64{6, 5, 4, 3, 2, 1}}
	cache := newMapCache()
	service := domain.NewService(wrapped, cache)
	wrapped.service = service

	first, err := service.ListActivities(ctx, owner, dest.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6}, domain.IDs(first), "the in-flight read predates the reorder")
	require.Zero(t, cache.sets, "the stale read must not be cached")

	second, err := service.ListActivities(ctx, owner, dest.ID)
	require.NoError(t, err)
	require.Equal(t, wrapped.order, domain.IDs(second))

	third, err := service.ListActivities(ctx, owner, dest.ID)
	require.NoError(t, err)
	require.Equal(t, wrapped.order, domain.IDs(third))
	require.Equal(t, 1, cache.hits)
}
