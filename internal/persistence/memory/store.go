// Package memory provides an in-memory activity store for local development and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/domain"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/events"
)

// maxEvents bounds the change events a Store keeps; older events are dropped first.
const maxEvents = 1024

// Store keeps destinations and activities in maps guarded by one mutex, which
// serializes every mutation.
type Store struct {
	mu           sync.RWMutex
	nextDestID   int64
	nextActID    int64
	destinations map[int64]domain.Destination
	activities   map[int64]domain.Activity
	events       []events.Envelope
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		destinations: make(map[int64]domain.Destination),
		activities:   make(map[int64]domain.Activity),
	}
}

// AddDestination registers a destination owned by ownerID.
func (s *Store) AddDestination(ownerID, name string) domain.Destination {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDestID++
	dest := domain.Destination{ID: s.nextDestID, OwnerID: ownerID, Name: name}
	s.destinations[dest.ID] = dest
	return dest
}

// Events returns the most recent change events, oldest first.
func (s *Store) Events() []events.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]events.Envelope, len(s.events))
	copy(out, s.events)
	return out
}

// GetDestination implements domain.ActivityRepository.
func (s *Store) GetDestination(ctx context.Context, ownerID string, destinationID int64) (*domain.Destination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dest, ok := s.destinations[destinationID]
	if !ok || dest.OwnerID != ownerID {
		return nil, nil
	}
	return &dest, nil
}

// AddActivity implements domain.ActivityRepository.
func (s *Store) AddActivity(ctx context.Context, ownerID string, activity domain.Activity) (*domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ownsDestination(ownerID, activity.DestinationID) {
		return nil, domain.ErrDestinationNotFound
	}

	s.nextActID++
	activity.ID = s.nextActID
	activity.Position = domain.NextPosition(len(s.siblings(activity.DestinationID)))
	s.activities[activity.ID] = activity
	s.record(events.Added(ownerID, activity))

	return &activity, nil
}

// ListActivities implements domain.ActivityRepository.
func (s *Store) ListActivities(ctx context.Context, ownerID string, destinationID int64) ([]domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ownsDestination(ownerID, destinationID) {
		return []domain.Activity{}, nil
	}
	return s.siblings(destinationID), nil
}

// GetActivity implements domain.ActivityRepository.
func (s *Store) GetActivity(ctx context.Context, ownerID string, activityID int64) (*domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activity, ok := s.lookup(ownerID, activityID)
	if !ok {
		return nil, nil
	}
	return &activity, nil
}

// UpdateActivity implements domain.ActivityRepository.
func (s *Store) UpdateActivity(ctx context.Context, ownerID string, activityID int64, update domain.ActivityUpdate) (*domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	activity, ok := s.lookup(ownerID, activityID)
	if !ok {
		return nil, domain.ErrActivityNotFound
	}

	activity = update.Apply(activity)
	s.activities[activity.ID] = activity
	s.record(events.Updated(ownerID, activity, update.Field))
	return &activity, nil
}

// ReorderActivities implements domain.ActivityRepository.
func (s *Store) ReorderActivities(ctx context.Context, ownerID string, destinationID int64, order []int64, at time.Time) ([]domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ownsDestination(ownerID, destinationID) {
		return nil, domain.ErrDestinationNotFound
	}

	current := s.siblings(destinationID)
	if err := domain.ValidateOrder(domain.IDs(current), order); err != nil {
		return nil, err
	}

	reordered := domain.ApplyOrder(current, order)
	previous := make(map[int64]int, len(current))
	for _, a := range current {
		previous[a.ID] = a.Position
	}
	for i := range reordered {
		if reordered[i].Position != previous[reordered[i].ID] {
			reordered[i].UpdatedAt = at
		}
		s.activities[reordered[i].ID] = reordered[i]
	}
	s.record(events.Reordered(ownerID, destinationID, domain.IDs(reordered), at))

	return reordered, nil
}

// DeleteActivity implements domain.ActivityRepository.
func (s *Store) DeleteActivity(ctx context.Context, ownerID string, activityID int64, at time.Time) (*domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	activity, ok := s.lookup(ownerID, activityID)
	if !ok {
		return nil, domain.ErrActivityNotFound
	}

	delete(s.activities, activityID)
	for _, sibling := range domain.Compact(s.siblings(activity.DestinationID)) {
		s.activities[sibling.ID] = sibling
	}
	s.record(events.Deleted(ownerID, activity, at))

	return &activity, nil
}

// record appends a change event, trimming the oldest beyond maxEvents. Callers hold the lock.
func (s *Store) record(env events.Envelope) {
	s.events = append(s.events, env)
	if over := len(s.events) - maxEvents; over > 0 {
		s.events = slices.Delete(s.events, 0, over)
	}
}

func (s *Store) ownsDestination(ownerID string, destinationID int64) bool {
	dest, ok := s.destinations[destinationID]
	return ok && dest.OwnerID == ownerID
}

func (s *Store) lookup(ownerID string, activityID int64) (domain.Activity, bool) {
	activity, ok := s.activities[activityID]
	if !ok || !s.ownsDestination(ownerID, activity.DestinationID) {
		return domain.Activity{}, false
	}
	return activity, true
}

// siblings returns the activities of a destination sorted by position. Callers hold the lock.
func (s *Store) siblings(destinationID int64) []domain.Activity {
	out := make([]domain.Activity, 0)
	for _, a := range s.activities {
		if a.DestinationID == destinationID {
			out = append(out, a)
		}
	}
	domain.SortByPosition(out)
	return out
}
