// Package domain defines the business logic for itinerary activities.
package domain

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/observability"
)

const (
	maxTitleLength    = 200
	maxFreeTextLength = 5000
	maxWebLinkLength  = 2048
)

// ActivityRepository captures persistence operations. Implementations keep
// the positions of every destination contiguous and serialize mutations per
// destination. Get lookups return (nil, nil) when nothing matches.
type ActivityRepository interface {
	GetDestination(ctx context.Context, ownerID string, destinationID int64) (*Destination, error)
	AddActivity(ctx context.Context, ownerID string, activity Activity) (*Activity, error)
	ListActivities(ctx context.Context, ownerID string, destinationID int64) ([]Activity, error)
	GetActivity(ctx context.Context, ownerID string, activityID int64) (*Activity, error)
	UpdateActivity(ctx context.Context, ownerID string, activityID int64, update ActivityUpdate) (*Activity, error)
	ReorderActivities(ctx context.Context, ownerID string, destinationID int64, order []int64, at time.Time) ([]Activity, error)
	DeleteActivity(ctx context.Context, ownerID string, activityID int64, at time.Time) (*Activity, error)
}

// ListCache caches the ordered activity list of a destination. Every
// Invalidate bumps a per-destination generation. Get reports the generation
// current at read time, and Set stores a list only while that generation is
// still current, so a list read before a mutation cannot replace its invalidation.
type ListCache interface {
	Get(ctx context.Context, ownerID string, destinationID int64) (activities []Activity, generation int64, ok bool)
	Set(ctx context.Context, ownerID string, destinationID int64, generation int64, activities []Activity)
	Invalidate(ctx context.Context, ownerID string, destinationID int64) error
}

// Service orchestrates activity workflows.
type Service struct {
	repo   ActivityRepository
	cache  ListCache
	clock  clockwork.Clock
	logger *slog.Logger
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the clock used for timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService constructs a Service. A nil cache disables list caching.
func NewService(repo ActivityRepository, cache ListCache, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		cache:  cache,
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddActivityInput captures the payload from the API layer.
type AddActivityInput struct {
	DestinationID int64
	Title         string
	FreeText      string
	WebLink       string
}

// AddActivity appends a new activity to the end of a destination.
func (s *Service) AddActivity(ctx context.Context, ownerID string, input AddActivityInput) (*Activity, error) {
	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}
	freeText, err := normalizeFreeText(input.FreeText)
	if err != nil {
		return nil, err
	}
	webLink, err := normalizeWebLink(input.WebLink)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	created, err := s.repo.AddActivity(ctx, ownerID, Activity{
		DestinationID: input.DestinationID,
		Title:         title,
		FreeText:      freeText,
		WebLink:       webLink,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID, created.DestinationID)
	observability.RecordMutation(observability.OpAdd, created.UpdatedAt)
	return created, nil
}

// ListActivities returns the activities of a destination ordered by position.
func (s *Service) ListActivities(ctx context.Context, ownerID string, destinationID int64) ([]Activity, error) {
	dest, err := s.repo.GetDestination(ctx, ownerID, destinationID)
	if err != nil {
		return nil, err
	}
	if dest == nil {
		return nil, ErrDestinationNotFound
	}

	var generation int64
	if s.cache != nil {
		cached, gen, ok := s.cache.Get(ctx, ownerID, destinationID)
		if ok {
			return cached, nil
		}
		generation = gen
	}

	activities, err := s.repo.ListActivities(ctx, ownerID, destinationID)
	if err != nil {
		return nil, err
	}
	SortByPosition(activities)

	if s.cache != nil {
		s.cache.Set(ctx, ownerID, destinationID, generation, activities)
	}
	return activities, nil
}

// GetActivity fetches by ID.
func (s *Service) GetActivity(ctx context.Context, ownerID string, activityID int64) (*Activity, error) {
	activity, err := s.repo.GetActivity(ctx, ownerID, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}
	return activity, nil
}

// EditActivity changes the title.
func (s *Service) EditActivity(ctx context.Context, ownerID string, activityID int64, title string) (*Activity, error) {
	value, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, ownerID, activityID, FieldTitle, value)
}

// EditNotes changes the free text note.
func (s *Service) EditNotes(ctx context.Context, ownerID string, activityID int64, freeText string) (*Activity, error) {
	value, err := normalizeFreeText(freeText)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, ownerID, activityID, FieldFreeText, value)
}

// EditLink changes the web link. An empty link clears it.
func (s *Service) EditLink(ctx context.Context, ownerID string, activityID int64, webLink string) (*Activity, error) {
	value, err := normalizeWebLink(webLink)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, ownerID, activityID, FieldWebLink, value)
}

func (s *Service) update(ctx context.Context, ownerID string, activityID int64, field ActivityField, value string) (*Activity, error) {
	updated, err := s.repo.UpdateActivity(ctx, ownerID, activityID, ActivityUpdate{
		Field:     field,
		Value:     value,
		UpdatedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID, updated.DestinationID)
	observability.RecordMutation(observability.OpEdit, updated.UpdatedAt)
	return updated, nil
}

// ReorderActivities sets each activity's position to its index in order.
// order must list every activity of the destination exactly once.
func (s *Service) ReorderActivities(ctx context.Context, ownerID string, destinationID int64, order []int64) ([]Activity, error) {
	if order == nil {
		return nil, invalid("new_order", "is required")
	}

	now := s.clock.Now().UTC()
	activities, err := s.repo.ReorderActivities(ctx, ownerID, destinationID, order, now)
	if err != nil {
		return nil, err
	}
	SortByPosition(activities)

	s.invalidate(ctx, ownerID, destinationID)
	observability.RecordMutation(observability.OpReorder, now)
	return activities, nil
}

// DeleteActivity removes an activity and closes the gap it leaves.
func (s *Service) DeleteActivity(ctx context.Context, ownerID string, activityID int64) error {
	now := s.clock.Now().UTC()
	deleted, err := s.repo.DeleteActivity(ctx, ownerID, activityID, now)
	if err != nil {
		return err
	}

	s.invalidate(ctx, ownerID, deleted.DestinationID)
	observability.RecordMutation(observability.OpDelete, now)
	return nil
}

func (s *Service) invalidate(ctx context.Context, ownerID string, destinationID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID, destinationID); err != nil {
		s.logger.Warn("activity list cache invalidation failed",
			slog.Int64("destination_id", destinationID),
			slog.String("error", err.Error()))
	}
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalid("title", "is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", invalid("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	return title, nil
}

func normalizeFreeText(freeText string) (string, error) {
	if utf8.RuneCountInString(freeText) > maxFreeTextLength {
		return "", invalid("free_text", fmt.Sprintf("must be at most %d characters", maxFreeTextLength))
	}
	return freeText, nil
}

func normalizeWebLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", nil
	}
	if len(link) > maxWebLinkLength {
		return "", invalid("web_link", fmt.Sprintf("must be at most %d characters", maxWebLinkLength))
	}
	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", invalid("web_link", "must be an absolute http or https URL")
	}
	return link, nil
}
