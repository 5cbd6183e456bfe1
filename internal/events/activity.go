// Package events defines the change events emitted for itinerary activities.
package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/domain"
)

// DefaultTopic is the Kafka topic activity events are published to.
const DefaultTopic = "itinerary_activity_events"

// AggregateType identifies activity events in the outbox.
const AggregateType = "activity"

// Kafka record headers carried by every published event.
const (
	HeaderEventType     = "event_type"
	HeaderEventKey      = "event_key"
	HeaderOwnerID       = "owner_id"
	HeaderSchemaSubject = "schema_subject"
)

// Event types.
const (
	TypeActivityAdded       = "activity.added"
	TypeActivityUpdated     = "activity.updated"
	TypeActivitiesReordered = "activity.reordered"
	TypeActivityDeleted     = "activity.deleted"
)

// ActivityAdded is emitted when an activity is appended to a destination.
type ActivityAdded struct {
	EventID       string    `json:"event_id"`
	ActivityID    int64     `json:"activity_id"`
	DestinationID int64     `json:"destination_id"`
	OwnerID       string    `json:"owner_id"`
	Title         string    `json:"title"`
	Position      int       `json:"position"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ActivityUpdated is emitted when a single field of an activity changes.
type ActivityUpdated struct {
	EventID       string    `json:"event_id"`
	ActivityID    int64     `json:"activity_id"`
	DestinationID int64     `json:"destination_id"`
	OwnerID       string    `json:"owner_id"`
	Field         string    `json:"field"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ActivitiesReordered carries the full new order of a destination.
type ActivitiesReordered struct {
	EventID       string    `json:"event_id"`
	DestinationID int64     `json:"destination_id"`
	OwnerID       string    `json:"owner_id"`
	Order         []int64   `json:"order"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ActivityDeleted is emitted after an activity is removed and its siblings compacted.
type ActivityDeleted struct {
	EventID       string    `json:"event_id"`
	ActivityID    int64     `json:"activity_id"`
	DestinationID int64     `json:"destination_id"`
	OwnerID       string    `json:"owner_id"`
	Position      int       `json:"position"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Envelope is an event ready to be written to the outbox.
type Envelope struct {
	Key          string
	Type         string
	OwnerID      string
	AggregateID  string
	PartitionKey string
	Payload      any
}

// Added builds the envelope for a newly added activity.
func Added(ownerID string, a domain.Activity) Envelope {
	key := uuid.NewString()
	return envelope(key, TypeActivityAdded, ownerID, a.ID, a.DestinationID, ActivityAdded{
		EventID:       key,
		ActivityID:    a.ID,
		DestinationID: a.DestinationID,
		OwnerID:       ownerID,
		Title:         a.Title,
		Position:      a.Position,
		OccurredAt:    a.CreatedAt,
	})
}

// Updated builds the envelope for a field edit.
func Updated(ownerID string, a domain.Activity, field domain.ActivityField) Envelope {
	key := uuid.NewString()
	return envelope(key, TypeActivityUpdated, ownerID, a.ID, a.DestinationID, ActivityUpdated{
		EventID:       key,
		ActivityID:    a.ID,
		DestinationID: a.DestinationID,
		OwnerID:       ownerID,
		Field:         string(field),
		OccurredAt:    a.UpdatedAt,
	})
}

// Reordered builds the envelope for a reorder of a destination.
func Reordered(ownerID string, destinationID int64, order []int64, at time.Time) Envelope {
	key := uuid.NewString()
	return envelope(key, TypeActivitiesReordered, ownerID, destinationID, destinationID, ActivitiesReordered{
		EventID:       key,
		DestinationID: destinationID,
		OwnerID:       ownerID,
		Order:         order,
		OccurredAt:    at,
	})
}

// Deleted builds the envelope for a removed activity.
func Deleted(ownerID string, a domain.Activity, at time.Time) Envelope {
	key := uuid.NewString()
	return envelope(key, TypeActivityDeleted, ownerID, a.ID, a.DestinationID, ActivityDeleted{
		EventID:       key,
		ActivityID:    a.ID,
		DestinationID: a.DestinationID,
		OwnerID:       ownerID,
		Position:      a.Position,
		OccurredAt:    at,
	})
}

// Events of one destination share a partition so consumers see them in order.
func envelope(key, eventType, ownerID string, aggregateID, destinationID int64, payload any) Envelope {
	return Envelope{
		Key:          key,
		Type:         eventType,
		OwnerID:      ownerID,
		AggregateID:  strconv.FormatInt(aggregateID, 10),
		PartitionKey: strconv.FormatInt(destinationID, 10),
		Payload:      payload,
	}
}

// SchemaSubject names the schema registry subject of an event type on a topic.
// Each event type registers its own schema, so subjects follow the topic-record naming strategy.
func SchemaSubject(topic, eventType string) string {
	return topic + "-" + eventType
}
