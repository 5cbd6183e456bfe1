package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/domain"
)

func TestEnvelopesPartitionByDestination(t *testing.T) {
	at := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	activity := domain.Activity{ID: 12, DestinationID: 3, Title: "Alhambra", Position: 4, CreatedAt: at, UpdatedAt: at}

	envs := []Envelope{
		Added("user-1", activity),
		Updated("user-1", activity, domain.FieldWebLink),
		Reordered("user-1", 3, []int64{12, 9}, at),
		Deleted("user-1", activity, at),
	}
	for _, env := range envs {
		require.Equal(t, "3", env.PartitionKey, env.Type)
		require.Equal(t, "user-1", env.OwnerID)
		_, err := uuid.Parse(env.Key)
		require.NoError(t, err)
	}
	require.Equal(t, "12", envs[0].AggregateID)
	require.Equal(t, "3", envs[2].AggregateID)
}

func TestEnvelopeKeysAreUnique(t *testing.T) {
	a := domain.Activity{ID: 1, DestinationID: 1}
	require.NotEqual(t, Added("u", a).Key, Added("u", a).Key)
}

func TestPayloadCarriesEventKey(t *testing.T) {
	env := Deleted("user-1", domain.Activity{ID: 5, DestinationID: 2, Position: 1}, time.Now())
	payload, ok := env.Payload.(ActivityDeleted)
	require.True(t, ok)
	require.Equal(t, env.Key, payload.EventID)
	require.Equal(t, 1, payload.Position)
}

func TestSchemaSubject(t *testing.T) {
	require.Equal(t, "itinerary_activity_events-activity.deleted", SchemaSubject(DefaultTopic, TypeActivityDeleted))
}
