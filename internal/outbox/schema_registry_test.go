package outbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaRegistryRegistersUnknownSubject(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, schemaRegistryContentType, r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "JSON", body["schemaType"])

		switch r.URL.Path {
		case "/subjects/itinerary_activity_events-activity.added":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error_code":40401}`))
		case "/subjects/itinerary_activity_events-activity.added/versions":
			_, _ = w.Write([]byte(`{"id":11}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewSchemaRegistryClient(srv.URL + "/")
	id, err := client.EnsureSchema(context.Background(), "itinerary_activity_events-activity.added", activityAddedSchema)
	require.NoError(t, err)
	require.Equal(t, 11, id)
	require.Len(t, paths, 2)
}

func TestSchemaRegistryReusesKnownSchema(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"subject":"s","id":5,"version":1}`))
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "s", activityDeletedSchema)
	require.NoError(t, err)
	require.Equal(t, 5, id)
	require.Equal(t, 1, calls)
}

func TestSchemaRegistryReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	_, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "s", activityUpdatedSchema)
	require.ErrorContains(t, err, "status=500")
}
