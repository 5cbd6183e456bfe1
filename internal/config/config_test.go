package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-0123456789")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddress)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "itinerary_activity_events", cfg.EventsTopic)
	assert.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 25, cfg.OutboxBatchSize)
	assert.Equal(t, time.Minute, cfg.DLQBaseDelay)
	assert.Equal(t, 10*time.Minute, cfg.ListCacheTTL)
	assert.True(t, cfg.RunMigrations)
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("OUTBOX_POLL_INTERVAL", "500ms")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, 500*time.Millisecond, cfg.OutboxPollInterval)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 0.0001)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"missing JWT_SECRET", "JWT_SECRET", "", "JWT_SECRET is required"},
		{"short JWT_SECRET", "JWT_SECRET", "short", "JWT_SECRET must be at least 16 characters"},
		{"unknown driver", "STORAGE_DRIVER", "sqlite", `STORAGE_DRIVER must be "postgres" or "memory", got "sqlite"`},
		{"zero batch", "OUTBOX_BATCH_SIZE", "0", "OUTBOX_BATCH_SIZE must be positive"},
		{"negative retries", "DLQ_MAX_RETRIES", "-1", "DLQ_MAX_RETRIES must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}
