// Package outbox delivers activity events recorded in the outbox table to Kafka.
package outbox

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/events"
)

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

// SchemaRegistrar resolves the schema ID used to frame a payload.
type SchemaRegistrar interface {
	EnsureSchema(ctx context.Context, subject, schema string) (int, error)
}

// Dispatcher drains the outbox table and delivers events to Kafka.
type Dispatcher struct {
	pool             *pgxpool.Pool
	producer         messageWriter
	registry         SchemaRegistrar
	dlq              *DLQWriter
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	retryBaseDelay   time.Duration
	schemaIDCache    sync.Map
	shutdownComplete chan struct{}
}

// DispatcherOption configures optional behaviour for the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRegistry sets the schema registry used to frame payloads.
func WithRegistry(registry SchemaRegistrar) DispatcherOption {
	return func(d *Dispatcher) {
		if registry != nil {
			d.registry = registry
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithPolling sets the poll interval and the maximum number of events claimed per batch.
func WithPolling(interval time.Duration, batchSize int) DispatcherOption {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.pollInterval = interval
		}
		if batchSize > 0 {
			d.batchSize = batchSize
		}
	}
}

// WithRetryBaseDelay sets the backoff base for events that fail again after a DLQ replay.
func WithRetryBaseDelay(delay time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.retryBaseDelay = delay
	}
}

// NewDispatcher constructs a Dispatcher. Without a registry payloads are framed with schema ID 0.
func NewDispatcher(pool *pgxpool.Pool, producer messageWriter, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		pool:             pool,
		producer:         producer,
		registry:         NoopRegistry{},
		logger:           slog.Default(),
		pollInterval:     2 * time.Second,
		batchSize:        25,
		retryBaseDelay:   time.Minute,
		shutdownComplete: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.dlq = NewDLQWriter(pool, d.retryBaseDelay)
	return d
}

// Start launches the polling loop. It should be called in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer func() {
		ticker.Stop()
		close(d.shutdownComplete)
	}()

	for {
		if err := d.processBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("outbox dispatcher error", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait blocks until the dispatcher has stopped.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

func (d *Dispatcher) processBatch(ctx context.Context) error {
	start := time.Now()

	messages, err := d.fetchAndClaim(ctx)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	if err := d.deliver(ctx, messages); err != nil {
		d.logger.Warn("outbox delivery failed, routing batch to DLQ", "events", len(messages), "error", err)
		failedCounter.Add(float64(len(messages)))
		if dlqErr := d.moveToDLQ(ctx, messages, err.Error()); dlqErr != nil {
			return dlqErr
		}
		return d.markPublished(ctx, messages)
	}

	deliveredCounter.Add(float64(len(messages)))
	if err := d.markPublished(ctx, messages); err != nil {
		return err
	}
	return d.dlq.Resolve(ctx, eventKeys(messages))
}

func (d *Dispatcher) fetchAndClaim(ctx context.Context) (messages []Message, err error) {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const query = `SELECT event_id, event_key::text, owner_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload
        FROM outbox
        WHERE published_at IS NULL
        ORDER BY event_id
        LIMIT $1
        FOR UPDATE SKIP LOCKED`

	rows, err := tx.Query(ctx, query, d.batchSize)
	if err != nil {
		return nil, err
	}
	messages, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Message, error) {
		var msg Message
		err := row.Scan(&msg.EventID, &msg.EventKey, &msg.OwnerID, &msg.AggregateType, &msg.AggregateID, &msg.EventType, &msg.Topic, &msg.SchemaSubject, &msg.PartitionKey, &msg.Payload)
		return msg, err
	})
	if err != nil {
		return nil, err
	}

	if len(messages) == 0 {
		return nil, tx.Rollback(ctx)
	}

	if _, err = tx.Exec(ctx, `UPDATE outbox SET claimed_at = NOW() WHERE event_id = ANY($1)`, eventIDs(messages)); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return messages, nil
}

func (d *Dispatcher) deliver(ctx context.Context, messages []Message) error {
	batches := make(map[string][]kafka.Message)
	topics := make([]string, 0)

	for _, msg := range messages {
		schema, ok := schemaCatalog[msg.EventType]
		if !ok {
			return fmt.Errorf("no schema metadata for event_type=%s", msg.EventType)
		}

		schemaID, err := d.schemaID(ctx, msg.SchemaSubject, schema)
		if err != nil {
			return err
		}

		record := kafka.Message{
			Key:   []byte(msg.PartitionKey),
			Value: encodeWireFormat(schemaID, msg.Payload),
			Time:  time.Now().UTC(),
			Headers: []kafka.Header{
				{Key: events.HeaderEventType, Value: []byte(msg.EventType)},
				{Key: events.HeaderEventKey, Value: []byte(msg.EventKey)},
				{Key: events.HeaderOwnerID, Value: []byte(msg.OwnerID)},
				{Key: events.HeaderSchemaSubject, Value: []byte(msg.SchemaSubject)},
			},
		}

		if _, exists := batches[msg.Topic]; !exists {
			topics = append(topics, msg.Topic)
		}
		batches[msg.Topic] = append(batches[msg.Topic], record)
	}

	for _, topic := range topics {
		if err := d.producer.WriteMessages(ctx, topic, batches[topic]...); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) schemaID(ctx context.Context, subject, schema string) (int, error) {
	cacheKey := subject + "::" + schema
	if cached, found := d.schemaIDCache.Load(cacheKey); found {
		return cached.(int), nil
	}

	id, err := d.registry.EnsureSchema(ctx, subject, schema)
	if err != nil {
		return 0, err
	}
	d.schemaIDCache.Store(cacheKey, id)
	return id, nil
}

func (d *Dispatcher) markPublished(ctx context.Context, messages []Message) error {
	_, err := d.pool.Exec(ctx, `UPDATE outbox SET published_at = NOW() WHERE event_id = ANY($1)`, eventIDs(messages))
	return err
}

func (d *Dispatcher) moveToDLQ(ctx context.Context, messages []Message, reason string) error {
	for _, msg := range messages {
		entryReason := fmt.Sprintf("%s (topic=%s)", reason, msg.Topic)
		if err := d.dlq.Write(ctx, msg, entryReason); err != nil {
			return err
		}
		dlqCounter.WithLabelValues(msg.Topic).Inc()
	}
	return nil
}

// Message represents a row fetched from the outbox.
type Message struct {
	EventID       int64
	EventKey      string
	OwnerID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	SchemaSubject string
	PartitionKey  string
	Payload       json.RawMessage
}

func eventIDs(messages []Message) []int64 {
	ids := make([]int64, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.EventID)
	}
	return ids
}

func eventKeys(messages []Message) []string {
	keys := make([]string, 0, len(messages))
	for _, msg := range messages {
		keys = append(keys, msg.EventKey)
	}
	return keys
}

// encodeWireFormat applies Confluent framing: a zero magic byte, the big-endian schema ID, then the payload.
func encodeWireFormat(schemaID int, payload []byte) []byte {
	frame := make([]byte, 5+len(payload))
	frame[0] = 0
	binary.BigEndian.PutUint32(frame[1:5], uint32(schemaID))
	copy(frame[5:], payload)
	return frame
}

var schemaCatalog = map[string]string{
	events.TypeActivityAdded:       activityAddedSchema,
	events.TypeActivityUpdated:     activityUpdatedSchema,
	events.TypeActivitiesReordered: activitiesReorderedSchema,
	events.TypeActivityDeleted:     activityDeletedSchema,
}
