// Package postgres provides the Postgres-backed activity repository and schema migrations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/domain"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/events"
)

const activityColumns = `a.id, a.destination_id, a.title, a.free_text, a.web_link, a.position, a.created_at, a.updated_at`

// Repository provides Postgres-backed persistence for activities and outbox events.
// Every mutation locks the parent destination row, so position changes of one
// destination are serialized while other destinations proceed in parallel.
type Repository struct {
	pool  *pgxpool.Pool
	topic string
}

// Option configures a Repository.
type Option func(*Repository)

// WithEventsTopic overrides the Kafka topic recorded on outbox rows.
func WithEventsTopic(topic string) Option {
	return func(r *Repository) {
		if topic != "" {
			r.topic = topic
		}
	}
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool, opts ...Option) *Repository {
	r := &Repository{pool: pool, topic: events.DefaultTopic}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddDestination creates a destination for ownerID. Destinations are normally
// managed by the trip planner; this backs seeding and tests.
func (r *Repository) AddDestination(ctx context.Context, ownerID, name string) (domain.Destination, error) {
	dest := domain.Destination{OwnerID: ownerID, Name: name}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO destinations (owner_id, name) VALUES ($1, $2) RETURNING id`,
		ownerID, name,
	).Scan(&dest.ID)
	if err != nil {
		return domain.Destination{}, err
	}
	return dest, nil
}

// GetDestination implements domain.ActivityRepository.
func (r *Repository) GetDestination(ctx context.Context, ownerID string, destinationID int64) (*domain.Destination, error) {
	var dest domain.Destination
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, name FROM destinations WHERE id=$1 AND owner_id=$2`,
		destinationID, ownerID,
	).Scan(&dest.ID, &dest.OwnerID, &dest.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &dest, nil
}

// AddActivity appends the activity at the end of its destination and records an outbox event in the same transaction.
func (r *Repository) AddActivity(ctx context.Context, ownerID string, activity domain.Activity) (created *domain.Activity, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = lockDestination(ctx, tx, ownerID, activity.DestinationID); err != nil {
		return nil, err
	}

	var count int
	if err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM activities WHERE destination_id=$1`, activity.DestinationID).Scan(&count); err != nil {
		return nil, err
	}
	activity.Position = domain.NextPosition(count)

	err = tx.QueryRow(ctx,
		`INSERT INTO activities (destination_id, title, free_text, web_link, position, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		activity.DestinationID,
		activity.Title,
		activity.FreeText,
		activity.WebLink,
		activity.Position,
		activity.CreatedAt,
		activity.UpdatedAt,
	).Scan(&activity.ID)
	if err != nil {
		return nil, err
	}

	if err = r.insertOutbox(ctx, tx, events.Added(ownerID, activity)); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &activity, nil
}

// ListActivities implements domain.ActivityRepository.
func (r *Repository) ListActivities(ctx context.Context, ownerID string, destinationID int64) ([]domain.Activity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+activityColumns+`
        FROM activities a JOIN destinations d ON d.id = a.destination_id
        WHERE a.destination_id=$1 AND d.owner_id=$2
        ORDER BY a.position, a.id`,
		destinationID, ownerID,
	)
	if err != nil {
		return nil, err
	}
	return collectActivities(rows)
}

// GetActivity implements domain.ActivityRepository.
func (r *Repository) GetActivity(ctx context.Context, ownerID string, activityID int64) (*domain.Activity, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+activityColumns+`
        FROM activities a JOIN destinations d ON d.id = a.destination_id
        WHERE a.id=$1 AND d.owner_id=$2`,
		activityID, ownerID,
	)
	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &activity, nil
}

// UpdateActivity changes one column of an activity.
func (r *Repository) UpdateActivity(ctx context.Context, ownerID string, activityID int64, update domain.ActivityUpdate) (updated *domain.Activity, err error) {
	column, err := columnFor(update.Field)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	row := tx.QueryRow(ctx,
		`UPDATE activities a SET `+column+`=$1, updated_at=$2
        FROM destinations d
        WHERE a.id=$3 AND d.id = a.destination_id AND d.owner_id=$4
        RETURNING `+activityColumns,
		update.Value, update.UpdatedAt, activityID, ownerID,
	)
	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrActivityNotFound
		}
		return nil, err
	}

	if err = r.insertOutbox(ctx, tx, events.Updated(ownerID, activity, update.Field)); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &activity, nil
}

// ReorderActivities rewrites positions so that each activity sits at its index in order.
// Rows whose position does not change keep their updated_at.
func (r *Repository) ReorderActivities(ctx context.Context, ownerID string, destinationID int64, order []int64, at time.Time) (reordered []domain.Activity, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = lockDestination(ctx, tx, ownerID, destinationID); err != nil {
		return nil, err
	}

	current, err := currentIDs(ctx, tx, destinationID)
	if err != nil {
		return nil, err
	}
	if err = domain.ValidateOrder(current, order); err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx,
		`UPDATE activities a SET position = (o.ord - 1)::int, updated_at = $3
        FROM unnest($1::bigint[]) WITH ORDINALITY AS o(id, ord)
        WHERE a.id = o.id AND a.destination_id = $2 AND a.position <> (o.ord - 1)::int`,
		order, destinationID, at,
	); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx,
		`SELECT `+activityColumns+` FROM activities a WHERE a.destination_id=$1 ORDER BY a.position, a.id`,
		destinationID,
	)
	if err != nil {
		return nil, err
	}
	reordered, err = collectActivities(rows)
	if err != nil {
		return nil, err
	}

	if err = r.insertOutbox(ctx, tx, events.Reordered(ownerID, destinationID, domain.IDs(reordered), at)); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return reordered, nil
}

// DeleteActivity removes an activity and shifts every later sibling up by one.
func (r *Repository) DeleteActivity(ctx context.Context, ownerID string, activityID int64, at time.Time) (deleted *domain.Activity, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var destinationID int64
	err = tx.QueryRow(ctx,
		`SELECT d.id FROM destinations d JOIN activities a ON a.destination_id = d.id
        WHERE a.id=$1 AND d.owner_id=$2
        FOR UPDATE OF d`,
		activityID, ownerID,
	).Scan(&destinationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrActivityNotFound
		}
		return nil, err
	}

	row := tx.QueryRow(ctx,
		`DELETE FROM activities a WHERE a.id=$1 AND a.destination_id=$2 RETURNING `+activityColumns,
		activityID, destinationID,
	)
	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrActivityNotFound
		}
		return nil, err
	}

	if _, err = tx.Exec(ctx,
		`UPDATE activities SET position = position - 1 WHERE destination_id=$1 AND position > $2`,
		destinationID, activity.Position,
	); err != nil {
		return nil, err
	}

	if err = r.insertOutbox(ctx, tx, events.Deleted(ownerID, activity, at)); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, env events.Envelope) error {
	body, err := json.Marshal(env.Payload)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO outbox (event_key, owner_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		env.Key,
		env.OwnerID,
		events.AggregateType,
		env.AggregateID,
		env.Type,
		r.topic,
		events.SchemaSubject(r.topic, env.Type),
		env.PartitionKey,
		body,
	)
	return err
}

func lockDestination(ctx context.Context, tx pgx.Tx, ownerID string, destinationID int64) error {
	var id int64
	err := tx.QueryRow(ctx,
		`SELECT id FROM destinations WHERE id=$1 AND owner_id=$2 FOR UPDATE`,
		destinationID, ownerID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrDestinationNotFound
	}
	return err
}

func currentIDs(ctx context.Context, tx pgx.Tx, destinationID int64) ([]int64, error) {
	rows, err := tx.Query(ctx, `SELECT id FROM activities WHERE destination_id=$1 ORDER BY position, id`, destinationID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func columnFor(field domain.ActivityField) (string, error) {
	switch field {
	case domain.FieldTitle:
		return "title", nil
	case domain.FieldFreeText:
		return "free_text", nil
	case domain.FieldWebLink:
		return "web_link", nil
	default:
		return "", fmt.Errorf("unknown activity field: %q", field)
	}
}

func scanActivity(row pgx.Row) (domain.Activity, error) {
	var a domain.Activity
	err := row.Scan(&a.ID, &a.DestinationID, &a.Title, &a.FreeText, &a.WebLink, &a.Position, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func collectActivities(rows pgx.Rows) ([]domain.Activity, error) {
	defer rows.Close()

	results := make([]domain.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
