package repository

import (
	"context"
	"time"

	"github.com/media-vault/video-archive-go/internal/db"
	"github.com/media-vault/video-archive-go/internal/db/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ScheduledArchivalRepository manages the single-item archival work queue.
type ScheduledArchivalRepository interface {
	// Enqueue inserts a new queue entry for the URL. Inserting a URL that
	// is already queued is a no-op; the returned bool reports whether a
	// row was actually created.
	Enqueue(ctx context.Context, url string) (bool, error)

	// Dequeue claims one eligible entry and advances its not_before to
	// now+lease, all in a single atomic statement. Concurrent claimants
	// skip rows locked by in-flight transactions instead of blocking.
	// Returns db.ErrNotFound when no entry is eligible.
	Dequeue(ctx context.Context, lease time.Duration) (*models.ScheduledArchival, error)

	// Reschedule pushes an entry's not_before to now+backoff after an
	// observed failure, overriding the claim lease.
	Reschedule(ctx context.Context, id int32, backoff time.Duration) error

	// Delete removes a completed entry. Deleting an already-deleted row
	// is a no-op, so replayed completions are harmless.
	Delete(ctx context.Context, id int32) error

	// List returns all queue entries.
	List(ctx context.Context) ([]*models.ScheduledArchival, error)

	// URLs returns every queued URL, for discovery de-duplication.
	URLs(ctx context.Context) ([]string, error)
}

type scheduledArchivalRepository struct {
	pool *pgxpool.Pool
}

// NewScheduledArchivalRepository creates a new ScheduledArchivalRepository.
func NewScheduledArchivalRepository(pool *pgxpool.Pool) ScheduledArchivalRepository {
	return &scheduledArchivalRepository{pool: pool}
}

func (r *scheduledArchivalRepository) Enqueue(ctx context.Context, url string) (bool, error) {
	query := `
		INSERT INTO scheduled_archivals (url)
		VALUES ($1)
		ON CONFLICT (url) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, url)
	if err != nil {
		return false, db.WrapError(err, "enqueue scheduled archival")
	}

	return tag.RowsAffected() > 0, nil
}

func (r *scheduledArchivalRepository) Dequeue(ctx context.Context, lease time.Duration) (*models.ScheduledArchival, error) {
	// The locked subselect and the lease update commit together, so the
	// row is either claimed with its lease advanced or untouched.
	query := `
		UPDATE scheduled_archivals
		SET not_before = now() + make_interval(secs => $1)
		WHERE id = (
			SELECT id FROM scheduled_archivals
			WHERE not_before < now()
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, url, scheduled_at, not_before
	`

	entry := &models.ScheduledArchival{}
	err := r.pool.QueryRow(ctx, query, lease.Seconds()).Scan(
		&entry.ID, &entry.URL, &entry.ScheduledAt, &entry.NotBefore,
	)
	if err == pgx.ErrNoRows {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, db.WrapError(err, "dequeue scheduled archival")
	}

	return entry, nil
}

func (r *scheduledArchivalRepository) Reschedule(ctx context.Context, id int32, backoff time.Duration) error {
	query := `
		UPDATE scheduled_archivals
		SET not_before = now() + make_interval(secs => $2)
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id, backoff.Seconds())
	if err != nil {
		return db.WrapError(err, "reschedule scheduled archival")
	}

	return nil
}

func (r *scheduledArchivalRepository) Delete(ctx context.Context, id int32) error {
	query := `DELETE FROM scheduled_archivals WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return db.WrapError(err, "delete scheduled archival")
	}

	return nil
}

func (r *scheduledArchivalRepository) List(ctx context.Context) ([]*models.ScheduledArchival, error) {
	query := `
		SELECT id, url, scheduled_at, not_before
		FROM scheduled_archivals
		ORDER BY scheduled_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list scheduled archivals")
	}
	defer rows.Close()

	var entries []*models.ScheduledArchival
	for rows.Next() {
		entry := &models.ScheduledArchival{}
		err := rows.Scan(&entry.ID, &entry.URL, &entry.ScheduledAt, &entry.NotBefore)
		if err != nil {
			return nil, db.WrapError(err, "scan scheduled archival")
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate scheduled archivals")
	}

	return entries, nil
}

func (r *scheduledArchivalRepository) URLs(ctx context.Context) ([]string, error) {
	query := `SELECT url FROM scheduled_archivals`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "get scheduled archival urls")
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, db.WrapError(err, "scan scheduled archival url")
		}
		urls = append(urls, url)
	}

	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate scheduled archival urls")
	}

	return urls, nil
}
