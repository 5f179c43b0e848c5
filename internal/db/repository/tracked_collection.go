package repository

import (
	"context"
	"time"

	"github.com/media-vault/video-archive-go/internal/db"
	"github.com/media-vault/video-archive-go/internal/db/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TrackedCollectionRepository manages the recurring discovery queue.
// Collections are never deleted; claiming one advances last_checked, which
// serves as both lease and recheck schedule.
type TrackedCollectionRepository interface {
	// Insert starts tracking a collection URL. Idempotent: inserting an
	// already-tracked URL is a no-op, reported by the returned bool.
	Insert(ctx context.Context, url string) (bool, error)

	// Dequeue claims one collection that has never been checked or whose
	// last check lease has lapsed, advancing last_checked to now+lease.
	// Returns db.ErrNotFound when none is due.
	Dequeue(ctx context.Context, lease time.Duration) (*models.TrackedCollection, error)

	// List returns all tracked collections.
	List(ctx context.Context) ([]*models.TrackedCollection, error)
}

type trackedCollectionRepository struct {
	pool *pgxpool.Pool
}

// NewTrackedCollectionRepository creates a new TrackedCollectionRepository.
func NewTrackedCollectionRepository(pool *pgxpool.Pool) TrackedCollectionRepository {
	return &trackedCollectionRepository{pool: pool}
}

func (r *trackedCollectionRepository) Insert(ctx context.Context, url string) (bool, error) {
	query := `
		INSERT INTO tracked_collections (url)
		VALUES ($1)
		ON CONFLICT (url) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, url)
	if err != nil {
		return false, db.WrapError(err, "insert tracked collection")
	}

	return tag.RowsAffected() > 0, nil
}

func (r *trackedCollectionRepository) Dequeue(ctx context.Context, lease time.Duration) (*models.TrackedCollection, error) {
	query := `
		UPDATE tracked_collections
		SET last_checked = now() + make_interval(secs => $1)
		WHERE id = (
			SELECT id FROM tracked_collections
			WHERE last_checked IS NULL OR last_checked < now()
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, url, tracking_started_at, last_checked
	`

	entry := &models.TrackedCollection{}
	err := r.pool.QueryRow(ctx, query, lease.Seconds()).Scan(
		&entry.ID, &entry.URL, &entry.TrackingStartedAt, &entry.LastChecked,
	)
	if err == pgx.ErrNoRows {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, db.WrapError(err, "dequeue tracked collection")
	}

	return entry, nil
}

func (r *trackedCollectionRepository) List(ctx context.Context) ([]*models.TrackedCollection, error) {
	query := `
		SELECT id, url, tracking_started_at, last_checked
		FROM tracked_collections
		ORDER BY tracking_started_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list tracked collections")
	}
	defer rows.Close()

	var entries []*models.TrackedCollection
	for rows.Next() {
		entry := &models.TrackedCollection{}
		err := rows.Scan(&entry.ID, &entry.URL, &entry.TrackingStartedAt, &entry.LastChecked)
		if err != nil {
			return nil, db.WrapError(err, "scan tracked collection")
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate tracked collections")
	}

	return entries, nil
}
