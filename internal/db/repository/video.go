package repository

import (
	"context"

	"github.com/media-vault/video-archive-go/internal/db"
	"github.com/media-vault/video-archive-go/internal/db/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VideoRepository manages archived-item records. Rows are written by the
// archival worker and read by the API and the discovery worker.
type VideoRepository interface {
	// Insert creates the video record. The original_url uniqueness
	// constraint turns a replayed insert into a no-op; in that case the
	// existing row's id is returned and created is false. This is the
	// idempotency guard against crash-and-retry creating two records for
	// the same source URL.
	Insert(ctx context.Context, video *models.Video) (id int32, created bool, err error)

	// MarkArchived transitions the video to the archived status.
	MarkArchived(ctx context.Context, id int32) error

	// FinalizeDuration sets the post-download duration for content that
	// was live at capture time and transitions it to archived.
	FinalizeDuration(ctx context.Context, id int32, duration int32) error

	// SetStatus records an explicit status, used for the failure state.
	SetStatus(ctx context.Context, id int32, status models.VideoStatus) error

	// GetByURL returns the video archived from the given original URL.
	GetByURL(ctx context.Context, originalURL string) (*models.Video, error)

	// Search returns archived videos joined with their media file size,
	// newest first, optionally filtered by a title substring.
	Search(ctx context.Context, term string) ([]*models.VideoWithSize, error)

	// OriginalURLs returns every archived original URL, for discovery
	// de-duplication.
	OriginalURLs(ctx context.Context) ([]string, error)
}

type videoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) VideoRepository {
	return &videoRepository{pool: pool}
}

func (r *videoRepository) Insert(ctx context.Context, video *models.Video) (int32, bool, error) {
	query := `
		INSERT INTO videos (
			title, channel, views, upload_date, archived_date,
			duration, original_url, status, file_id, thumbnail_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (original_url) DO NOTHING
		RETURNING id
	`

	var id int32
	err := r.pool.QueryRow(ctx, query,
		video.Title,
		video.Channel,
		video.Views,
		video.UploadDate,
		video.ArchivedDate,
		video.Duration,
		video.OriginalURL,
		video.Status,
		video.FileID,
		video.ThumbnailID,
	).Scan(&id)

	if err == nil {
		video.ID = id
		return id, true, nil
	}
	if err != pgx.ErrNoRows {
		return 0, false, db.WrapError(err, "insert video")
	}

	// Conflict: a record for this URL already exists (earlier attempt or
	// concurrent worker). Fetch its id so the caller can continue.
	existing, err := r.GetByURL(ctx, video.OriginalURL)
	if err != nil {
		return 0, false, err
	}
	video.ID = existing.ID
	return existing.ID, false, nil
}

func (r *videoRepository) MarkArchived(ctx context.Context, id int32) error {
	query := `UPDATE videos SET status = $2 WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id, models.StatusArchived)
	if err != nil {
		return db.WrapError(err, "mark video archived")
	}

	return nil
}

func (r *videoRepository) FinalizeDuration(ctx context.Context, id int32, duration int32) error {
	query := `UPDATE videos SET status = $2, duration = $3 WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id, models.StatusArchived, duration)
	if err != nil {
		return db.WrapError(err, "finalize video duration")
	}

	return nil
}

func (r *videoRepository) SetStatus(ctx context.Context, id int32, status models.VideoStatus) error {
	query := `UPDATE videos SET status = $2 WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return db.WrapError(err, "set video status")
	}

	return nil
}

func (r *videoRepository) GetByURL(ctx context.Context, originalURL string) (*models.Video, error) {
	query := `
		SELECT id, title, channel, views, upload_date, archived_date,
		       duration, original_url, status, file_id, thumbnail_id
		FROM videos
		WHERE original_url = $1
	`

	video := &models.Video{}
	err := r.pool.QueryRow(ctx, query, originalURL).Scan(
		&video.ID, &video.Title, &video.Channel, &video.Views,
		&video.UploadDate, &video.ArchivedDate,
		&video.Duration, &video.OriginalURL, &video.Status,
		&video.FileID, &video.ThumbnailID,
	)
	if err == pgx.ErrNoRows {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, db.WrapError(err, "get video by url")
	}

	return video, nil
}

func (r *videoRepository) Search(ctx context.Context, term string) ([]*models.VideoWithSize, error) {
	query := `
		SELECT v.id, v.title, v.channel, v.views, v.upload_date, v.archived_date,
		       v.duration, v.original_url, v.status, v.file_id, v.thumbnail_id,
		       f.size
		FROM videos v
		INNER JOIN files f ON f.id = v.file_id
	`

	args := []interface{}{}
	if term != "" {
		query += ` WHERE v.title ILIKE '%' || $1 || '%'`
		args = append(args, term)
	}
	query += ` ORDER BY v.archived_date DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.WrapError(err, "search videos")
	}
	defer rows.Close()

	var results []*models.VideoWithSize
	for rows.Next() {
		v := &models.VideoWithSize{}
		err := rows.Scan(
			&v.ID, &v.Title, &v.Channel, &v.Views,
			&v.UploadDate, &v.ArchivedDate,
			&v.Duration, &v.OriginalURL, &v.Status,
			&v.FileID, &v.ThumbnailID,
			&v.VideoSize,
		)
		if err != nil {
			return nil, db.WrapError(err, "scan video")
		}
		results = append(results, v)
	}

	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate videos")
	}

	return results, nil
}

func (r *videoRepository) OriginalURLs(ctx context.Context) ([]string, error) {
	query := `SELECT original_url FROM videos`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "get video urls")
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, db.WrapError(err, "scan video url")
		}
		urls = append(urls, url)
	}

	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate video urls")
	}

	return urls, nil
}
