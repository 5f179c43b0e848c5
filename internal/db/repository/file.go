package repository

import (
	"context"

	"github.com/media-vault/video-archive-go/internal/db"
	"github.com/media-vault/video-archive-go/internal/db/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FileRepository manages stored-blob metadata rows.
type FileRepository interface {
	Insert(ctx context.Context, file *models.File) error

	// UpdateSize replaces the size recorded at insert time, which for
	// media files is only an estimate until the download finishes.
	UpdateSize(ctx context.Context, id uuid.UUID, size int64) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.File, error)
}

type fileRepository struct {
	pool *pgxpool.Pool
}

// NewFileRepository creates a new FileRepository.
func NewFileRepository(pool *pgxpool.Pool) FileRepository {
	return &fileRepository{pool: pool}
}

func (r *fileRepository) Insert(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (id, file_name, file_extension, size)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, file.ID, file.FileName, file.FileExtension, file.Size)
	if err != nil {
		return db.WrapError(err, "insert file")
	}

	return nil
}

func (r *fileRepository) UpdateSize(ctx context.Context, id uuid.UUID, size int64) error {
	query := `UPDATE files SET size = $2 WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id, size)
	if err != nil {
		return db.WrapError(err, "update file size")
	}

	return nil
}

func (r *fileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	query := `
		SELECT id, file_name, file_extension, size
		FROM files
		WHERE id = $1
	`

	file := &models.File{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&file.ID, &file.FileName, &file.FileExtension, &file.Size,
	)
	if err == pgx.ErrNoRows {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, db.WrapError(err, "get file by id")
	}

	return file, nil
}
