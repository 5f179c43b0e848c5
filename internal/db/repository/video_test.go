package repository

import (
	"context"
	"testing"
	"time"

	"github.com/media-vault/video-archive-go/internal/db"
	"github.com/media-vault/video-archive-go/internal/db/models"
	"github.com/media-vault/video-archive-go/internal/db/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertTestFile(t *testing.T, repo FileRepository, size int64) uuid.UUID {
	t.Helper()

	file := &models.File{
		ID:            uuid.New(),
		FileName:      "test",
		FileExtension: "mkv",
		Size:          size,
	}
	require.NoError(t, repo.Insert(context.Background(), file))
	return file.ID
}

func newTestVideo(fileID, thumbID uuid.UUID, url string) *models.Video {
	return &models.Video{
		Title:        "Test Video",
		Channel:      "Test Channel",
		Views:        1000,
		UploadDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ArchivedDate: time.Now().UTC(),
		Duration:     360,
		OriginalURL:  url,
		Status:       models.StatusBeingArchived,
		FileID:       fileID,
		ThumbnailID:  thumbID,
	}
}

func TestVideoRepository_Insert(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	videoRepo := NewVideoRepository(td.Pool)
	fileRepo := NewFileRepository(td.Pool)
	ctx := context.Background()

	t.Run("creates new video", func(t *testing.T) {
		td.TruncateTables(t)

		fileID := insertTestFile(t, fileRepo, 1024)
		thumbID := insertTestFile(t, fileRepo, 64)

		video := newTestVideo(fileID, thumbID, "https://www.youtube.com/watch?v=abc123")
		id, created, err := videoRepo.Insert(ctx, video)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotZero(t, id)
		assert.Equal(t, id, video.ID)
	})

	t.Run("replayed insert returns the existing row", func(t *testing.T) {
		td.TruncateTables(t)

		fileID := insertTestFile(t, fileRepo, 1024)
		thumbID := insertTestFile(t, fileRepo, 64)

		first := newTestVideo(fileID, thumbID, "https://www.youtube.com/watch?v=abc123")
		firstID, created, err := videoRepo.Insert(ctx, first)
		require.NoError(t, err)
		require.True(t, created)

		replay := newTestVideo(fileID, thumbID, "https://www.youtube.com/watch?v=abc123")
		replayID, created, err := videoRepo.Insert(ctx, replay)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, firstID, replayID)
	})
}

func TestVideoRepository_StatusTransitions(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	videoRepo := NewVideoRepository(td.Pool)
	fileRepo := NewFileRepository(td.Pool)
	ctx := context.Background()

	t.Run("mark archived", func(t *testing.T) {
		td.TruncateTables(t)

		fileID := insertTestFile(t, fileRepo, 1024)
		thumbID := insertTestFile(t, fileRepo, 64)

		video := newTestVideo(fileID, thumbID, "https://www.youtube.com/watch?v=abc123")
		id, _, err := videoRepo.Insert(ctx, video)
		require.NoError(t, err)

		err = videoRepo.MarkArchived(ctx, id)
		require.NoError(t, err)

		got, err := videoRepo.GetByURL(ctx, video.OriginalURL)
		require.NoError(t, err)
		assert.Equal(t, models.StatusArchived, got.Status)
	})

	t.Run("finalize duration for live capture", func(t *testing.T) {
		td.TruncateTables(t)

		fileID := insertTestFile(t, fileRepo, 1024)
		thumbID := insertTestFile(t, fileRepo, 64)

		video := newTestVideo(fileID, thumbID, "https://www.youtube.com/watch?v=live1")
		video.Duration = 0
		id, _, err := videoRepo.Insert(ctx, video)
		require.NoError(t, err)

		err = videoRepo.FinalizeDuration(ctx, id, 5400)
		require.NoError(t, err)

		got, err := videoRepo.GetByURL(ctx, video.OriginalURL)
		require.NoError(t, err)
		assert.Equal(t, models.StatusArchived, got.Status)
		assert.Equal(t, int32(5400), got.Duration)
	})

	t.Run("set failure status", func(t *testing.T) {
		td.TruncateTables(t)

		fileID := insertTestFile(t, fileRepo, 1024)
		thumbID := insertTestFile(t, fileRepo, 64)

		video := newTestVideo(fileID, thumbID, "https://www.youtube.com/watch?v=bad1")
		id, _, err := videoRepo.Insert(ctx, video)
		require.NoError(t, err)

		err = videoRepo.SetStatus(ctx, id, models.StatusArchivationFailed)
		require.NoError(t, err)

		got, err := videoRepo.GetByURL(ctx, video.OriginalURL)
		require.NoError(t, err)
		assert.Equal(t, models.StatusArchivationFailed, got.Status)
	})
}

func TestVideoRepository_Search(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	videoRepo := NewVideoRepository(td.Pool)
	fileRepo := NewFileRepository(td.Pool)
	ctx := context.Background()

	seed := func(t *testing.T, title, url string, size int64) {
		t.Helper()
		fileID := insertTestFile(t, fileRepo, size)
		thumbID := insertTestFile(t, fileRepo, 64)
		v := newTestVideo(fileID, thumbID, url)
		v.Title = title
		_, _, err := videoRepo.Insert(ctx, v)
		require.NoError(t, err)
	}

	t.Run("empty term returns everything with file size", func(t *testing.T) {
		td.TruncateTables(t)

		seed(t, "Conference Talk", "https://www.youtube.com/watch?v=a1", 2048)
		seed(t, "Cooking Stream", "https://www.youtube.com/watch?v=a2", 4096)

		results, err := videoRepo.Search(ctx, "")
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.NotZero(t, results[0].VideoSize)
	})

	t.Run("term filters by title substring, case-insensitive", func(t *testing.T) {
		td.TruncateTables(t)

		seed(t, "Conference Talk", "https://www.youtube.com/watch?v=a1", 2048)
		seed(t, "Cooking Stream", "https://www.youtube.com/watch?v=a2", 4096)

		results, err := videoRepo.Search(ctx, "conference")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Conference Talk", results[0].Title)
	})

	t.Run("no matches returns empty", func(t *testing.T) {
		td.TruncateTables(t)

		seed(t, "Conference Talk", "https://www.youtube.com/watch?v=a1", 2048)

		results, err := videoRepo.Search(ctx, "zzz")
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestFileRepository(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	fileRepo := NewFileRepository(td.Pool)
	ctx := context.Background()

	t.Run("insert and get", func(t *testing.T) {
		td.TruncateTables(t)

		id := insertTestFile(t, fileRepo, 1024)

		got, err := fileRepo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1024), got.Size)
		assert.Equal(t, "mkv", got.FileExtension)
	})

	t.Run("update size replaces estimate", func(t *testing.T) {
		td.TruncateTables(t)

		id := insertTestFile(t, fileRepo, 1024)

		err := fileRepo.UpdateSize(ctx, id, 99999)
		require.NoError(t, err)

		got, err := fileRepo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(99999), got.Size)
	})

	t.Run("missing id returns not found", func(t *testing.T) {
		td.TruncateTables(t)

		_, err := fileRepo.GetByID(ctx, uuid.New())
		assert.True(t, db.IsNotFound(err))
	})
}
