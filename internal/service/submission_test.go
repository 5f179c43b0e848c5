package service

import (
	"context"
	"testing"
	"time"

	"github.com/media-vault/video-archive-go/internal/db/models"
	"github.com/media-vault/video-archive-go/internal/db/repository"
	"github.com/media-vault/video-archive-go/internal/db/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type submissionFixture struct {
	svc       *SubmissionService
	archivals repository.ScheduledArchivalRepository
	videos    repository.VideoRepository
	files     repository.FileRepository
}

func newSubmissionFixture(td *testutil.TestDatabase) *submissionFixture {
	archivals := repository.NewScheduledArchivalRepository(td.Pool)
	collections := repository.NewTrackedCollectionRepository(td.Pool)
	videos := repository.NewVideoRepository(td.Pool)
	files := repository.NewFileRepository(td.Pool)

	return &submissionFixture{
		svc:       NewSubmissionService(archivals, collections, videos, zap.NewNop()),
		archivals: archivals,
		videos:    videos,
		files:     files,
	}
}

func TestSubmissionService_ScheduleVideo(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	ctx := context.Background()

	t.Run("valid video url is accepted and canonicalized", func(t *testing.T) {
		td.TruncateTables(t)
		f := newSubmissionFixture(td)

		outcome, err := f.svc.ScheduleVideo(ctx, "https://www.youtube.com/watch?v=abc&list=PLxyz&t=10s")
		require.NoError(t, err)
		assert.Equal(t, Accepted, outcome)

		urls, err := f.archivals.URLs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://www.youtube.com/watch?v=abc"}, urls)
	})

	t.Run("resubmission is a duplicate", func(t *testing.T) {
		td.TruncateTables(t)
		f := newSubmissionFixture(td)

		_, err := f.svc.ScheduleVideo(ctx, "https://www.youtube.com/watch?v=abc")
		require.NoError(t, err)

		// Same video with different decoration dedupes to one entry.
		outcome, err := f.svc.ScheduleVideo(ctx, "https://www.youtube.com/watch?v=abc&t=99s")
		require.NoError(t, err)
		assert.Equal(t, Duplicate, outcome)

		urls, err := f.archivals.URLs(ctx)
		require.NoError(t, err)
		assert.Len(t, urls, 1)
	})

	t.Run("already archived video is a duplicate", func(t *testing.T) {
		td.TruncateTables(t)
		f := newSubmissionFixture(td)

		file := &models.File{ID: uuid.New(), FileName: "v", FileExtension: "mkv", Size: 1}
		require.NoError(t, f.files.Insert(ctx, file))
		thumb := &models.File{ID: uuid.New(), FileName: "t", FileExtension: "jpg", Size: 1}
		require.NoError(t, f.files.Insert(ctx, thumb))
		_, _, err := f.videos.Insert(ctx, &models.Video{
			Title: "Archived", Channel: "c",
			UploadDate: time.Now().UTC(), ArchivedDate: time.Now().UTC(),
			Duration: 1, OriginalURL: "https://www.youtube.com/watch?v=abc",
			Status: models.StatusArchived, FileID: file.ID, ThumbnailID: thumb.ID,
		})
		require.NoError(t, err)

		outcome, err := f.svc.ScheduleVideo(ctx, "https://www.youtube.com/watch?v=abc")
		require.NoError(t, err)
		assert.Equal(t, Duplicate, outcome)

		urls, err := f.archivals.URLs(ctx)
		require.NoError(t, err)
		assert.Empty(t, urls)
	})

	t.Run("collection url is rejected", func(t *testing.T) {
		td.TruncateTables(t)
		f := newSubmissionFixture(td)

		outcome, err := f.svc.ScheduleVideo(ctx, "https://www.youtube.com/@somechannel")
		require.NoError(t, err)
		assert.Equal(t, Rejected, outcome)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		td.TruncateTables(t)
		f := newSubmissionFixture(td)

		outcome, err := f.svc.ScheduleVideo(ctx, "not a url")
		require.NoError(t, err)
		assert.Equal(t, Rejected, outcome)
	})
}

func TestSubmissionService_TrackCollection(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	ctx := context.Background()

	t.Run("channel url is accepted", func(t *testing.T) {
		td.TruncateTables(t)
		f := newSubmissionFixture(td)

		outcome, err := f.svc.TrackCollection(ctx, "https://www.youtube.com/@somechannel")
		require.NoError(t, err)
		assert.Equal(t, Accepted, outcome)
	})

	t.Run("watch url with playlist is taken as the collection", func(t *testing.T) {
		td.TruncateTables(t)
		f := newSubmissionFixture(td)

		outcome, err := f.svc.TrackCollection(ctx, "https://www.youtube.com/watch?v=abc&list=PLxyz")
		require.NoError(t, err)
		assert.Equal(t, Accepted, outcome)
	})

	t.Run("resubmission is a duplicate", func(t *testing.T) {
		td.TruncateTables(t)
		f := newSubmissionFixture(td)

		_, err := f.svc.TrackCollection(ctx, "https://www.youtube.com/@somechannel")
		require.NoError(t, err)

		outcome, err := f.svc.TrackCollection(ctx, "https://www.youtube.com/@somechannel")
		require.NoError(t, err)
		assert.Equal(t, Duplicate, outcome)
	})

	t.Run("plain video url is rejected", func(t *testing.T) {
		td.TruncateTables(t)
		f := newSubmissionFixture(td)

		outcome, err := f.svc.TrackCollection(ctx, "https://www.youtube.com/watch?v=abc")
		require.NoError(t, err)
		assert.Equal(t, Rejected, outcome)
	})
}
