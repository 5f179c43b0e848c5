package worker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/media-vault/video-archive-go/internal/config"
	"github.com/media-vault/video-archive-go/internal/db"
	"github.com/media-vault/video-archive-go/internal/db/models"
	"github.com/media-vault/video-archive-go/internal/db/repository"
	"github.com/media-vault/video-archive-go/internal/downloader"
	"github.com/media-vault/video-archive-go/internal/metrics"
	"github.com/media-vault/video-archive-go/internal/resolver"
	"github.com/media-vault/video-archive-go/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Archiver drains the scheduled_archivals queue: resolve, capture, and
// persist one video per attempt. Any failure reschedules the item for a
// later attempt; nothing is lost on a crash because the claim lease
// expires on its own.
type Archiver struct {
	archivals  repository.ScheduledArchivalRepository
	videos     repository.VideoRepository
	files      repository.FileRepository
	resolver   resolver.Resolver
	downloader downloader.Downloader
	store      storage.BlobStore
	httpClient *http.Client
	cfg        config.ArchiverConfig
	logger     *zap.Logger
}

// NewArchiver wires an Archiver from its dependencies.
func NewArchiver(
	archivals repository.ScheduledArchivalRepository,
	videos repository.VideoRepository,
	files repository.FileRepository,
	res resolver.Resolver,
	dl downloader.Downloader,
	store storage.BlobStore,
	cfg config.ArchiverConfig,
	logger *zap.Logger,
) *Archiver {
	return &Archiver{
		archivals:  archivals,
		videos:     videos,
		files:      files,
		resolver:   res,
		downloader: dl,
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg,
		logger:     logger,
	}
}

// Archive is the Task run by the archiver pool. It claims at most one
// queue item.
func (a *Archiver) Archive(ctx context.Context) (bool, error) {
	item, err := a.archivals.Dequeue(ctx, a.cfg.LeaseTimeout)
	if db.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	metrics.QueueClaims.WithLabelValues("scheduled_archivals").Inc()
	started := time.Now()

	log := a.logger.With(zap.Int32("itemId", item.ID), zap.String("url", item.URL))
	log.Info("archiving video")

	if err := a.archive(ctx, item.ID, item.URL, log); err != nil {
		if ctx.Err() != nil {
			// Shutdown mid-attempt. The lease will expire and another
			// worker will pick the item up.
			return true, ctx.Err()
		}

		metrics.ArchiveFailures.Inc()
		metrics.QueueRetries.WithLabelValues("scheduled_archivals").Inc()
		log.Warn("archival failed, rescheduling",
			zap.Duration("backoff", a.cfg.ErrorBackoff),
			zap.Error(err))

		if rerr := a.archivals.Reschedule(ctx, item.ID, a.cfg.ErrorBackoff); rerr != nil {
			return true, rerr
		}
		return true, nil
	}

	metrics.VideosArchived.Inc()
	metrics.ArchiveDuration.Observe(time.Since(started).Seconds())
	log.Info("video archived", zap.Duration("took", time.Since(started)))
	return true, nil
}

func (a *Archiver) archive(ctx context.Context, itemID int32, rawURL string, log *zap.Logger) error {
	meta, err := a.resolver.ResolveVideo(ctx, rawURL)
	if err != nil {
		return err
	}

	videoID, mediaFile, err := a.ensureRecord(ctx, rawURL, meta, log)
	if err != nil {
		return err
	}

	if !a.cfg.SkipDownload {
		if err := a.capture(ctx, rawURL, mediaFile); err != nil {
			if serr := a.videos.SetStatus(ctx, videoID, models.StatusArchivationFailed); serr != nil {
				log.Error("failed to record failure status", zap.Error(serr))
			}
			return err
		}
	}

	if err := a.finalize(ctx, videoID, meta.Duration, rawURL, log); err != nil {
		return err
	}

	return a.archivals.Delete(ctx, itemID)
}

// ensureRecord creates the video row with fresh file rows, or picks up
// a record left behind by an earlier attempt. A resumed attempt must
// capture into the original media file, not a new one, so the row's
// file_id keeps pointing at the blob that actually gets written.
func (a *Archiver) ensureRecord(ctx context.Context, rawURL string, meta *resolver.Metadata, log *zap.Logger) (int32, *models.File, error) {
	existing, err := a.videos.GetByURL(ctx, rawURL)
	if err == nil {
		return a.resume(ctx, existing, log)
	}
	if !db.IsNotFound(err) {
		return 0, nil, err
	}

	thumbID, err := a.storeThumbnail(ctx, meta.ThumbnailURL)
	if err != nil {
		return 0, nil, err
	}

	mediaFile := &models.File{
		ID:            uuid.New(),
		FileName:      meta.Title,
		FileExtension: "mkv",
		Size:          meta.FilesizeEstimate,
	}
	if err := a.files.Insert(ctx, mediaFile); err != nil {
		return 0, nil, err
	}

	video := &models.Video{
		Title:        meta.Title,
		Channel:      meta.Channel,
		Views:        meta.Views,
		UploadDate:   meta.UploadDate,
		ArchivedDate: time.Now().UTC(),
		Duration:     meta.Duration,
		OriginalURL:  rawURL,
		Status:       models.StatusBeingArchived,
		FileID:       mediaFile.ID,
		ThumbnailID:  thumbID,
	}
	videoID, created, err := a.videos.Insert(ctx, video)
	if err != nil {
		return 0, nil, err
	}
	if !created {
		// Another worker inserted the row between the lookup and the
		// insert. Resume theirs instead of capturing into ours.
		existing, err := a.videos.GetByURL(ctx, rawURL)
		if err != nil {
			return 0, nil, err
		}
		return a.resume(ctx, existing, log)
	}
	return videoID, mediaFile, nil
}

// resume loads the media file referenced by an existing video record.
func (a *Archiver) resume(ctx context.Context, video *models.Video, log *zap.Logger) (int32, *models.File, error) {
	mediaFile, err := a.files.GetByID(ctx, video.FileID)
	if err != nil {
		return 0, nil, err
	}

	log.Info("video record already exists, resuming", zap.Int32("videoId", video.ID))
	return video.ID, mediaFile, nil
}

// capture downloads the media and moves it into the blob store,
// replacing the size estimate with the real byte count.
func (a *Archiver) capture(ctx context.Context, rawURL string, mediaFile *models.File) error {
	localPath, err := a.downloader.Download(ctx, rawURL, a.cfg.TempDir, mediaFile.ID.String())
	if err != nil {
		return err
	}

	size, err := a.store.PutFile(ctx, mediaFile.BlobKey(), localPath)
	if err != nil {
		return fmt.Errorf("store media: %w", err)
	}

	return a.files.UpdateSize(ctx, mediaFile.ID, size)
}

// finalize transitions the record to archived. A zero duration means
// the video was live when first resolved; its real length only exists
// after the capture, so resolve once more and patch it in.
func (a *Archiver) finalize(ctx context.Context, videoID int32, duration int32, rawURL string, log *zap.Logger) error {
	if duration != 0 {
		return a.videos.MarkArchived(ctx, videoID)
	}

	meta, err := a.resolver.ResolveVideo(ctx, rawURL)
	if err != nil {
		// The capture itself succeeded. Keep the archive and leave the
		// duration unknown rather than retrying the whole item.
		log.Warn("could not re-resolve duration after capture", zap.Error(err))
		return a.videos.MarkArchived(ctx, videoID)
	}

	return a.videos.FinalizeDuration(ctx, videoID, meta.Duration)
}

// storeThumbnail fetches the thumbnail, stores it, and records its file
// row. Returns the new file id.
func (a *Archiver) storeThumbnail(ctx context.Context, thumbURL string) (uuid.UUID, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbURL, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("build thumbnail request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return uuid.Nil, fmt.Errorf("fetch thumbnail: unexpected status %d", resp.StatusCode)
	}

	file := &models.File{
		ID:            uuid.New(),
		FileName:      "thumbnail",
		FileExtension: thumbnailExtension(thumbURL),
	}

	size, err := a.store.Put(ctx, file.BlobKey(), resp.Body)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store thumbnail: %w", err)
	}
	file.Size = size

	if err := a.files.Insert(ctx, file); err != nil {
		return uuid.Nil, err
	}

	return file.ID, nil
}

// thumbnailExtension extracts the image extension from a thumbnail URL,
// ignoring any query string. Falls back to jpg.
func thumbnailExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "jpg"
	}

	ext := strings.TrimPrefix(path.Ext(u.Path), ".")
	if ext == "" {
		return "jpg"
	}
	return ext
}
