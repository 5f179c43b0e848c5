// Package service holds the intake logic between the HTTP layer and
// the queues.
package service

import (
	"context"

	"github.com/media-vault/video-archive-go/internal/classify"
	"github.com/media-vault/video-archive-go/internal/db"
	"github.com/media-vault/video-archive-go/internal/db/repository"

	"go.uber.org/zap"
)

// Outcome is the result of submitting a URL.
type Outcome int

const (
	// Rejected means the URL is not archivable as the requested kind.
	Rejected Outcome = iota
	// Accepted means the URL entered the queue.
	Accepted
	// Duplicate means the URL is already queued, tracked, or archived.
	// Submitting twice is safe and changes nothing.
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Duplicate:
		return "duplicate"
	default:
		return "rejected"
	}
}

// SubmissionService routes submitted URLs into the archival queue or
// the tracked-collection rotation.
type SubmissionService struct {
	archivals   repository.ScheduledArchivalRepository
	collections repository.TrackedCollectionRepository
	videos      repository.VideoRepository
	logger      *zap.Logger
}

// NewSubmissionService creates a SubmissionService.
func NewSubmissionService(
	archivals repository.ScheduledArchivalRepository,
	collections repository.TrackedCollectionRepository,
	videos repository.VideoRepository,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		archivals:   archivals,
		collections: collections,
		videos:      videos,
		logger:      logger,
	}
}

// ScheduleVideo queues a single video for archival. A URL that could be
// either a video or a collection is taken as the video.
func (s *SubmissionService) ScheduleVideo(ctx context.Context, rawURL string) (Outcome, error) {
	kind := classify.Classify(rawURL)
	if kind != classify.Video && kind != classify.VideoOrCollection {
		s.logger.Info("rejected video submission",
			zap.String("url", rawURL),
			zap.Stringer("kind", kind))
		return Rejected, nil
	}

	canonical := classify.CanonicalVideoURL(rawURL)

	// Already archived videos never re-enter the queue.
	_, err := s.videos.GetByURL(ctx, canonical)
	if err == nil {
		return Duplicate, nil
	}
	if !db.IsNotFound(err) {
		return Rejected, err
	}

	created, err := s.archivals.Enqueue(ctx, canonical)
	if err != nil {
		return Rejected, err
	}
	if !created {
		return Duplicate, nil
	}

	s.logger.Info("video scheduled", zap.String("url", canonical))
	return Accepted, nil
}

// TrackCollection puts a channel or playlist under tracking. A URL that
// could be either a video or a collection is taken as the collection.
func (s *SubmissionService) TrackCollection(ctx context.Context, rawURL string) (Outcome, error) {
	kind := classify.Classify(rawURL)
	if kind != classify.Collection && kind != classify.VideoOrCollection {
		s.logger.Info("rejected collection submission",
			zap.String("url", rawURL),
			zap.Stringer("kind", kind))
		return Rejected, nil
	}

	created, err := s.collections.Insert(ctx, rawURL)
	if err != nil {
		return Rejected, err
	}
	if !created {
		return Duplicate, nil
	}

	s.logger.Info("collection tracked", zap.String("url", rawURL))
	return Accepted, nil
}
