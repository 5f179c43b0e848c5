package worker

import (
	"context"

	"github.com/media-vault/video-archive-go/internal/classify"
	"github.com/media-vault/video-archive-go/internal/config"
	"github.com/media-vault/video-archive-go/internal/db"
	"github.com/media-vault/video-archive-go/internal/db/repository"
	"github.com/media-vault/video-archive-go/internal/metrics"
	"github.com/media-vault/video-archive-go/internal/resolver"

	"go.uber.org/zap"
)

// Tracker periodically re-checks tracked collections for new videos and
// feeds them into the archival queue. Videos that are already archived
// or already queued are skipped; nested collections found inside a
// collection are themselves put under tracking.
type Tracker struct {
	collections repository.TrackedCollectionRepository
	archivals   repository.ScheduledArchivalRepository
	videos      repository.VideoRepository
	resolver    resolver.Resolver
	cfg         config.TrackerConfig
	logger      *zap.Logger
}

// NewTracker wires a Tracker from its dependencies.
func NewTracker(
	collections repository.TrackedCollectionRepository,
	archivals repository.ScheduledArchivalRepository,
	videos repository.VideoRepository,
	res resolver.Resolver,
	cfg config.TrackerConfig,
	logger *zap.Logger,
) *Tracker {
	return &Tracker{
		collections: collections,
		archivals:   archivals,
		videos:      videos,
		resolver:    res,
		cfg:         cfg,
		logger:      logger,
	}
}

// Check is the Task run by the tracker pool. It claims at most one
// collection whose recheck interval has elapsed.
func (t *Tracker) Check(ctx context.Context) (bool, error) {
	item, err := t.collections.Dequeue(ctx, t.cfg.RecheckInterval)
	if db.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	metrics.QueueClaims.WithLabelValues("tracked_collections").Inc()

	log := t.logger.With(zap.Int32("collectionId", item.ID), zap.String("url", item.URL))
	log.Info("checking tracked collection")

	members, err := t.resolver.ResolveCollection(ctx, item.URL)
	if err != nil {
		// The claim already pushed last_checked forward, so a failed
		// check naturally retries after the recheck interval.
		log.Warn("collection check failed", zap.Error(err))
		return true, nil
	}

	known, err := t.knownURLs(ctx)
	if err != nil {
		return true, err
	}

	var enqueued, nested int
	for _, member := range members {
		kind := classify.Classify(member)
		switch kind {
		case classify.Collection:
			created, err := t.collections.Insert(ctx, member)
			if err != nil {
				return true, err
			}
			if created {
				nested++
			}

		case classify.Video, classify.VideoOrCollection:
			if kind == classify.VideoOrCollection {
				// A watch URL carrying a playlist is both things at
				// once: track the playlist and archive the video.
				created, err := t.collections.Insert(ctx, member)
				if err != nil {
					return true, err
				}
				if created {
					nested++
				}
			}

			canonical := classify.CanonicalVideoURL(member)
			if known[canonical] {
				continue
			}
			created, err := t.archivals.Enqueue(ctx, canonical)
			if err != nil {
				return true, err
			}
			if created {
				known[canonical] = true
				enqueued++
				metrics.DiscoveredVideos.Inc()
			}

		default:
			log.Debug("skipping unrecognized member", zap.String("member", member))
		}
	}

	log.Info("collection checked",
		zap.Int("members", len(members)),
		zap.Int("enqueued", enqueued),
		zap.Int("nestedCollections", nested))
	return true, nil
}

// knownURLs is the union of already-archived and already-queued video
// URLs.
func (t *Tracker) knownURLs(ctx context.Context) (map[string]bool, error) {
	archived, err := t.videos.OriginalURLs(ctx)
	if err != nil {
		return nil, err
	}
	queued, err := t.archivals.URLs(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(archived)+len(queued))
	for _, u := range archived {
		known[u] = true
	}
	for _, u := range queued {
		known[u] = true
	}
	return known, nil
}
