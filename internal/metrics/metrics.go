// Package metrics exposes Prometheus instruments for the queue workers
// and the fan-out path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueueClaims counts successful claim operations per queue.
	QueueClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "video_archive",
		Name:      "queue_claims_total",
		Help:      "Queue items claimed by workers.",
	}, []string{"queue"})

	// QueueRetries counts items pushed back for a later attempt.
	QueueRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "video_archive",
		Name:      "queue_retries_total",
		Help:      "Queue items rescheduled after a failed attempt.",
	}, []string{"queue"})

	// VideosArchived counts completed archivals.
	VideosArchived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "video_archive",
		Name:      "videos_archived_total",
		Help:      "Videos archived end to end.",
	})

	// ArchiveFailures counts archival attempts that errored.
	ArchiveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "video_archive",
		Name:      "archive_failures_total",
		Help:      "Archival attempts that failed and were rescheduled.",
	})

	// DiscoveredVideos counts new videos found while checking tracked
	// collections.
	DiscoveredVideos = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "video_archive",
		Name:      "discovered_videos_total",
		Help:      "Videos discovered in tracked collections and enqueued.",
	})

	// EventsDelivered counts change events broadcast to subscribers.
	EventsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "video_archive",
		Name:      "change_events_total",
		Help:      "Row change events delivered to the fan-out hub.",
	}, []string{"channel"})

	// ArchiveDuration observes end-to-end archival time.
	ArchiveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "video_archive",
		Name:      "archive_duration_seconds",
		Help:      "Wall time of one archival attempt.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})
)
