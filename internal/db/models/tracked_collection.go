package models

import "time"

// TrackedCollection is a recurring discovery queue entry. Rows are never
// deleted; the discovery worker re-checks each collection on a rolling
// schedule.
type TrackedCollection struct {
	ID                int32     `db:"id" json:"id"`
	URL               string    `db:"url" json:"url"`
	TrackingStartedAt time.Time `db:"tracking_started_at" json:"trackingStartedAt"`

	// LastChecked is nil until the first discovery pass. On claim it is
	// advanced to now+recheck-interval, serving both as the lease and as
	// the recheck schedule.
	LastChecked *time.Time `db:"last_checked" json:"lastChecked"`
}
