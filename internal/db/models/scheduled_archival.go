package models

import "time"

// ScheduledArchival is a single-item work queue entry. A row lives from
// submission (or discovery) until the archival worker finishes the download
// and deletes it.
type ScheduledArchival struct {
	ID          int32     `db:"id" json:"id"`
	URL         string    `db:"url" json:"url"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduledAt"`

	// NotBefore is the earliest time this entry may be claimed. It is
	// advanced to now+lease on claim and to now+backoff after a failed
	// resolution, so an abandoned claim expires on its own.
	NotBefore time.Time `db:"not_before" json:"notBefore"`
}
