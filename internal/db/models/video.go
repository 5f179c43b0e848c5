package models

import (
	"time"

	"github.com/google/uuid"
)

// VideoStatus is the archival state machine for a video record.
type VideoStatus string

const (
	StatusScheduledForArchival VideoStatus = "scheduled_for_archival"
	StatusBeingArchived        VideoStatus = "being_archived"
	StatusArchived             VideoStatus = "archived"
	StatusArchivationFailed    VideoStatus = "archivation_failed"
)

// Video is an archived-item record, written exclusively by the archival
// worker. A duration of 0 is a sentinel for "unknown at capture time"
// (typically an in-progress live stream) and is patched after the download
// completes.
type Video struct {
	ID           int32       `db:"id" json:"id"`
	Title        string      `db:"title" json:"title"`
	Channel      string      `db:"channel" json:"channel"`
	Views        int64       `db:"views" json:"views"`
	UploadDate   time.Time   `db:"upload_date" json:"uploadDate"`
	ArchivedDate time.Time   `db:"archived_date" json:"archivedDate"`
	Duration     int32       `db:"duration" json:"duration"`
	OriginalURL  string      `db:"original_url" json:"originalUrl"`
	Status       VideoStatus `db:"status" json:"status"`
	FileID       uuid.UUID   `db:"file_id" json:"fileId"`
	ThumbnailID  uuid.UUID   `db:"thumbnail_id" json:"thumbnailId"`
}

// VideoWithSize pairs a video with the current size of its media file,
// as returned by the search endpoint.
type VideoWithSize struct {
	Video
	VideoSize int64 `json:"videoSize"`
}
