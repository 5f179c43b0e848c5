// Package resolver fetches metadata for remote videos and collections
// before anything is downloaded.
package resolver

import (
	"context"
	"errors"
	"time"
)

// ErrUnresolvable means the remote site refused or failed to describe the
// URL. The item should be retried later rather than dropped.
var ErrUnresolvable = errors.New("resolver: url could not be resolved")

// Metadata describes a single remote video.
type Metadata struct {
	Title      string
	Channel    string
	Views      int64
	UploadDate time.Time
	// Duration is zero for live or scheduled streams whose final length
	// is not known yet.
	Duration     int32
	ThumbnailURL string
	// FilesizeEstimate is the expected media size in bytes, zero when the
	// site does not report one.
	FilesizeEstimate int64
	// WebpageURL is the canonical URL the site reports for the video.
	WebpageURL string
}

// Resolver looks up remote metadata.
type Resolver interface {
	// ResolveVideo fetches metadata for a single video URL.
	ResolveVideo(ctx context.Context, url string) (*Metadata, error)

	// ResolveCollection expands a channel or playlist URL into the
	// canonical URLs of its member entries. Entries the site cannot
	// describe yet, such as upcoming streams, are skipped.
	ResolveCollection(ctx context.Context, url string) ([]string, error)
}
