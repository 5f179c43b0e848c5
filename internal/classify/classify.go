// Package classify decides what kind of archivable resource a submitted
// URL points at, so the intake layer can route it to the right queue.
package classify

import (
	"net/url"
	"strings"
)

// Kind is the classification of a submitted URL.
type Kind int

const (
	// Invalid URLs cannot be archived at all.
	Invalid Kind = iota
	// Video URLs point at a single archivable item.
	Video
	// Collection URLs point at a channel, playlist, or tab that expands
	// into many items.
	Collection
	// VideoOrCollection URLs are ambiguous, such as a watch link carrying
	// a playlist parameter. The caller decides which interpretation wins.
	VideoOrCollection
)

func (k Kind) String() string {
	switch k {
	case Video:
		return "video"
	case Collection:
		return "collection"
	case VideoOrCollection:
		return "video_or_collection"
	default:
		return "invalid"
	}
}

// collectionSuffixes are channel tab paths that list many videos.
var collectionSuffixes = []string{
	"videos",
	"streams",
	"shorts",
	"podcasts",
	"playlists",
	"releases",
}

// Classify inspects a raw URL and reports what it points at. Only
// youtube.com URLs are currently supported; everything else is Invalid.
func Classify(raw string) Kind {
	u, err := url.Parse(raw)
	if err != nil {
		return Invalid
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host != "youtube.com" {
		return Invalid
	}

	path := strings.Trim(u.Path, "/")
	query := u.Query()

	// Channel tab pages and handles list videos.
	for _, suffix := range collectionSuffixes {
		if path == suffix || strings.HasSuffix(path, "/"+suffix) {
			return Collection
		}
	}
	if strings.HasPrefix(path, "@") || strings.HasPrefix(path, "channel/") {
		return Collection
	}

	hasList := query.Has("list")
	hasVideo := query.Has("v")

	switch {
	case hasList && hasVideo:
		return VideoOrCollection
	case hasList:
		return Collection
	case hasVideo:
		return Video
	case strings.HasPrefix(path, "shorts/") && len(path) > len("shorts/"):
		return Video
	}

	return Invalid
}

// CanonicalVideoURL strips everything from a video URL except the video
// identifier, so that the same video submitted with extra parameters
// (playlist position, timestamps, share trackers) dedupes to one record.
// Non-watch URLs are returned unchanged.
func CanonicalVideoURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	id := u.Query().Get("v")
	if id == "" {
		return raw
	}

	q := url.Values{}
	q.Set("v", id)
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String()
}
