package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// ytdlpResolver shells out to yt-dlp in simulate mode. A single -J call
// returns the full metadata document for either a video or a playlist.
type ytdlpResolver struct {
	binary string
	logger *zap.Logger
}

// NewYtdlp creates a Resolver backed by the yt-dlp binary.
func NewYtdlp(logger *zap.Logger) Resolver {
	return &ytdlpResolver{
		binary: "yt-dlp",
		logger: logger,
	}
}

func (r *ytdlpResolver) dump(ctx context.Context, url string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.binary, "-J", url)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		r.logger.Warn("metadata dump failed",
			zap.String("url", url),
			zap.String("stderr", stderr.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrUnresolvable, url)
	}

	return stdout.Bytes(), nil
}

func (r *ytdlpResolver) ResolveVideo(ctx context.Context, url string) (*Metadata, error) {
	raw, err := r.dump(ctx, url)
	if err != nil {
		return nil, err
	}

	meta, err := parseVideoDump(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnresolvable, url, err)
	}
	return meta, nil
}

func (r *ytdlpResolver) ResolveCollection(ctx context.Context, url string) ([]string, error) {
	raw, err := r.dump(ctx, url)
	if err != nil {
		return nil, err
	}

	urls, err := parseCollectionDump(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnresolvable, url, err)
	}
	return urls, nil
}

// videoDump mirrors the subset of yt-dlp's JSON output the archive needs.
type videoDump struct {
	Type           string  `json:"_type"`
	Title          string  `json:"title"`
	Channel        string  `json:"channel"`
	Uploader       string  `json:"uploader"`
	ViewCount      int64   `json:"view_count"`
	UploadDate     string  `json:"upload_date"`
	Duration       float64 `json:"duration"`
	Thumbnail      string  `json:"thumbnail"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	WebpageURL     string  `json:"webpage_url"`
}

type collectionDump struct {
	Type    string             `json:"_type"`
	Entries []*collectionEntry `json:"entries"`
}

type collectionEntry struct {
	URL        string `json:"url"`
	WebpageURL string `json:"webpage_url"`
}

func parseVideoDump(raw []byte) (*Metadata, error) {
	var dump videoDump
	if err := json.Unmarshal(raw, &dump); err != nil {
		return nil, err
	}
	if dump.Type == "playlist" {
		return nil, fmt.Errorf("url resolves to a playlist, not a video")
	}

	channel := dump.Channel
	if channel == "" {
		channel = dump.Uploader
	}

	var uploadDate time.Time
	if dump.UploadDate != "" {
		parsed, err := time.Parse("20060102", dump.UploadDate)
		if err != nil {
			return nil, fmt.Errorf("bad upload_date %q: %w", dump.UploadDate, err)
		}
		uploadDate = parsed
	}

	size := dump.Filesize
	if size == 0 {
		size = dump.FilesizeApprox
	}

	return &Metadata{
		Title:            dump.Title,
		Channel:          channel,
		Views:            dump.ViewCount,
		UploadDate:       uploadDate,
		Duration:         int32(dump.Duration),
		ThumbnailURL:     dump.Thumbnail,
		FilesizeEstimate: size,
		WebpageURL:       dump.WebpageURL,
	}, nil
}

func parseCollectionDump(raw []byte) ([]string, error) {
	var dump collectionDump
	if err := json.Unmarshal(raw, &dump); err != nil {
		return nil, err
	}
	if dump.Type != "playlist" {
		return nil, fmt.Errorf("url resolves to a single video, not a collection")
	}

	urls := make([]string, 0, len(dump.Entries))
	for _, entry := range dump.Entries {
		// Scheduled streams appear as null entries in the dump.
		if entry == nil {
			continue
		}
		u := entry.WebpageURL
		if u == "" {
			u = entry.URL
		}
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}
