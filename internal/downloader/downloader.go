// Package downloader captures remote videos onto local disk.
package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

// ErrDownloadFailed means the capture did not produce a media file. The
// queue item should be retried later.
var ErrDownloadFailed = errors.New("downloader: download failed")

// Downloader captures a remote video into a local file and returns its
// path. The caller owns the file afterwards.
type Downloader interface {
	Download(ctx context.Context, url, destDir, baseName string) (path string, err error)
}

// ytdlpDownloader shells out to yt-dlp. Capture waits for scheduled
// streams and records live streams from their start, so a single call
// covers regular uploads, premieres, and live broadcasts.
type ytdlpDownloader struct {
	binary string
	logger *zap.Logger
}

// NewYtdlp creates a Downloader backed by the yt-dlp binary.
func NewYtdlp(logger *zap.Logger) Downloader {
	return &ytdlpDownloader{
		binary: "yt-dlp",
		logger: logger,
	}
}

func (d *ytdlpDownloader) Download(ctx context.Context, url, destDir, baseName string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	dest := filepath.Join(destDir, baseName+".mkv")

	cmd := exec.CommandContext(ctx, d.binary,
		"--no-simulate",
		"--wait-for-video", "60",
		"--live-from-start",
		"--embed-thumbnail",
		"--embed-metadata",
		"--embed-chapters",
		"--embed-info-json",
		"--embed-subs",
		"--merge-output-format", "mkv",
		"--remux-video", "mkv",
		"-o", dest,
		url,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	d.logger.Info("starting download", zap.String("url", url), zap.String("dest", dest))

	if err := cmd.Run(); err != nil {
		d.logger.Warn("download failed",
			zap.String("url", url),
			zap.String("stderr", stderr.String()),
			zap.Error(err))
		return "", fmt.Errorf("%w: %s", ErrDownloadFailed, url)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return "", fmt.Errorf("%w: no output file for %s", ErrDownloadFailed, url)
	}

	d.logger.Info("download complete",
		zap.String("url", url),
		zap.Int64("bytes", info.Size()))

	return dest, nil
}
