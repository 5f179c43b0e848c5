package worker

import (
	"context"
	"os"
	"path/filepath"

	"github.com/media-vault/video-archive-go/internal/resolver"
)

// fakeResolver answers from canned metadata keyed by URL. When a queue
// of answers exists for a URL it is consumed first, one per call, so
// tests can model metadata that changes between resolves.
type fakeResolver struct {
	videos      map[string]*resolver.Metadata
	videoSeq    map[string][]*resolver.Metadata
	collections map[string][]string
	calls       []string
}

func (f *fakeResolver) ResolveVideo(_ context.Context, url string) (*resolver.Metadata, error) {
	f.calls = append(f.calls, url)

	if seq := f.videoSeq[url]; len(seq) > 0 {
		meta := seq[0]
		f.videoSeq[url] = seq[1:]
		copy := *meta
		return &copy, nil
	}

	meta, ok := f.videos[url]
	if !ok {
		return nil, resolver.ErrUnresolvable
	}
	copy := *meta
	return &copy, nil
}

func (f *fakeResolver) ResolveCollection(_ context.Context, url string) ([]string, error) {
	members, ok := f.collections[url]
	if !ok {
		return nil, resolver.ErrUnresolvable
	}
	return members, nil
}

// fakeDownloader writes a small file instead of shelling out.
type fakeDownloader struct {
	content string
	fail    bool
	calls   int
}

func (f *fakeDownloader) Download(_ context.Context, _, destDir, baseName string) (string, error) {
	f.calls++
	if f.fail {
		return "", os.ErrNotExist
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, baseName+".mkv")
	if err := os.WriteFile(dest, []byte(f.content), 0o644); err != nil {
		return "", err
	}
	return dest, nil
}
