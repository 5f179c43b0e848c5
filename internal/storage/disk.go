package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// diskStore keeps blobs as plain files under a single directory.
type diskStore struct {
	root string
}

// NewDisk creates a BlobStore rooted at dir, creating it if needed.
func NewDisk(dir string) (BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &diskStore{root: dir}, nil
}

func (s *diskStore) path(key string) string {
	// Keys are generated internally, but never let one escape the root.
	return filepath.Join(s.root, filepath.Base(key))
}

func (s *diskStore) Put(_ context.Context, key string, r io.Reader) (int64, error) {
	dest := s.path(key)

	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create blob %s: %w", key, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return 0, fmt.Errorf("write blob %s: %w", key, err)
	}

	return n, nil
}

func (s *diskStore) PutFile(ctx context.Context, key, srcPath string) (int64, error) {
	dest := s.path(key)

	// Rename is atomic and free when source and store share a filesystem.
	if err := os.Rename(srcPath, dest); err == nil {
		info, err := os.Stat(dest)
		if err != nil {
			return 0, fmt.Errorf("stat blob %s: %w", key, err)
		}
		return info.Size(), nil
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("open source %s: %w", srcPath, err)
	}
	defer src.Close()

	n, err := s.Put(ctx, key, src)
	if err != nil {
		return 0, err
	}

	os.Remove(srcPath)
	return n, nil
}

func (s *diskStore) Open(_ context.Context, key string) (io.ReadCloser, int64, error) {
	f, err := os.Open(s.path(key))
	if os.IsNotExist(err) {
		return nil, 0, ErrBlobNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open blob %s: %w", key, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat blob %s: %w", key, err)
	}

	return f, info.Size(), nil
}

func (s *diskStore) SignedURL(context.Context, string) (string, error) {
	return "", ErrNoDirectURL
}
