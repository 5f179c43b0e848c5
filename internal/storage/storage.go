// Package storage persists archived media blobs. Keys are opaque; the
// archive uses "<file-uuid>.<extension>".
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNoDirectURL means the backend cannot hand out a URL for direct
// client access and the caller must stream the blob itself.
var ErrNoDirectURL = errors.New("storage: backend has no direct urls")

// ErrBlobNotFound means the key does not exist in the store.
var ErrBlobNotFound = errors.New("storage: blob not found")

// BlobStore is a flat keyed blob container.
type BlobStore interface {
	// Put writes the reader's content under key and returns the number
	// of bytes written.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)

	// PutFile moves a local file into the store under key. The source is
	// consumed on success.
	PutFile(ctx context.Context, key, srcPath string) (int64, error)

	// Open returns the blob content and its size.
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// SignedURL returns a time-limited URL clients can fetch directly.
	// Backends without direct access return ErrNoDirectURL.
	SignedURL(ctx context.Context, key string) (string, error)
}
