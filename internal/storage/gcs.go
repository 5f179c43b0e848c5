package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"
)

// gcsStore keeps blobs as objects in a Google Cloud Storage bucket.
type gcsStore struct {
	bucket *gcs.BucketHandle
	urlTTL time.Duration
}

// NewGCS creates a BlobStore backed by the named bucket. Signed URLs
// expire after urlTTL.
func NewGCS(ctx context.Context, bucket string, urlTTL time.Duration) (BlobStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &gcsStore{
		bucket: client.Bucket(bucket),
		urlTTL: urlTTL,
	}, nil
}

func (s *gcsStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	w := s.bucket.Object(key).NewWriter(ctx)

	n, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return 0, fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("finalize object %s: %w", key, err)
	}

	return n, nil
}

func (s *gcsStore) PutFile(ctx context.Context, key, srcPath string) (int64, error) {
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

func (s *gcsStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, 0, ErrBlobNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open object %s: %w", key, err)
	}

	return r, r.Attrs.Size, nil
}

func (s *gcsStore) SignedURL(_ context.Context, key string) (string, error) {
	url, err := s.bucket.SignedURL(key, &gcs.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(s.urlTTL),
		Scheme:  gcs.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("sign url for %s: %w", key, err)
	}
	return url, nil
}
