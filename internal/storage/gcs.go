package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/config"
)

// GCSClient stores objects in a Google Cloud Storage bucket. Credentials
// come from the file named in the config or, when that is empty, from the
// ambient application default credentials.
type GCSClient struct {
	api       *storage.Client
	bucket    string
	projectID string
}

// NewGCSClient authenticates against GCS and binds to the configured bucket.
func NewGCSClient(ctx context.Context, cfg config.GCSConfig) (*GCSClient, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs: bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	api, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: connect: %w", err)
	}
	return &GCSClient{api: api, bucket: cfg.Bucket, projectID: cfg.ProjectID}, nil
}

// EnsureBucket creates the bucket when it is missing. Creation needs a
// project id; reusing an existing bucket does not.
func (g *GCSClient) EnsureBucket(ctx context.Context) error {
	_, err := g.api.Bucket(g.bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("gcs: check bucket %s: %w", g.bucket, err)
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.New("gcs: project id is required to create the bucket")
	}
	if err := g.api.Bucket(g.bucket).Create(ctx, g.projectID, nil); err != nil {
		return fmt.Errorf("gcs: create bucket %s: %w", g.bucket, err)
	}
	return nil
}

// Put uploads one object. Reports and audio chunks are small, so a zero
// chunk size sends each object in a single request instead of buffering
// multi-megabyte chunks.
func (g *GCSClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	w := g.api.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.ChunkSize = 0
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs: put %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: put %s: %w", key, err)
	}
	return nil
}

// Get opens the object at key, mapping a missing key to ErrObjectNotFound.
func (g *GCSClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := g.api.Bucket(g.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("gcs: get %s: %w", key, err)
	}
	return r, nil
}

// Delete removes the object at key. A key that is already gone is treated
// as deleted.
func (g *GCSClient) Delete(ctx context.Context, key string) error {
	err := g.api.Bucket(g.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs: delete %s: %w", key, err)
	}
	return nil
}

// Bucket returns the bucket this client writes into.
func (g *GCSClient) Bucket() string {
	return g.bucket
}
