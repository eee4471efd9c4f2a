// Package storage archives the binary artifacts the API produces: rendered
// PDF reports and the audio fragments of speech sessions. A single bucket
// holds everything, with the object key encoding ownership, for example
// reports/<email>/<file>.pdf or transcriptions/<session>/<index>.webm.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrObjectNotFound is returned when the requested key does not exist in the
// bucket. Backends translate their SDK-specific errors into this one.
var ErrObjectNotFound = errors.New("storage: object not found")

// ObjectStorage is the contract a backend must satisfy. Keys passed to Put,
// Get and Delete are already validated and normalized.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage fronts a backend and enforces the key and content-type rules that
// every backend would otherwise have to repeat.
type Storage struct {
	backend ObjectStorage
}

// NewStorage wraps a backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put stores an object. An empty content type falls back to
// application/octet-stream so the object is never stored untyped.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	clean, err := cleanKey(key)
	if err != nil {
		return err
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}
	return s.backend.Put(ctx, clean, r, size, contentType)
}

// Get opens the object for reading. The caller owns the returned reader.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return s.backend.Get(ctx, clean)
}

// Delete removes the object from the bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	clean, err := cleanKey(key)
	if err != nil {
		return err
	}
	return s.backend.Delete(ctx, clean)
}

// Bucket returns the bucket name of the underlying backend.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// cleanKey rejects blank keys and strips a leading slash. Object keys are
// flat names; a leading slash would silently create a nameless folder on
// some backends.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", errors.New("storage: object key is required")
	}
	return key, nil
}
