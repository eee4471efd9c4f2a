package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// memBackend keeps objects in a map so the wrapper can be tested without a
// running MinIO or GCS.
type memBackend struct {
	objects      map[string][]byte
	contentTypes map[string]string
	puts         int
}

func newMemBackend() *memBackend {
	return &memBackend{
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
	}
}

func (m *memBackend) EnsureBucket(ctx context.Context) error { return nil }

func (m *memBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.contentTypes[key] = contentType
	m.puts++
	return nil
}

func (m *memBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBackend) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memBackend) Bucket() string { return "lamarato-reports" }

func TestStorageRoundTrip(t *testing.T) {
	backend := newMemBackend()
	archive := NewStorage(backend)
	ctx := context.Background()

	content := []byte("%PDF-1.4 informe")
	key := "reports/maria.serra@example.com/informe.pdf"
	if err := archive.Put(ctx, key, bytes.NewReader(content), int64(len(content)), "application/pdf"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	r, err := archive.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, err := io.ReadAll(r)
	_ = r.Close()
	if err != nil {
		t.Fatalf("read object: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("object content = %q, want %q", got, content)
	}
	if ct := backend.contentTypes[key]; ct != "application/pdf" {
		t.Fatalf("content type = %q, want application/pdf", ct)
	}

	if err := archive.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := archive.Get(ctx, key); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Get after delete = %v, want ErrObjectNotFound", err)
	}
}

func TestStorageNormalizesKeys(t *testing.T) {
	backend := newMemBackend()
	archive := NewStorage(backend)

	audio := []byte{0x1a, 0x45, 0xdf, 0xa3}
	key := "/transcriptions/sess-42/0.webm"
	if err := archive.Put(context.Background(), key, bytes.NewReader(audio), int64(len(audio)), "audio/webm"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, ok := backend.objects["transcriptions/sess-42/0.webm"]; !ok {
		t.Fatalf("leading slash should be stripped, stored keys: %v", keysOf(backend.objects))
	}
	if _, ok := backend.objects[key]; ok {
		t.Fatal("object stored under the raw slash-prefixed key")
	}
}

func TestStorageRejectsBlankKeys(t *testing.T) {
	backend := newMemBackend()
	archive := NewStorage(backend)
	ctx := context.Background()

	for _, key := range []string{"", "   ", "/"} {
		if err := archive.Put(ctx, key, strings.NewReader("x"), 1, "text/plain"); err == nil {
			t.Errorf("Put(%q) accepted a blank key", key)
		}
		if _, err := archive.Get(ctx, key); err == nil {
			t.Errorf("Get(%q) accepted a blank key", key)
		}
		if err := archive.Delete(ctx, key); err == nil {
			t.Errorf("Delete(%q) accepted a blank key", key)
		}
	}
	if backend.puts != 0 {
		t.Fatalf("backend received %d puts for blank keys", backend.puts)
	}
}

func TestStorageDefaultsContentType(t *testing.T) {
	backend := newMemBackend()
	archive := NewStorage(backend)

	if err := archive.Put(context.Background(), "reports/sense-tipus.bin", strings.NewReader("dades"), 5, ""); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ct := backend.contentTypes["reports/sense-tipus.bin"]; ct != "application/octet-stream" {
		t.Fatalf("content type = %q, want application/octet-stream", ct)
	}
}

func TestStorageForwardsBucket(t *testing.T) {
	archive := NewStorage(newMemBackend())
	if got := archive.Bucket(); got != "lamarato-reports" {
		t.Fatalf("Bucket() = %q, want lamarato-reports", got)
	}
}

func keysOf(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
