package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
)

func newTranscriptionTestService(s *memStore, archive BlobArchive) *TranscriptionService {
	return NewTranscriptionService(memTranscripts{s}, memPatients{s}, archive, nil)
}

func TestAddChunk(t *testing.T) {
	s := newMemStore()
	s.addPatient(testPatient("pacient@example.com"))
	service := newTranscriptionTestService(s, nil)
	ctx := context.Background()

	payload, err := service.AddChunk(ctx, "pacient@example.com", AddChunkRequest{
		SessionID:  "sessio-1",
		ChunkIndex: 0,
		Text:       "primer fragment",
		Metrics:    map[string]float64{"raw_latency": 2},
	})
	if err != nil {
		t.Fatalf("AddChunk: %v", err)
	}
	if payload["status"] != "stored" || payload["session_id"] != "sessio-1" {
		t.Errorf("payload = %v", payload)
	}
	analysis, ok := payload["analysis"].(map[string]any)
	if !ok {
		t.Fatalf("analysis = %T", payload["analysis"])
	}
	if analysis["token_count"] != 2.0 {
		t.Errorf("token_count = %v, want 2", analysis["token_count"])
	}
	if analysis["raw_latency"] != 2.0 {
		t.Errorf("raw_latency = %v, want the client metric", analysis["raw_latency"])
	}
}

func TestAddChunkOverwritesIndex(t *testing.T) {
	s := newMemStore()
	s.addPatient(testPatient("pacient@example.com"))
	service := newTranscriptionTestService(s, nil)
	ctx := context.Background()

	for _, text := range []string{"primera versió", "versió corregida"} {
		if _, err := service.AddChunk(ctx, "pacient@example.com", AddChunkRequest{
			SessionID: "sessio-1", ChunkIndex: 0, Text: text,
		}); err != nil {
			t.Fatalf("AddChunk(%q): %v", text, err)
		}
	}

	chunks, err := (memTranscripts{s}).ListChunks(ctx, "sessio-1")
	if err != nil {
		t.Fatalf("ListChunks: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want the retry collapsed into 1", len(chunks))
	}
	if chunks[0].Text != "versió corregida" {
		t.Errorf("Text = %q, want the latest version", chunks[0].Text)
	}
}

func TestAddChunkValidation(t *testing.T) {
	s := newMemStore()
	s.addPatient(testPatient("pacient@example.com"))
	service := newTranscriptionTestService(s, nil)
	ctx := context.Background()

	if _, err := service.AddChunk(ctx, "pacient@example.com", AddChunkRequest{Text: "hola"}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing session = %v, want ErrValidation", err)
	}
	if _, err := service.AddChunk(ctx, "pacient@example.com", AddChunkRequest{SessionID: "s", Text: "  "}); !errors.Is(err, ErrValidation) {
		t.Errorf("blank text = %v, want ErrValidation", err)
	}
	if _, err := service.AddChunk(ctx, "pacient@example.com", AddChunkRequest{SessionID: "s", ChunkIndex: -1, Text: "hola"}); !errors.Is(err, ErrValidation) {
		t.Errorf("negative index = %v, want ErrValidation", err)
	}
	if _, err := service.AddChunk(ctx, "ningu@example.com", AddChunkRequest{SessionID: "s", Text: "hola"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown patient = %v, want not found", err)
	}
}

func TestAddChunkArchivesAudio(t *testing.T) {
	s := newMemStore()
	s.addPatient(testPatient("pacient@example.com"))
	archive := &recordingArchive{}
	service := newTranscriptionTestService(s, archive)

	if _, err := service.AddChunk(context.Background(), "pacient@example.com", AddChunkRequest{
		SessionID:  "sessio-1",
		ChunkIndex: 3,
		Text:       "fragment amb àudio",
		Audio:      []byte{0x1a, 0x45, 0xdf, 0xa3},
	}); err != nil {
		t.Fatalf("AddChunk: %v", err)
	}
	if len(archive.keys) != 1 {
		t.Fatalf("archived blobs = %d, want 1", len(archive.keys))
	}
	want := "transcriptions/pacient@example.com/sessio-1/00003.webm"
	if archive.keys[0] != want {
		t.Errorf("key = %q, want %q", archive.keys[0], want)
	}
	if archive.sizes[0] != 4 {
		t.Errorf("size = %d, want 4", archive.sizes[0])
	}
}

func TestAddChunkSurvivesArchiveFailure(t *testing.T) {
	s := newMemStore()
	s.addPatient(testPatient("pacient@example.com"))
	archive := &recordingArchive{err: errors.New("bucket gone")}
	service := newTranscriptionTestService(s, archive)

	// Archival is best-effort; the chunk is stored regardless.
	payload, err := service.AddChunk(context.Background(), "pacient@example.com", AddChunkRequest{
		SessionID: "sessio-1", ChunkIndex: 0, Text: "fragment", Audio: []byte{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("AddChunk: %v", err)
	}
	if payload["status"] != "stored" {
		t.Errorf("payload = %v", payload)
	}
}

func TestCompleteSession(t *testing.T) {
	s := newMemStore()
	s.addPatient(testPatient("pacient@example.com"))
	service := newTranscriptionTestService(s, nil)
	ctx := context.Background()

	// Out-of-order arrival; completion must consolidate by index.
	if _, err := service.AddChunk(ctx, "pacient@example.com", AddChunkRequest{
		SessionID: "sessio-1", ChunkIndex: 1, Text: "segon fragment", Metrics: map[string]float64{"raw_latency": 4},
	}); err != nil {
		t.Fatalf("AddChunk: %v", err)
	}
	if _, err := service.AddChunk(ctx, "pacient@example.com", AddChunkRequest{
		SessionID: "sessio-1", ChunkIndex: 0, Text: "primer fragment", Metrics: map[string]float64{"raw_latency": 2},
	}); err != nil {
		t.Fatalf("AddChunk: %v", err)
	}

	payload, err := service.Complete(ctx, "pacient@example.com", "sessio-1")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if payload["status"] != "completed" {
		t.Errorf("status = %v", payload["status"])
	}
	if payload["transcription"] != "primer fragment segon fragment" {
		t.Errorf("transcription = %q", payload["transcription"])
	}
	analysis := payload["analysis"].(map[string]any)
	// Client acoustic metrics average across fragments.
	if analysis["raw_latency"] != 3.0 {
		t.Errorf("raw_latency = %v, want 3", analysis["raw_latency"])
	}
	// Text metrics recompute over the full transcription.
	if analysis["token_count"] != 4.0 {
		t.Errorf("token_count = %v, want 4", analysis["token_count"])
	}

	sessions, err := (memTranscripts{s}).ListSessionsByPatient(ctx, "pacient@example.com")
	if err != nil {
		t.Fatalf("ListSessionsByPatient: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
	if sessions[0].Metrics["raw_latency"] != 3 {
		t.Errorf("session metrics = %v", sessions[0].Metrics)
	}

	// Fragments are discarded after consolidation.
	chunks, err := (memTranscripts{s}).ListChunks(ctx, "sessio-1")
	if err != nil {
		t.Fatalf("ListChunks: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("chunks left after completion = %d", len(chunks))
	}
	if _, err := service.Complete(ctx, "pacient@example.com", "sessio-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Complete = %v, want not found", err)
	}
}

func TestCompleteSessionValidation(t *testing.T) {
	s := newMemStore()
	s.addPatient(testPatient("pacient@example.com"))
	service := newTranscriptionTestService(s, nil)
	ctx := context.Background()

	if _, err := service.Complete(ctx, "pacient@example.com", "  "); !errors.Is(err, ErrValidation) {
		t.Errorf("blank session = %v, want ErrValidation", err)
	}
	if _, err := service.Complete(ctx, "ningu@example.com", "sessio-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown patient = %v, want not found", err)
	}
	_, err := service.Complete(ctx, "pacient@example.com", "sessio-buida")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("empty session = %v, want not found", err)
	}
	if message, _ := ErrorMessage(err); message != "No s'ha trobat cap fragment per a aquesta sessió." {
		t.Errorf("message = %q", message)
	}
}
