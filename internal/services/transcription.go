package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// TranscriptionRepository defines persistence operations for speech session
// fragments and consolidated sessions.
type TranscriptionRepository interface {
	UpsertChunk(ctx context.Context, chunk types.TranscriptionChunk) (types.TranscriptionChunk, error)
	ListChunks(ctx context.Context, sessionID string) ([]types.TranscriptionChunk, error)
	DeleteChunks(ctx context.Context, sessionID string) error
	CreateSession(ctx context.Context, session types.TranscriptionSession) (types.TranscriptionSession, error)
	ListSessionsByPatient(ctx context.Context, patientEmail string) ([]types.TranscriptionSession, error)
}

// BlobArchive persists binary artifacts in object storage.
type BlobArchive interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// AddChunkRequest is one incremental fragment of a speech session. Audio is
// the optional raw recording, transported base64-encoded.
type AddChunkRequest struct {
	SessionID  string             `json:"session_id"`
	ChunkIndex int                `json:"chunk_index"`
	Text       string             `json:"text"`
	Metrics    map[string]float64 `json:"metrics"`
	Audio      []byte             `json:"audio"`
}

// TranscriptionService assembles speech sessions out of streamed fragments
// and derives the language metrics the recommendation strategies consume.
type TranscriptionService struct {
	transcripts TranscriptionRepository
	patients    PatientRepository
	archive     BlobArchive
	logger      *slog.Logger
}

// NewTranscriptionService builds the service. The archive may be nil, in
// which case raw audio is dropped after analysis.
func NewTranscriptionService(transcripts TranscriptionRepository, patients PatientRepository, archive BlobArchive, logger *slog.Logger) *TranscriptionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscriptionService{transcripts: transcripts, patients: patients, archive: archive, logger: logger}
}

// AddChunk stores one fragment of an in-flight session. Re-sending an index
// overwrites the previous fragment, so clients can retry safely.
func (s *TranscriptionService) AddChunk(ctx context.Context, patientEmail string, req AddChunkRequest) (map[string]any, error) {
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" || strings.TrimSpace(req.Text) == "" {
		return nil, Message(ErrValidation, "Falten camps obligatoris.")
	}
	if req.ChunkIndex < 0 {
		return nil, Message(ErrValidation, "L'índex del fragment no pot ser negatiu.")
	}
	if _, err := s.patients.Get(ctx, patientEmail); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Message(store.ErrNotFound, "Pacient no trobat.")
		}
		return nil, err
	}
	analysis := make(map[string]any)
	for key, value := range AnalyzeText(req.Text) {
		analysis[key] = value
	}
	for key, value := range req.Metrics {
		analysis[key] = value
	}
	stored, err := s.transcripts.UpsertChunk(ctx, types.TranscriptionChunk{
		SessionID:  req.SessionID,
		ChunkIndex: req.ChunkIndex,
		Text:       req.Text,
		Analysis:   analysis,
	})
	if err != nil {
		return nil, err
	}
	s.archiveAudio(ctx, patientEmail, req)
	return map[string]any{
		"status":      "stored",
		"session_id":  stored.SessionID,
		"chunk_index": stored.ChunkIndex,
		"analysis":    stored.Analysis,
	}, nil
}

// Complete consolidates every stored fragment of the session into a single
// transcription, persists the aggregated metrics and discards the fragments.
func (s *TranscriptionService) Complete(ctx context.Context, patientEmail, sessionID string) (map[string]any, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, Message(ErrValidation, "Falten camps obligatoris.")
	}
	if _, err := s.patients.Get(ctx, patientEmail); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Message(store.ErrNotFound, "Pacient no trobat.")
		}
		return nil, err
	}
	chunks, err := s.transcripts.ListChunks(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, Message(store.ErrNotFound, "No s'ha trobat cap fragment per a aquesta sessió.")
	}
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, strings.TrimSpace(chunk.Text))
	}
	transcription := strings.Join(parts, " ")

	textMetrics := AnalyzeText(transcription)
	analysis := make(map[string]any, len(textMetrics))
	for key, value := range textMetrics {
		analysis[key] = value
	}
	for key, value := range meanChunkMetrics(chunks, textMetrics) {
		analysis[key] = value
	}

	metrics := make(map[string]float64, len(analysis))
	for key, value := range analysis {
		if v, ok := value.(float64); ok {
			metrics[key] = v
		}
	}
	if _, err := s.transcripts.CreateSession(ctx, types.TranscriptionSession{
		PatientEmail: patientEmail,
		Metrics:      metrics,
	}); err != nil {
		return nil, err
	}
	if err := s.transcripts.DeleteChunks(ctx, sessionID); err != nil {
		s.logger.Warn("failed to delete consolidated chunks", "session_id", sessionID, "error", err)
	}
	return map[string]any{
		"status":        "completed",
		"transcription": transcription,
		"analysis":      analysis,
	}, nil
}

func (s *TranscriptionService) archiveAudio(ctx context.Context, patientEmail string, req AddChunkRequest) {
	if s.archive == nil || len(req.Audio) == 0 {
		return
	}
	key := fmt.Sprintf("transcriptions/%s/%s/%05d.webm", patientEmail, req.SessionID, req.ChunkIndex)
	reader := bytes.NewReader(req.Audio)
	if err := s.archive.Put(ctx, key, reader, int64(len(req.Audio)), "audio/webm"); err != nil {
		s.logger.Warn("failed to archive audio fragment", "key", key, "error", err)
	}
}

// meanChunkMetrics averages the client-supplied acoustic metrics across the
// session's fragments. Keys the server derives from text are skipped, those
// are recomputed over the full transcription instead.
func meanChunkMetrics(chunks []types.TranscriptionChunk, textMetrics map[string]float64) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, chunk := range chunks {
		for key, value := range chunk.Analysis {
			if _, derived := textMetrics[key]; derived {
				continue
			}
			v, ok := value.(float64)
			if !ok {
				continue
			}
			sums[key] += v
			counts[key]++
		}
	}
	out := make(map[string]float64, len(sums))
	for key, sum := range sums {
		out[key] = sum / float64(counts[key])
	}
	return out
}
