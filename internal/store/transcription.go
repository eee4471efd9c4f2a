package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// TranscriptionRepository handles persistence for transcription chunks
// and completed sessions.
type TranscriptionRepository struct {
	db *sql.DB
}

func NewTranscriptionRepository(db *sql.DB) *TranscriptionRepository {
	return &TranscriptionRepository{db: db}
}

// UpsertChunk stages a chunk. Re-sending the same (session, index)
// replaces the previous text and analysis.
func (r *TranscriptionRepository) UpsertChunk(ctx context.Context, chunk types.TranscriptionChunk) (types.TranscriptionChunk, error) {
	var analysisJSON []byte
	if chunk.Analysis != nil {
		var err error
		analysisJSON, err = json.Marshal(chunk.Analysis)
		if err != nil {
			return types.TranscriptionChunk{}, err
		}
	}

	const query = `
		INSERT INTO transcription_chunks (session_id, chunk_index, text, analysis)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, chunk_index) DO UPDATE
		SET text = EXCLUDED.text,
			analysis = EXCLUDED.analysis
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		chunk.SessionID,
		chunk.ChunkIndex,
		chunk.Text,
		analysisJSON,
	).Scan(&chunk.ID, &chunk.CreatedAt)
	if err != nil {
		return types.TranscriptionChunk{}, wrapError(err)
	}
	return chunk, nil
}

// ListChunks returns the staged chunks of a session ordered by index.
func (r *TranscriptionRepository) ListChunks(ctx context.Context, sessionID string) ([]types.TranscriptionChunk, error) {
	const query = `
		SELECT id, session_id, chunk_index, text, analysis, created_at
		FROM transcription_chunks
		WHERE session_id = $1
		ORDER BY chunk_index`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunks := make([]types.TranscriptionChunk, 0)
	for rows.Next() {
		var chunk types.TranscriptionChunk
		var analysisJSON []byte
		if err := rows.Scan(
			&chunk.ID,
			&chunk.SessionID,
			&chunk.ChunkIndex,
			&chunk.Text,
			&analysisJSON,
			&chunk.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(analysisJSON) > 0 {
			_ = json.Unmarshal(analysisJSON, &chunk.Analysis)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// DeleteChunks drops all staged chunks of a session.
func (r *TranscriptionRepository) DeleteChunks(ctx context.Context, sessionID string) error {
	const query = `DELETE FROM transcription_chunks WHERE session_id = $1`
	_, err := r.db.ExecContext(ctx, query, sessionID)
	return err
}

// CreateSession persists the aggregated metrics of a completed session.
func (r *TranscriptionRepository) CreateSession(ctx context.Context, session types.TranscriptionSession) (types.TranscriptionSession, error) {
	metricsJSON, err := json.Marshal(session.Metrics)
	if err != nil {
		return types.TranscriptionSession{}, err
	}

	const query = `
		INSERT INTO transcription_sessions (patient_email, metrics)
		VALUES ($1, $2)
		RETURNING id, created_at`
	err = r.db.QueryRowContext(ctx, query,
		session.PatientEmail,
		metricsJSON,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return types.TranscriptionSession{}, wrapError(err)
	}
	return session, nil
}

// ListSessionsByPatient returns the patient's completed sessions,
// oldest first.
func (r *TranscriptionRepository) ListSessionsByPatient(ctx context.Context, patientEmail string) ([]types.TranscriptionSession, error) {
	const query = `
		SELECT id, patient_email, metrics, created_at
		FROM transcription_sessions
		WHERE patient_email = $1
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, patientEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]types.TranscriptionSession, 0)
	for rows.Next() {
		var session types.TranscriptionSession
		var metricsJSON []byte
		if err := rows.Scan(
			&session.ID,
			&session.PatientEmail,
			&metricsJSON,
			&session.CreatedAt,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(metricsJSON, &session.Metrics)
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}
