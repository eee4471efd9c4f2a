package store

import (
	"context"
	"database/sql"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// ScoreRepository handles persistence for activity completions.
type ScoreRepository struct {
	db *sql.DB
}

func NewScoreRepository(db *sql.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Create records a completion. The database stamps completed_at and
// enforces the score and seconds ranges.
func (r *ScoreRepository) Create(ctx context.Context, score types.Score) (types.Score, error) {
	const query = `
		INSERT INTO scores (patient_email, activity_id, score, seconds_to_finish)
		VALUES ($1, $2, $3, $4)
		RETURNING completed_at`
	err := r.db.QueryRowContext(ctx, query,
		score.PatientEmail,
		score.ActivityID,
		score.Score,
		score.SecondsToFinish,
	).Scan(&score.CompletedAt)
	if err != nil {
		return types.Score{}, wrapError(err)
	}
	return score, nil
}

// ListByPatient returns the patient's completion history joined with
// activity metadata, oldest first.
func (r *ScoreRepository) ListByPatient(ctx context.Context, patientEmail string) ([]types.Score, error) {
	const query = `
		SELECT s.patient_email, s.activity_id, s.completed_at, s.score, s.seconds_to_finish,
			a.title, a.activity_type
		FROM scores s
		JOIN activities a ON a.id = s.activity_id
		WHERE s.patient_email = $1
		ORDER BY s.completed_at`
	rows, err := r.db.QueryContext(ctx, query, patientEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]types.Score, 0)
	for rows.Next() {
		var score types.Score
		if err := rows.Scan(
			&score.PatientEmail,
			&score.ActivityID,
			&score.CompletedAt,
			&score.Score,
			&score.SecondsToFinish,
			&score.ActivityTitle,
			&score.ActivityType,
		); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}
