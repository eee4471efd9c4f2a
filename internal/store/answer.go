package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// AnswerRepository handles persistence for answered questions.
type AnswerRepository struct {
	db *sql.DB
}

func NewAnswerRepository(db *sql.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

func (r *AnswerRepository) Create(ctx context.Context, answer types.QuestionAnswer) (types.QuestionAnswer, error) {
	if answer.Analysis == nil {
		answer.Analysis = map[string]any{}
	}
	analysisJSON, err := json.Marshal(answer.Analysis)
	if err != nil {
		return types.QuestionAnswer{}, err
	}
	if answer.AnsweredAt.IsZero() {
		answer.AnsweredAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO questions_answered (patient_email, question_id, answered_at, answer_text, analysis)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query,
		answer.PatientEmail,
		answer.QuestionID,
		answer.AnsweredAt,
		answer.AnswerText,
		analysisJSON,
	); err != nil {
		return types.QuestionAnswer{}, wrapError(err)
	}
	return answer, nil
}

// ListByPatient returns the patient's answers joined with question
// metadata, oldest first.
func (r *AnswerRepository) ListByPatient(ctx context.Context, patientEmail string) ([]types.QuestionAnswer, error) {
	const query = `
		SELECT qa.patient_email, qa.question_id, qa.answered_at, qa.answer_text, qa.analysis,
			q.text, q.question_type
		FROM questions_answered qa
		JOIN questions q ON q.id = qa.question_id
		WHERE qa.patient_email = $1
		ORDER BY qa.answered_at`
	rows, err := r.db.QueryContext(ctx, query, patientEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := make([]types.QuestionAnswer, 0)
	for rows.Next() {
		var answer types.QuestionAnswer
		var analysisJSON []byte
		if err := rows.Scan(
			&answer.PatientEmail,
			&answer.QuestionID,
			&answer.AnsweredAt,
			&answer.AnswerText,
			&analysisJSON,
			&answer.QuestionText,
			&answer.QuestionType,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(analysisJSON, &answer.Analysis)
		answers = append(answers, answer)
	}
	return answers, rows.Err()
}
