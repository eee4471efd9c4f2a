package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
	"github.com/google/uuid"
)

// QuestionFilter narrows question listings. Nil fields are ignored.
type QuestionFilter struct {
	ID            *uuid.UUID
	Type          *types.QuestionType
	Difficulty    *float64
	DifficultyMin *float64
	DifficultyMax *float64
}

// QuestionRepository handles persistence for questions.
type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// CreateMany inserts the questions in one transaction so a single bad
// entry rejects the whole batch.
func (r *QuestionRepository) CreateMany(ctx context.Context, questions []types.Question) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO questions (id, text, question_type, difficulty)
		VALUES ($1, $2, $3, $4)`
	for _, question := range questions {
		if _, err := tx.ExecContext(ctx, query,
			question.ID,
			question.Text,
			question.Type,
			question.Difficulty,
		); err != nil {
			return wrapError(err)
		}
	}

	return tx.Commit()
}

func (r *QuestionRepository) Get(ctx context.Context, id uuid.UUID) (types.Question, error) {
	const query = `
		SELECT id, text, question_type, difficulty
		FROM questions
		WHERE id = $1`
	var question types.Question
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&question.ID,
		&question.Text,
		&question.Type,
		&question.Difficulty,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Question{}, ErrNotFound
		}
		return types.Question{}, err
	}
	return question, nil
}

func (r *QuestionRepository) List(ctx context.Context, filter QuestionFilter) ([]types.Question, error) {
	query := `SELECT id, text, question_type, difficulty FROM questions`
	conds, args := questionConds(filter)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY text"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]types.Question, 0)
	for rows.Next() {
		var question types.Question
		if err := rows.Scan(
			&question.ID,
			&question.Text,
			&question.Type,
			&question.Difficulty,
		); err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

func (r *QuestionRepository) Update(ctx context.Context, question types.Question) error {
	const query = `
		UPDATE questions
		SET text = $1,
			question_type = $2,
			difficulty = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query,
		question.Text,
		question.Type,
		question.Difficulty,
		question.ID,
	)
	if err != nil {
		return wrapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM questions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func questionConds(filter QuestionFilter) ([]string, []any) {
	var conds []string
	var args []any
	if filter.ID != nil {
		args = append(args, *filter.ID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		conds = append(conds, fmt.Sprintf("question_type = $%d", len(args)))
	}
	if filter.Difficulty != nil {
		args = append(args, *filter.Difficulty)
		conds = append(conds, fmt.Sprintf("difficulty = $%d", len(args)))
	}
	if filter.DifficultyMin != nil {
		args = append(args, *filter.DifficultyMin)
		conds = append(conds, fmt.Sprintf("difficulty >= $%d", len(args)))
	}
	if filter.DifficultyMax != nil {
		args = append(args, *filter.DifficultyMax)
		conds = append(conds, fmt.Sprintf("difficulty <= $%d", len(args)))
	}
	return conds, args
}
