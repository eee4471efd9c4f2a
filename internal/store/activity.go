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

// ActivityFilter narrows activity listings. Nil fields are ignored.
type ActivityFilter struct {
	ID            *uuid.UUID
	Title         *string
	Type          *types.QuestionType
	Difficulty    *float64
	DifficultyMin *float64
	DifficultyMax *float64
}

// ActivityRepository handles persistence for activities.
type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// CreateMany inserts the activities in one transaction so a single bad
// entry rejects the whole batch.
func (r *ActivityRepository) CreateMany(ctx context.Context, activities []types.Activity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO activities (id, title, description, activity_type, difficulty)
		VALUES ($1, $2, $3, $4, $5)`
	for _, activity := range activities {
		if _, err := tx.ExecContext(ctx, query,
			activity.ID,
			activity.Title,
			activity.Description,
			activity.Type,
			activity.Difficulty,
		); err != nil {
			return wrapError(err)
		}
	}

	return tx.Commit()
}

func (r *ActivityRepository) Get(ctx context.Context, id uuid.UUID) (types.Activity, error) {
	const query = `
		SELECT id, title, description, activity_type, difficulty
		FROM activities
		WHERE id = $1`
	var activity types.Activity
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&activity.ID,
		&activity.Title,
		&activity.Description,
		&activity.Type,
		&activity.Difficulty,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Activity{}, ErrNotFound
		}
		return types.Activity{}, err
	}
	return activity, nil
}

func (r *ActivityRepository) List(ctx context.Context, filter ActivityFilter) ([]types.Activity, error) {
	query := `SELECT id, title, description, activity_type, difficulty FROM activities`
	conds, args := activityConds(filter)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY title"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]types.Activity, 0)
	for rows.Next() {
		var activity types.Activity
		if err := rows.Scan(
			&activity.ID,
			&activity.Title,
			&activity.Description,
			&activity.Type,
			&activity.Difficulty,
		); err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

func (r *ActivityRepository) Update(ctx context.Context, activity types.Activity) error {
	const query = `
		UPDATE activities
		SET title = $1,
			description = $2,
			activity_type = $3,
			difficulty = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query,
		activity.Title,
		activity.Description,
		activity.Type,
		activity.Difficulty,
		activity.ID,
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

func (r *ActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM activities WHERE id = $1`
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

func activityConds(filter ActivityFilter) ([]string, []any) {
	var conds []string
	var args []any
	if filter.ID != nil {
		args = append(args, *filter.ID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.Title != nil {
		args = append(args, *filter.Title)
		conds = append(conds, fmt.Sprintf("title = $%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		conds = append(conds, fmt.Sprintf("activity_type = $%d", len(args)))
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
