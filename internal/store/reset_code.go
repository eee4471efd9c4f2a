package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// ResetCodeRepository handles persistence for password-reset codes.
type ResetCodeRepository struct {
	db *sql.DB
}

func NewResetCodeRepository(db *sql.DB) *ResetCodeRepository {
	return &ResetCodeRepository{db: db}
}

// Upsert stores the code for the user, replacing any previous one so
// only the most recently issued code stays redeemable.
func (r *ResetCodeRepository) Upsert(ctx context.Context, code types.ResetCode) error {
	const query = `
		INSERT INTO user_codes (user_email, code, expiration)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_email) DO UPDATE
		SET code = EXCLUDED.code,
			expiration = EXCLUDED.expiration`
	if _, err := r.db.ExecContext(ctx, query,
		code.UserEmail,
		code.CodeHash,
		code.Expiration,
	); err != nil {
		return wrapError(err)
	}
	return nil
}

func (r *ResetCodeRepository) Get(ctx context.Context, userEmail string) (types.ResetCode, error) {
	const query = `
		SELECT user_email, code, expiration
		FROM user_codes
		WHERE user_email = $1`
	var code types.ResetCode
	err := r.db.QueryRowContext(ctx, query, userEmail).Scan(
		&code.UserEmail,
		&code.CodeHash,
		&code.Expiration,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.ResetCode{}, ErrNotFound
		}
		return types.ResetCode{}, err
	}
	return code, nil
}

func (r *ResetCodeRepository) Delete(ctx context.Context, userEmail string) error {
	const query = `DELETE FROM user_codes WHERE user_email = $1`
	result, err := r.db.ExecContext(ctx, query, userEmail)
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
