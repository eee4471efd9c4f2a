package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// AdminRepository handles persistence for admins.
type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) Create(ctx context.Context, admin types.Admin) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const userQuery = `
		INSERT INTO users (email, password, name, surname, role)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, userQuery,
		admin.Email,
		admin.PasswordHash,
		admin.Name,
		admin.Surname,
		types.RoleAdmin,
	); err != nil {
		return wrapError(err)
	}

	const adminQuery = `INSERT INTO admins (email) VALUES ($1)`
	if _, err := tx.ExecContext(ctx, adminQuery, admin.Email); err != nil {
		return wrapError(err)
	}

	return tx.Commit()
}

func (r *AdminRepository) Get(ctx context.Context, email string) (types.Admin, error) {
	const query = `
		SELECT u.email, u.password, u.name, u.surname, u.role
		FROM users u
		JOIN admins a ON a.email = u.email
		WHERE u.email = $1`
	var admin types.Admin
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&admin.Email,
		&admin.PasswordHash,
		&admin.Name,
		&admin.Surname,
		&admin.Role,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Admin{}, ErrNotFound
		}
		return types.Admin{}, err
	}
	return admin, nil
}

// Update rewrites the base row. Admins carry no subtype columns.
func (r *AdminRepository) Update(ctx context.Context, admin types.Admin) error {
	const query = `
		UPDATE users
		SET password = $1,
			name = $2,
			surname = $3
		WHERE email = $4`
	result, err := r.db.ExecContext(ctx, query,
		admin.PasswordHash,
		admin.Name,
		admin.Surname,
		admin.Email,
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
