package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique constraint rejects a write.
var ErrConflict = errors.New("already exists")

// ErrConstraint is returned when the database rejects a write for
// violating a CHECK, NOT NULL, foreign key, or enum constraint.
var ErrConstraint = errors.New("constraint violated")

// Postgres error classes surfaced as integrity errors.
const (
	codeNotNullViolation    = "23502"
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeInvalidEnumValue    = "22P02"
)

// wrapError translates driver-level integrity errors into the store
// sentinels, annotated with the violated constraint name when the
// driver reports one.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	name := pqErr.Constraint
	if name == "" {
		name = string(pqErr.Code)
	}
	switch pqErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%s: %w", name, ErrConflict)
	case codeNotNullViolation, codeForeignKeyViolation, codeCheckViolation, codeInvalidEnumValue:
		return fmt.Errorf("%s: %w", name, ErrConstraint)
	}
	return err
}

// ConstraintName reports the named constraint behind an integrity
// error, or an empty string when err carries none.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
