package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// ResetCodeRepository defines persistence operations for recovery codes.
// Each account holds at most one live code.
type ResetCodeRepository interface {
	Upsert(ctx context.Context, code types.ResetCode) error
	Get(ctx context.Context, userEmail string) (types.ResetCode, error)
	Delete(ctx context.Context, userEmail string) error
}

// ResetMailer delivers recovery codes to users. Implementations may send
// synchronously or hand the message to a queue.
type ResetMailer interface {
	SendResetCode(ctx context.Context, to, name, code string, validity time.Duration) error
}

const resetCodeLength = 8

// Uppercase plus digits so the code survives being read over the phone.
const resetCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// PasswordResetService implements the forgot/reset password flow. Codes are
// stored bcrypt-hashed, so a database leak does not expose live codes.
type PasswordResetService struct {
	users    UserRepository
	codes    ResetCodeRepository
	mailer   ResetMailer
	validity time.Duration
}

func NewPasswordResetService(users UserRepository, codes ResetCodeRepository, mailer ResetMailer, validity time.Duration) *PasswordResetService {
	if validity <= 0 {
		validity = 15 * time.Minute
	}
	return &PasswordResetService{users: users, codes: codes, mailer: mailer, validity: validity}
}

// Forgot issues a fresh recovery code for the account, mails it and returns
// the validity window in minutes. A new request replaces any previous code.
func (s *PasswordResetService) Forgot(ctx context.Context, email string) (int, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return 0, Message(ErrMissingField, "Falten camps obligatoris.")
	}
	if err := ValidateEmail(email); err != nil {
		return 0, err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, Message(store.ErrNotFound, "Usuari no trobat.")
		}
		return 0, err
	}
	code, err := generateResetCode()
	if err != nil {
		return 0, err
	}
	hash, err := HashPassword(code)
	if err != nil {
		return 0, err
	}
	reset := types.ResetCode{
		UserEmail:  user.Email,
		CodeHash:   hash,
		Expiration: time.Now().UTC().Add(s.validity),
	}
	if err := s.codes.Upsert(ctx, reset); err != nil {
		return 0, err
	}
	if err := s.mailer.SendResetCode(ctx, user.Email, user.Name, code, s.validity); err != nil {
		return 0, err
	}
	return int(s.validity.Minutes()), nil
}

// Reset exchanges a valid recovery code for a new password and burns the
// code. Expired, wrong and missing codes are indistinguishable to the caller.
func (s *PasswordResetService) Reset(ctx context.Context, email, code, newPassword string) error {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" || newPassword == "" {
		return Message(ErrMissingField, "Falten camps obligatoris.")
	}
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Message(store.ErrNotFound, "Usuari no trobat.")
		}
		return err
	}
	stored, err := s.codes.Get(ctx, user.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Message(ErrInvalidCode, "El codi de recuperació no és vàlid o ha caducat.")
		}
		return err
	}
	if stored.Expired(time.Now().UTC()) {
		if err := s.codes.Delete(ctx, user.Email); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return Message(ErrInvalidCode, "El codi de recuperació no és vàlid o ha caducat.")
	}
	if !VerifyPassword(stored.CodeHash, strings.ToUpper(code)) {
		return Message(ErrInvalidCode, "El codi de recuperació no és vàlid o ha caducat.")
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.Email, hash); err != nil {
		return err
	}
	if err := s.codes.Delete(ctx, user.Email); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func generateResetCode() (string, error) {
	max := big.NewInt(int64(len(resetCodeAlphabet)))
	out := make([]byte, resetCodeLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = resetCodeAlphabet[n.Int64()]
	}
	return string(out), nil
}
