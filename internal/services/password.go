package services

import (
	"regexp"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// HashPassword returns the bcrypt hash of a plaintext password. Reset
// codes run through the same hash before storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength enforces the account password policy:
// at least 8 characters with an upper-case letter, a lower-case
// letter and a digit.
func ValidatePasswordStrength(password string) error {
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if len(password) < minPasswordLength || !hasUpper || !hasLower || !hasDigit {
		return Message(ErrValidation,
			"La contrasenya ha de tenir com a mínim 8 caràcters, amb majúscules, minúscules i xifres.")
	}
	return nil
}

// ValidateEmail enforces a plain user@host.tld shape.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return Message(ErrValidation, "El correu electrònic no és vàlid.")
	}
	return nil
}
