package services

import "errors"

// Sentinel kinds the handlers map to HTTP statuses. The user-facing
// message travels alongside via Message.
var (
	// ErrExists rejects a registration for an email already in use.
	ErrExists = errors.New("already exists")

	// ErrMissingField rejects a request lacking a required field.
	ErrMissingField = errors.New("missing required field")

	// ErrValidation rejects a request whose data fails validation.
	ErrValidation = errors.New("invalid data")

	// ErrUnauthorized rejects bad credentials or tokens.
	ErrUnauthorized = errors.New("invalid credentials")

	// ErrPermission rejects an authenticated caller lacking access.
	ErrPermission = errors.New("permission denied")

	// ErrInvalidCode rejects a wrong or expired password-reset code.
	ErrInvalidCode = errors.New("invalid reset code")
)

// apiError pairs a sentinel kind with the message the API returns.
// The product serves a Catalan-speaking audience, so wire messages
// stay in Catalan while everything else is English.
type apiError struct {
	kind    error
	message string
}

func (e *apiError) Error() string { return e.message }

func (e *apiError) Unwrap() error { return e.kind }

// Message wraps kind with the user-facing message for the response
// body. errors.Is still matches the kind.
func Message(kind error, message string) error {
	return &apiError{kind: kind, message: message}
}

// ErrorMessage extracts the user-facing message carried by err.
// Errors built outside this package report false.
func ErrorMessage(err error) (string, bool) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.message, true
	}
	return "", false
}
