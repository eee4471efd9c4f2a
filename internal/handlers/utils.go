package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/services"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

func subjectFromContext(ctx context.Context) (string, error) {
	subject, ok := ctx.Value(contextSubjectKey).(string)
	if !ok || strings.TrimSpace(subject) == "" {
		return "", errors.New("missing subject")
	}
	return subject, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps service and store error kinds onto HTTP statuses.
// Messages attached with services.Message are served as-is; bare errors
// fall back to a generic text for their class so internals never leak.
func writeDomainError(w http.ResponseWriter, err error) {
	message, _ := services.ErrorMessage(err)
	status := http.StatusInternalServerError
	fallback := "S'ha produït un error intern."
	switch {
	case errors.Is(err, services.ErrMissingField),
		errors.Is(err, services.ErrExists),
		errors.Is(err, services.ErrInvalidCode),
		errors.Is(err, store.ErrConflict):
		status, fallback = http.StatusBadRequest, "La petició no és vàlida."
	case errors.Is(err, services.ErrValidation):
		status, fallback = http.StatusUnprocessableEntity, "Les dades no són vàlides."
	case errors.Is(err, services.ErrUnauthorized):
		status, fallback = http.StatusUnauthorized, "No autenticat."
	case errors.Is(err, services.ErrPermission):
		status, fallback = http.StatusForbidden, "No tens permís per accedir a aquest recurs."
	case errors.Is(err, store.ErrNotFound):
		status, fallback = http.StatusNotFound, "Recurs no trobat."
	case errors.Is(err, store.ErrConstraint):
		status = http.StatusInternalServerError
		message, fallback = "", "Error d'integritat de la base de dades."
	}
	if message == "" {
		message = fallback
	}
	writeError(w, status, message)
}

// parseIDQuery reads the mandatory id query parameter used by the
// question and activity write endpoints.
func parseIDQuery(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		return uuid.Nil, errors.New("El paràmetre id és obligatori.")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("L'identificador no és vàlid.")
	}
	return id, nil
}
