package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/services"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
)

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "missing field with message",
			err:     services.Message(services.ErrMissingField, "Falten camps obligatoris."),
			status:  http.StatusBadRequest,
			message: "Falten camps obligatoris.",
		},
		{
			name:    "bare exists falls back",
			err:     services.ErrExists,
			status:  http.StatusBadRequest,
			message: "La petició no és vàlida.",
		},
		{
			name:    "invalid reset code",
			err:     services.Message(services.ErrInvalidCode, "El codi de recuperació no és vàlid o ha caducat."),
			status:  http.StatusBadRequest,
			message: "El codi de recuperació no és vàlid o ha caducat.",
		},
		{
			name:    "validation",
			err:     services.Message(services.ErrValidation, "El gènere ha de ser male, female o others."),
			status:  http.StatusUnprocessableEntity,
			message: "El gènere ha de ser male, female o others.",
		},
		{
			name:    "unauthorized",
			err:     services.Message(services.ErrUnauthorized, "Correu o contrasenya no vàlids."),
			status:  http.StatusUnauthorized,
			message: "Correu o contrasenya no vàlids.",
		},
		{
			name:    "permission",
			err:     services.Message(services.ErrPermission, "No tens permís per accedir a les dades d'aquest pacient."),
			status:  http.StatusForbidden,
			message: "No tens permís per accedir a les dades d'aquest pacient.",
		},
		{
			name:    "not found with message",
			err:     services.Message(store.ErrNotFound, "Pacient no trobat."),
			status:  http.StatusNotFound,
			message: "Pacient no trobat.",
		},
		{
			name:    "bare not found falls back",
			err:     store.ErrNotFound,
			status:  http.StatusNotFound,
			message: "Recurs no trobat.",
		},
		{
			name: "constraint never leaks its name",
			err:  services.Message(store.ErrConstraint, "answers_score_check"),
			// Schema check names are internals; the generic text replaces them.
			status:  http.StatusInternalServerError,
			message: "Error d'integritat de la base de dades.",
		},
		{
			name:    "unknown error",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			message: "S'ha produït un error intern.",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeDomainError(rec, tc.err)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
			if got := rec.Header().Get("Content-Type"); got != "application/json" {
				t.Errorf("Content-Type = %q", got)
			}
			if message := decodeError(t, rec); message != tc.message {
				t.Errorf("message = %q, want %q", message, tc.message)
			}
		})
	}
}

func TestParseIDQuery(t *testing.T) {
	id := uuid.New()
	r := httptest.NewRequest(http.MethodGet, "/?id="+id.String(), nil)
	got, err := parseIDQuery(r)
	if err != nil {
		t.Fatalf("parseIDQuery: %v", err)
	}
	if got != id {
		t.Errorf("id = %v, want %v", got, id)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := parseIDQuery(r); err == nil || err.Error() != "El paràmetre id és obligatori." {
		t.Errorf("missing id error = %v", err)
	}

	r = httptest.NewRequest(http.MethodGet, "/?id=no-uuid", nil)
	if _, err := parseIDQuery(r); err == nil || err.Error() != "L'identificador no és vàlid." {
		t.Errorf("malformed id error = %v", err)
	}
}

func TestSubjectFromContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := subjectFromContext(r.Context()); err == nil {
		t.Error("missing subject accepted")
	}
}

func TestParseQuestionFilter(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?question_type=words&difficulty_min=1.5&difficulty_max=4", nil)
	filter, err := parseQuestionFilter(r)
	if err != nil {
		t.Fatalf("parseQuestionFilter: %v", err)
	}
	if filter.Type == nil || *filter.Type != "WORDS" {
		t.Errorf("Type = %v", filter.Type)
	}
	if filter.DifficultyMin == nil || *filter.DifficultyMin != 1.5 {
		t.Errorf("DifficultyMin = %v", filter.DifficultyMin)
	}
	if filter.DifficultyMax == nil || *filter.DifficultyMax != 4 {
		t.Errorf("DifficultyMax = %v", filter.DifficultyMax)
	}
	if filter.ID != nil || filter.Difficulty != nil {
		t.Errorf("unexpected filter fields set: %+v", filter)
	}

	r = httptest.NewRequest(http.MethodGet, "/?question_type=trivia", nil)
	if _, err := parseQuestionFilter(r); err == nil || err.Error() != "El tipus de pregunta no és vàlid." {
		t.Errorf("bad type error = %v", err)
	}

	r = httptest.NewRequest(http.MethodGet, "/?difficulty=alta", nil)
	if _, err := parseQuestionFilter(r); err == nil || err.Error() != "La dificultat ha de ser un nombre." {
		t.Errorf("bad difficulty error = %v", err)
	}

	r = httptest.NewRequest(http.MethodGet, "/?id=no-uuid", nil)
	if _, err := parseQuestionFilter(r); err == nil || err.Error() != "L'identificador no és vàlid." {
		t.Errorf("bad id error = %v", err)
	}
}

func TestParseActivityFilter(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?title=Memoritza+parelles&activity_type=concentration", nil)
	filter, err := parseActivityFilter(r)
	if err != nil {
		t.Fatalf("parseActivityFilter: %v", err)
	}
	if filter.Title == nil || *filter.Title != "Memoritza parelles" {
		t.Errorf("Title = %v", filter.Title)
	}
	if filter.Type == nil || *filter.Type != "CONCENTRATION" {
		t.Errorf("Type = %v", filter.Type)
	}

	r = httptest.NewRequest(http.MethodGet, "/?activity_type=puzzle", nil)
	if _, err := parseActivityFilter(r); err == nil || err.Error() != "El tipus d'activitat no és vàlid." {
		t.Errorf("bad type error = %v", err)
	}
}
