package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/services"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// QuestionHandler provides CRUD and daily-selection endpoints for the
// question bank.
type QuestionHandler struct {
	questionService *services.QuestionService
}

// NewQuestionHandler constructs a QuestionHandler.
func NewQuestionHandler(questionService *services.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// QuestionRouter registers question routes on the given router. The bank
// is managed by admins; patients only pull their daily question and
// submit answers.
func QuestionRouter(r chi.Router, questionService *services.QuestionService, userService *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewQuestionHandler(questionService)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Group(func(r chi.Router) {
			r.Use(requireRoles(userService, types.RoleAdmin))
			r.Post("/", handler.Create)
			r.Get("/", handler.List)
			r.Put("/", handler.Update)
			r.Patch("/", handler.Patch)
			r.Delete("/", handler.Delete)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRoles(userService, types.RolePatient))
			r.Get("/daily", handler.Daily)
			r.Post("/answer", handler.Answer)
		})
	})
}

// Create inserts one or more questions into the bank.
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var inputs []services.QuestionInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	questions, err := h.questionService.CreateMany(r.Context(), inputs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, questions)
}

// List returns questions matching the query filters.
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseQuestionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	questions, err := h.questionService.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, questions)
}

// Update replaces the question identified by the id query parameter.
func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var input services.QuestionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	question, err := h.questionService.Update(r.Context(), id, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, question)
}

// Patch changes the provided fields of the question identified by the id
// query parameter. An empty body is rejected.
func (h *QuestionHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var patch services.QuestionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "Cal indicar almenys un camp per modificar.")
		return
	}

	question, err := h.questionService.Patch(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, question)
}

// Delete removes the question identified by the id query parameter.
func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.questionService.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Daily picks today's question for the authenticated patient.
func (h *QuestionHandler) Daily(w http.ResponseWriter, r *http.Request) {
	email, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	question, err := h.questionService.Daily(r.Context(), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, question)
}

// Answer records the patient's answer, running text analysis on it.
func (h *QuestionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	email, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	var req services.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	answer, err := h.questionService.RecordAnswer(r.Context(), email, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, answer)
}

func parseQuestionFilter(r *http.Request) (store.QuestionFilter, error) {
	var filter store.QuestionFilter
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("L'identificador no és vàlid.")
		}
		filter.ID = &id
	}
	if raw := strings.TrimSpace(query.Get("question_type")); raw != "" {
		questionType, err := types.ParseQuestionType(raw)
		if err != nil {
			return filter, errors.New("El tipus de pregunta no és vàlid.")
		}
		filter.Type = &questionType
	}
	var err error
	if filter.Difficulty, err = parseFloatParam(query.Get("difficulty")); err != nil {
		return filter, err
	}
	if filter.DifficultyMin, err = parseFloatParam(query.Get("difficulty_min")); err != nil {
		return filter, err
	}
	if filter.DifficultyMax, err = parseFloatParam(query.Get("difficulty_max")); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseFloatParam(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.New("La dificultat ha de ser un nombre.")
	}
	return &value, nil
}
