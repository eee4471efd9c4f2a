package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/services"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// ActivityHandler provides CRUD, recommendation and completion endpoints
// for the activity catalog.
type ActivityHandler struct {
	activityService *services.ActivityService
}

// NewActivityHandler constructs an ActivityHandler.
func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// ActivityRouter registers activity routes on the given router. The
// catalog is managed by admins; patients browse it, ask for a
// recommendation and report completions.
func ActivityRouter(r chi.Router, activityService *services.ActivityService, userService *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewActivityHandler(activityService)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.With(requireRoles(userService, types.RoleAdmin, types.RolePatient)).
			Get("/", handler.List)

		r.Group(func(r chi.Router) {
			r.Use(requireRoles(userService, types.RoleAdmin))
			r.Post("/", handler.Create)
			r.Put("/", handler.Update)
			r.Patch("/", handler.Patch)
			r.Delete("/", handler.Delete)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRoles(userService, types.RolePatient))
			r.Get("/recommended", handler.Recommended)
			r.Post("/complete", handler.Complete)
		})
	})
}

// Create inserts one or more activities into the catalog.
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var inputs []services.ActivityInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	activities, err := h.activityService.CreateMany(r.Context(), inputs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, activities)
}

// List returns activities matching the query filters.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseActivityFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	activities, err := h.activityService.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, activities)
}

// Update replaces the activity identified by the id query parameter.
func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var input services.ActivityInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	activity, err := h.activityService.Update(r.Context(), id, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, activity)
}

// Patch changes the provided fields of the activity identified by the id
// query parameter. An empty body is rejected.
func (h *ActivityHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var patch services.ActivityPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "Cal indicar almenys un camp per modificar.")
		return
	}

	activity, err := h.activityService.Patch(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, activity)
}

// Delete removes the activity identified by the id query parameter.
func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.activityService.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Recommended picks the next activity for the authenticated patient based
// on their recent performance.
func (h *ActivityHandler) Recommended(w http.ResponseWriter, r *http.Request) {
	email, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	activity, err := h.activityService.Recommended(r.Context(), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, activity)
}

// Complete records a finished activity with its score and duration.
func (h *ActivityHandler) Complete(w http.ResponseWriter, r *http.Request) {
	email, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	var req services.CompleteActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	completion, err := h.activityService.Complete(r.Context(), email, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, completion)
}

func parseActivityFilter(r *http.Request) (store.ActivityFilter, error) {
	var filter store.ActivityFilter
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("L'identificador no és vàlid.")
		}
		filter.ID = &id
	}
	if raw := strings.TrimSpace(query.Get("title")); raw != "" {
		filter.Title = &raw
	}
	if raw := strings.TrimSpace(query.Get("activity_type")); raw != "" {
		activityType, err := types.ParseQuestionType(raw)
		if err != nil {
			return filter, errors.New("El tipus d'activitat no és vàlid.")
		}
		filter.Type = &activityType
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
