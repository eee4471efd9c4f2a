package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/services"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// TranscriptionHandler receives speech transcription chunks and closes
// recording sessions.
type TranscriptionHandler struct {
	transcriptionService *services.TranscriptionService
}

// NewTranscriptionHandler constructs a TranscriptionHandler.
func NewTranscriptionHandler(transcriptionService *services.TranscriptionService) *TranscriptionHandler {
	return &TranscriptionHandler{transcriptionService: transcriptionService}
}

// TranscriptionRouter registers transcription routes on the given router.
// The chunk endpoint needs only a valid token: the service rejects callers
// without a patient profile. Completing a session is patient-only.
func TranscriptionRouter(r chi.Router, transcriptionService *services.TranscriptionService, userService *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewTranscriptionHandler(transcriptionService)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Post("/chunk", handler.AddChunk)

		r.With(requireRoles(userService, types.RolePatient)).
			Post("/complete", handler.Complete)
	})
}

// AddChunk stores one transcription fragment with its speech metrics.
func (h *TranscriptionHandler) AddChunk(w http.ResponseWriter, r *http.Request) {
	email, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	var req services.AddChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	result, err := h.transcriptionService.AddChunk(r.Context(), email, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// Complete joins the session's chunks into the final transcription and
// persists the aggregated speech metrics.
func (h *TranscriptionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	email, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	var req CompleteSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	result, err := h.transcriptionService.Complete(r.Context(), email, req.SessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type CompleteSessionRequest struct {
	SessionID string `json:"session_id"`
}
