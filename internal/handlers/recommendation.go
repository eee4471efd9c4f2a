package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/services"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// RecommendationHandler serves the personalized training-plan split.
type RecommendationHandler struct {
	recommendationService *services.RecommendationService
}

// NewRecommendationHandler constructs a RecommendationHandler.
func NewRecommendationHandler(recommendationService *services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

// RecommendationRouter registers the recommendation route for patients.
func RecommendationRouter(r chi.Router, recommendationService *services.RecommendationService, userService *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewRecommendationHandler(recommendationService)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Use(requireRoles(userService, types.RolePatient))

		r.Get("/", handler.Recommend)
	})
}

// Recommend returns the per-area percentage split of the patient's plan.
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	email, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	recommendation, err := h.recommendationService.Recommend(r.Context(), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recommendation)
}
