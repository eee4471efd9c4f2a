package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/services"
)

// defaultReportTimezone places report timestamps in the clinic's zone
// when the client does not send one.
const defaultReportTimezone = "Europe/Madrid"

// ReportHandler serves the downloadable follow-up report.
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ReportRouter registers the report download route. The middleware passed
// here also accepts query tokens so QR links work from any browser.
func ReportRouter(r chi.Router, reportService *services.ReportService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewReportHandler(reportService)

	if authMiddleware != nil {
		r.With(authMiddleware).Get("/{email}", handler.Download)
	} else {
		r.Get("/{email}", handler.Download)
	}
}

// Download renders the patient's report as a PDF attachment.
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	requester, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	loc, err := parseTimezone(r.URL.Query().Get("timezone"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Zona horària no vàlida.")
		return
	}

	result, err := h.reportService.Generate(r.Context(), requester, chi.URLParam(r, "email"), loc)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Content)
}

func parseTimezone(raw string) (*time.Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = defaultReportTimezone
	}
	return time.LoadLocation(raw)
}
