package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/config"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/qr"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/services"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// reportTokenTTL bounds the tokens embedded in QR report links. Whoever
// scans the code can download the report until the token expires.
const reportTokenTTL = 10 * time.Minute

// QRHandler encodes short-lived report links into QR codes.
type QRHandler struct {
	reportService *services.ReportService
	publicHost    string
	secret        []byte
}

// NewQRHandler constructs a QRHandler.
func NewQRHandler(reportService *services.ReportService, publicHost, jwtSecret string) *QRHandler {
	return &QRHandler{
		reportService: reportService,
		publicHost:    strings.TrimRight(publicHost, "/"),
		secret:        []byte(jwtSecret),
	}
}

// QRRouter registers the QR generation route. Admins manage accounts but
// never hand off reports, so the route admits patients and doctors only.
func QRRouter(r chi.Router, reportService *services.ReportService, userService *services.UserService, publicHost, jwtSecret string, authMiddleware func(http.Handler) http.Handler) {
	handler := NewQRHandler(reportService, publicHost, jwtSecret)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Use(requireRoles(userService, types.RolePatient, types.RoleDoctor))

		r.Post("/", handler.Generate)
	})
}

// Generate builds a report link for the target patient, signs a
// ten-minute token for it and returns the link as a PNG QR code.
func (h *QRHandler) Generate(w http.ResponseWriter, r *http.Request) {
	requester, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	var req QRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	if format := strings.ToLower(strings.TrimSpace(req.Format)); format != "" && format != "png" {
		writeError(w, http.StatusUnprocessableEntity, "Només s'admet el format png.")
		return
	}

	target, err := h.reportService.ResolveTarget(r.Context(), requester, req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	token, err := issueToken(requester, h.secret, reportTokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "No s'ha pogut crear el token.")
		return
	}

	link := fmt.Sprintf("%s%s/report/%s?access_token=%s",
		h.baseURL(r), config.APIPrefix, url.PathEscape(target), url.QueryEscape(token))

	opts := qr.Options{
		BoxSize:   req.BoxSize,
		Border:    4,
		FillColor: req.FillColor,
		BackColor: req.BackColor,
	}
	if req.Border != nil {
		opts.Border = *req.Border
	}

	png, err := qr.Generate(link, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "No s'ha pogut generar el codi QR.")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// baseURL prefers the configured public host; without one it falls back
// to the host the request arrived on.
func (h *QRHandler) baseURL(r *http.Request) string {
	if h.publicHost != "" {
		return h.publicHost
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// QRRequest controls the target patient and the rendering of the code.
type QRRequest struct {
	// Email selects the patient. Patients may omit it or name themselves;
	// doctors must name an assigned patient.
	Email string `json:"email"`

	// Format only accepts png.
	Format string `json:"format"`

	// BoxSize is the pixel size of one QR module. Zero means the default.
	BoxSize int `json:"box_size"`

	// Border is the quiet-zone width in modules. Omitted means standard.
	Border *int `json:"border"`

	FillColor string `json:"fill_color"`
	BackColor string `json:"back_color"`
}
