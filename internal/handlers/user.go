package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/services"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// UserHandler provides account, session and roster endpoints.
type UserHandler struct {
	userService   *services.UserService
	doctorService *services.DoctorService
	resetService  *services.PasswordResetService
	secret        []byte
	tokenTTL      time.Duration
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(userService *services.UserService, doctorService *services.DoctorService, resetService *services.PasswordResetService, jwtSecret string) *UserHandler {
	return &UserHandler{
		userService:   userService,
		doctorService: doctorService,
		resetService:  resetService,
		secret:        []byte(jwtSecret),
		tokenTTL:      defaultTokenTTL,
	}
}

// UserRouter registers account routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService, doctorService *services.DoctorService, resetService *services.PasswordResetService, jwtSecret string, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUserHandler(userService, doctorService, resetService, jwtSecret)

	r.Post("/patient", handler.RegisterPatient)
	r.Post("/doctor", handler.RegisterDoctor)
	r.Post("/login", handler.Login)
	r.Post("/forgot-password", handler.ForgotPassword)
	r.Post("/reset-password", handler.ResetPassword)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Get("/", handler.Me)
		r.Patch("/", handler.UpdateMe)
		r.Put("/", handler.ReplaceMe)
		r.Delete("/", handler.DeleteMe)

		r.Route("/doctor/patients", func(r chi.Router) {
			r.Use(requireRoles(userService, types.RoleDoctor))
			r.Post("/mine", handler.MyPatients)
			r.Get("/search", handler.SearchPatients)
			r.Post("/assign", handler.AssignPatients)
			r.Post("/unassign", handler.UnassignPatients)
		})

		// Access control lives in the service: admins, assigned doctors
		// and the patient themself may read the profile.
		r.Get("/{email}", handler.PatientData)
	})
}

// RegisterPatient creates a patient account with its clinical profile.
func (h *UserHandler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	if err := h.userService.RegisterPatient(r.Context(), req); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Pacient creat correctament."})
}

// RegisterDoctor creates a doctor account.
func (h *UserHandler) RegisterDoctor(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	if err := h.userService.RegisterDoctor(r.Context(), req); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Metge creat correctament."})
}

// Login verifies credentials and returns a JWT bound to the account email.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	token, err := issueToken(user.Email, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "No s'ha pogut crear el token.")
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token})
}

// Me returns the authenticated user's full payload.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	email, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	payload, err := h.userService.GetUser(r.Context(), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// UpdateMe applies a partial update to the authenticated user's profile.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// ReplaceMe applies a full update; name and surname become mandatory.
func (h *UserHandler) ReplaceMe(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, full bool) {
	email, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	var req services.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	payload, err := h.userService.UpdateUser(r.Context(), email, req, full)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// DeleteMe removes the authenticated account and its role-specific data.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	email, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	if err := h.userService.DeleteUser(r.Context(), email); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PatientData returns a patient's profile together with their activity
// scores and answered questions. Doctors only see assigned patients.
func (h *UserHandler) PatientData(w http.ResponseWriter, r *http.Request) {
	requester, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	data, err := h.userService.PatientData(r.Context(), requester, chi.URLParam(r, "email"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

// ForgotPassword emails a recovery code and reports its validity window.
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	minutes, err := h.resetService.Forgot(r.Context(), req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ValidityResponse{Validity: minutes})
}

// ResetPassword sets a new password after checking the recovery code.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	if err := h.resetService.Reset(r.Context(), req.Email, req.Code, req.Password); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Contrasenya actualitzada correctament."})
}

// MyPatients returns the roster of the authenticated doctor.
func (h *UserHandler) MyPatients(w http.ResponseWriter, r *http.Request) {
	email, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	patients, err := h.doctorService.MyPatients(r.Context(), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, patients)
}

// SearchPatients filters the doctor's roster by name. An empty query
// returns the whole roster.
func (h *UserHandler) SearchPatients(w http.ResponseWriter, r *http.Request) {
	email, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	patients, err := h.doctorService.SearchPatients(r.Context(), email, r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, patients)
}

// AssignPatients links the given patients to the authenticated doctor and
// returns the refreshed roster.
func (h *UserHandler) AssignPatients(w http.ResponseWriter, r *http.Request) {
	h.changeRoster(w, r, h.doctorService.AssignPatients)
}

// UnassignPatients unlinks the given patients from the authenticated
// doctor and returns the refreshed roster.
func (h *UserHandler) UnassignPatients(w http.ResponseWriter, r *http.Request) {
	h.changeRoster(w, r, h.doctorService.UnassignPatients)
}

func (h *UserHandler) changeRoster(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, doctorEmail string, patientEmails []string) ([]map[string]any, error)) {
	email, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No autenticat.")
		return
	}

	var req PatientListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cos de la petició no és vàlid.")
		return
	}

	patients, err := apply(r.Context(), email, req.Patients)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, patients)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ValidityResponse reports how many minutes a recovery code stays valid.
type ValidityResponse struct {
	Validity int `json:"validity"`
}

type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

type PatientListRequest struct {
	Patients []string `json:"patients"`
}
