package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// UserRepository defines persistence operations over the shared users table.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (types.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	Delete(ctx context.Context, email string) error
}

// PatientRepository defines persistence operations for patient accounts.
type PatientRepository interface {
	Create(ctx context.Context, patient types.Patient) error
	Get(ctx context.Context, email string) (types.Patient, error)
	Update(ctx context.Context, patient types.Patient) error
	ListByDoctor(ctx context.Context, doctorEmail string) ([]types.Patient, error)
}

// DoctorRepository defines persistence operations for doctor accounts and
// their patient assignments.
type DoctorRepository interface {
	Create(ctx context.Context, doctor types.Doctor) error
	Get(ctx context.Context, email string) (types.Doctor, error)
	Update(ctx context.Context, doctor types.Doctor) error
	Assign(ctx context.Context, doctorEmail string, patientEmails []string) error
	Unassign(ctx context.Context, doctorEmail string, patientEmails []string) error
	IsAssigned(ctx context.Context, doctorEmail, patientEmail string) (bool, error)
}

// AdminRepository defines persistence operations for administrator accounts.
type AdminRepository interface {
	Create(ctx context.Context, admin types.Admin) error
	Get(ctx context.Context, email string) (types.Admin, error)
	Update(ctx context.Context, admin types.Admin) error
}

// UserService implements account registration, authentication and profile
// management across the three roles.
type UserService struct {
	users    UserRepository
	patients PatientRepository
	doctors  DoctorRepository
	admins   AdminRepository
	scores   ScoreRepository
	answers  AnswerRepository
}

func NewUserService(users UserRepository, patients PatientRepository, doctors DoctorRepository, admins AdminRepository, scores ScoreRepository, answers AnswerRepository) *UserService {
	return &UserService{
		users:    users,
		patients: patients,
		doctors:  doctors,
		admins:   admins,
		scores:   scores,
		answers:  answers,
	}
}

// RegisterPatientRequest carries the fields accepted when creating a patient
// account. Ailments and Treatments are optional free-text fields.
type RegisterPatientRequest struct {
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	Name       string   `json:"name"`
	Surname    string   `json:"surname"`
	Gender     string   `json:"gender"`
	Age        int      `json:"age"`
	HeightCM   float64  `json:"height_cm"`
	WeightKG   float64  `json:"weight_kg"`
	Ailments   *string  `json:"ailments"`
	Treatments *string  `json:"treatments"`
	Doctors    []string `json:"doctors"`
}

// RegisterDoctorRequest carries the fields accepted when creating a doctor
// account.
type RegisterDoctorRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Name     string   `json:"name"`
	Surname  string   `json:"surname"`
	Gender   string   `json:"gender"`
	Patients []string `json:"patients"`
}

// RegisterAdminRequest carries the fields accepted when provisioning an
// administrator. Admins are created from the command line only.
type RegisterAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
}

// UpdateUserRequest carries a partial profile update. Nil pointers mean the
// field was absent from the request body; Doctors and Patients distinguish an
// absent list from an explicit empty one.
type UpdateUserRequest struct {
	Name       *string   `json:"name"`
	Surname    *string   `json:"surname"`
	Password   *string   `json:"password"`
	Gender     *string   `json:"gender"`
	Age        *int      `json:"age"`
	HeightCM   *float64  `json:"height_cm"`
	WeightKG   *float64  `json:"weight_kg"`
	Ailments   *string   `json:"ailments"`
	Treatments *string   `json:"treatments"`
	Doctors    *[]string `json:"doctors"`
	Patients   *[]string `json:"patients"`
}

// RegisterPatient validates and persists a new patient account together with
// its initial doctor assignments.
func (s *UserService) RegisterPatient(ctx context.Context, req RegisterPatientRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	if req.Email == "" || req.Password == "" || req.Name == "" || req.Surname == "" || req.Gender == "" {
		return Message(ErrMissingField, "Falten camps obligatoris.")
	}
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := ValidatePasswordStrength(req.Password); err != nil {
		return err
	}
	gender, err := parseGender(req.Gender)
	if err != nil {
		return err
	}
	if err := validatePatientProfile(req.Age, req.HeightCM, req.WeightKG); err != nil {
		return err
	}
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return err
	}
	doctors := dedupeEmails(req.Doctors)
	for _, email := range doctors {
		if _, err := s.doctors.Get(ctx, email); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return Message(store.ErrNotFound, "Metge no trobat.")
			}
			return err
		}
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return err
	}
	patient := types.Patient{
		User: types.User{
			Email:        req.Email,
			Name:         req.Name,
			Surname:      req.Surname,
			Role:         types.RolePatient,
			PasswordHash: hash,
		},
		Gender:     gender,
		Age:        req.Age,
		HeightCM:   req.HeightCM,
		WeightKG:   req.WeightKG,
		Ailments:   req.Ailments,
		Treatments: req.Treatments,
		Doctors:    doctors,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Message(ErrExists, "Ja existeix un usuari amb aquest correu.")
		}
		return err
	}
	return nil
}

// RegisterDoctor validates and persists a new doctor account together with
// its initial patient assignments.
func (s *UserService) RegisterDoctor(ctx context.Context, req RegisterDoctorRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	if req.Email == "" || req.Password == "" || req.Name == "" || req.Surname == "" || req.Gender == "" {
		return Message(ErrMissingField, "Falten camps obligatoris.")
	}
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := ValidatePasswordStrength(req.Password); err != nil {
		return err
	}
	gender, err := parseGender(req.Gender)
	if err != nil {
		return err
	}
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return err
	}
	patients := dedupeEmails(req.Patients)
	for _, email := range patients {
		if _, err := s.patients.Get(ctx, email); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return Message(store.ErrNotFound, "Pacient no trobat.")
			}
			return err
		}
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return err
	}
	doctor := types.Doctor{
		User: types.User{
			Email:        req.Email,
			Name:         req.Name,
			Surname:      req.Surname,
			Role:         types.RoleDoctor,
			PasswordHash: hash,
		},
		Gender:   gender,
		Patients: patients,
	}
	if err := s.doctors.Create(ctx, doctor); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Message(ErrExists, "Ja existeix un usuari amb aquest correu.")
		}
		return err
	}
	return nil
}

// RegisterAdmin validates and persists a new administrator account.
func (s *UserService) RegisterAdmin(ctx context.Context, req RegisterAdminRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	if req.Email == "" || req.Password == "" || req.Name == "" || req.Surname == "" {
		return Message(ErrMissingField, "Falten camps obligatoris.")
	}
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := ValidatePasswordStrength(req.Password); err != nil {
		return err
	}
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return err
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return err
	}
	admin := types.Admin{
		User: types.User{
			Email:        req.Email,
			Name:         req.Name,
			Surname:      req.Surname,
			Role:         types.RoleAdmin,
			PasswordHash: hash,
		},
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Message(ErrExists, "Ja existeix un usuari amb aquest correu.")
		}
		return err
	}
	return nil
}

// Login resolves the credentials to a stored user. Unknown accounts and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return types.User{}, Message(ErrValidation, "Falten camps obligatoris.")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, Message(ErrUnauthorized, "Correu o contrasenya no vàlids.")
		}
		return types.User{}, err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return types.User{}, Message(ErrUnauthorized, "Correu o contrasenya no vàlids.")
	}
	return user, nil
}

// GetUser returns the role-specific payload for the given account.
func (s *UserService) GetUser(ctx context.Context, email string) (map[string]any, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Message(store.ErrNotFound, "Usuari no trobat.")
		}
		return nil, err
	}
	return s.payloadFor(ctx, user)
}

// Lookup returns the stored account record. The role middleware uses it
// to check the caller's role without building the full payload.
func (s *UserService) Lookup(ctx context.Context, email string) (types.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, Message(store.ErrNotFound, "Usuari no trobat.")
		}
		return types.User{}, err
	}
	return user, nil
}

// UpdateUser applies a partial (PATCH) or full (PUT) profile update and
// returns the refreshed payload. Full updates require name and surname.
func (s *UserService) UpdateUser(ctx context.Context, email string, req UpdateUserRequest, full bool) (map[string]any, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Message(store.ErrNotFound, "Usuari no trobat.")
		}
		return nil, err
	}
	if full {
		if req.Name == nil || strings.TrimSpace(*req.Name) == "" || req.Surname == nil || strings.TrimSpace(*req.Surname) == "" {
			return nil, Message(ErrValidation, "Els camps nom i cognom són obligatoris.")
		}
	}
	var passwordHash *string
	if req.Password != nil {
		if err := ValidatePasswordStrength(*req.Password); err != nil {
			return nil, err
		}
		hash, err := HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		passwordHash = &hash
	}
	switch user.Role {
	case types.RolePatient:
		return s.updatePatient(ctx, user.Email, req, passwordHash)
	case types.RoleDoctor:
		return s.updateDoctor(ctx, user.Email, req, passwordHash)
	case types.RoleAdmin:
		return s.updateAdmin(ctx, user.Email, req, passwordHash)
	}
	return nil, Message(store.ErrNotFound, "Usuari no trobat.")
}

func (s *UserService) updatePatient(ctx context.Context, email string, req UpdateUserRequest, passwordHash *string) (map[string]any, error) {
	patient, err := s.patients.Get(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Message(store.ErrNotFound, "Pacient no trobat.")
		}
		return nil, err
	}
	applyBaseUpdate(&patient.User, req, passwordHash)
	if req.Gender != nil {
		gender, err := parseGender(*req.Gender)
		if err != nil {
			return nil, err
		}
		patient.Gender = gender
	}
	if req.Age != nil {
		patient.Age = *req.Age
	}
	if req.HeightCM != nil {
		patient.HeightCM = *req.HeightCM
	}
	if req.WeightKG != nil {
		patient.WeightKG = *req.WeightKG
	}
	if req.Ailments != nil {
		patient.Ailments = req.Ailments
	}
	if req.Treatments != nil {
		patient.Treatments = req.Treatments
	}
	if err := validatePatientProfile(patient.Age, patient.HeightCM, patient.WeightKG); err != nil {
		return nil, err
	}
	if req.Doctors != nil {
		doctors := dedupeEmails(*req.Doctors)
		for _, doctorEmail := range doctors {
			if _, err := s.doctors.Get(ctx, doctorEmail); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return nil, Message(store.ErrNotFound, "Metge no trobat.")
				}
				return nil, err
			}
		}
		patient.Doctors = doctors
	}
	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient.Payload(), nil
}

func (s *UserService) updateDoctor(ctx context.Context, email string, req UpdateUserRequest, passwordHash *string) (map[string]any, error) {
	doctor, err := s.doctors.Get(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Message(store.ErrNotFound, "Metge no trobat.")
		}
		return nil, err
	}
	applyBaseUpdate(&doctor.User, req, passwordHash)
	if req.Gender != nil {
		gender, err := parseGender(*req.Gender)
		if err != nil {
			return nil, err
		}
		doctor.Gender = gender
	}
	if req.Patients != nil {
		patients := dedupeEmails(*req.Patients)
		for _, patientEmail := range patients {
			if _, err := s.patients.Get(ctx, patientEmail); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return nil, Message(store.ErrNotFound, "Pacient no trobat.")
				}
				return nil, err
			}
		}
		doctor.Patients = patients
	}
	if err := s.doctors.Update(ctx, doctor); err != nil {
		return nil, err
	}
	return doctor.Payload(), nil
}

func (s *UserService) updateAdmin(ctx context.Context, email string, req UpdateUserRequest, passwordHash *string) (map[string]any, error) {
	admin, err := s.admins.Get(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Message(store.ErrNotFound, "Administrador no trobat.")
		}
		return nil, err
	}
	applyBaseUpdate(&admin.User, req, passwordHash)
	if err := s.admins.Update(ctx, admin); err != nil {
		return nil, err
	}
	return admin.Payload(), nil
}

// DeleteUser removes the account and, through the schema cascades, all of its
// role rows, assignments, answers and scores.
func (s *UserService) DeleteUser(ctx context.Context, email string) error {
	if err := s.users.Delete(ctx, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Message(store.ErrNotFound, "Usuari no trobat.")
		}
		return err
	}
	return nil
}

// PatientData returns the full clinical payload for a patient: profile,
// completed activity scores and answered questions. Admins see every patient,
// patients only themselves and doctors only their assigned patients.
func (s *UserService) PatientData(ctx context.Context, requesterEmail, patientEmail string) (map[string]any, error) {
	requester, err := s.users.GetByEmail(ctx, requesterEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Message(store.ErrNotFound, "Usuari no trobat.")
		}
		return nil, err
	}
	patient, err := s.patients.Get(ctx, patientEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Message(store.ErrNotFound, "Pacient no trobat.")
		}
		return nil, err
	}
	if err := authorizePatientAccess(ctx, s.doctors, requester, patient.Email); err != nil {
		return nil, err
	}
	scores, err := s.scores.ListByPatient(ctx, patient.Email)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListByPatient(ctx, patient.Email)
	if err != nil {
		return nil, err
	}
	scoreEntries := make([]map[string]any, 0, len(scores))
	for _, score := range scores {
		scoreEntries = append(scoreEntries, map[string]any{
			"activity_id":       score.ActivityID,
			"activity_title":    score.ActivityTitle,
			"activity_type":     score.ActivityType,
			"completed_at":      score.CompletedAt,
			"score":             score.Score,
			"seconds_to_finish": score.SecondsToFinish,
		})
	}
	answerEntries := make([]map[string]any, 0, len(answers))
	for _, answer := range answers {
		analysis := answer.Analysis
		if analysis == nil {
			analysis = map[string]any{}
		}
		answerEntries = append(answerEntries, map[string]any{
			"question_id":   answer.QuestionID,
			"question":      answer.QuestionText,
			"question_type": answer.QuestionType,
			"answered_at":   answer.AnsweredAt,
			"answer_text":   answer.AnswerText,
			"analysis":      analysis,
		})
	}
	return map[string]any{
		"patient":   patient.Payload(),
		"scores":    scoreEntries,
		"questions": answerEntries,
		"graphs":    map[string]any{},
	}, nil
}

// authorizePatientAccess enforces the shared access rule for patient data:
// admins always, patients for themselves, doctors for assigned patients.
func authorizePatientAccess(ctx context.Context, doctors DoctorRepository, requester types.User, patientEmail string) error {
	switch requester.Role {
	case types.RoleAdmin:
		return nil
	case types.RolePatient:
		if requester.Email == patientEmail {
			return nil
		}
	case types.RoleDoctor:
		assigned, err := doctors.IsAssigned(ctx, requester.Email, patientEmail)
		if err != nil {
			return err
		}
		if assigned {
			return nil
		}
	}
	return Message(ErrPermission, "No tens permís per accedir a les dades d'aquest pacient.")
}

func (s *UserService) payloadFor(ctx context.Context, user types.User) (map[string]any, error) {
	switch user.Role {
	case types.RolePatient:
		patient, err := s.patients.Get(ctx, user.Email)
		if err != nil {
			return nil, err
		}
		return patient.Payload(), nil
	case types.RoleDoctor:
		doctor, err := s.doctors.Get(ctx, user.Email)
		if err != nil {
			return nil, err
		}
		return doctor.Payload(), nil
	case types.RoleAdmin:
		admin, err := s.admins.Get(ctx, user.Email)
		if err != nil {
			return nil, err
		}
		return admin.Payload(), nil
	}
	return user.Payload(map[string]any{}), nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return Message(ErrExists, "Ja existeix un usuari amb aquest correu.")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func applyBaseUpdate(user *types.User, req UpdateUserRequest, passwordHash *string) {
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Surname != nil {
		user.Surname = strings.TrimSpace(*req.Surname)
	}
	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
}

func parseGender(raw string) (types.Gender, error) {
	gender := types.Gender(strings.ToLower(strings.TrimSpace(raw)))
	if !gender.Valid() {
		return "", Message(ErrValidation, "El gènere ha de ser male, female o others.")
	}
	return gender, nil
}

func validatePatientProfile(age int, heightCM, weightKG float64) error {
	if age < 0 || age > 120 {
		return Message(ErrValidation, "L'edat ha d'estar entre 0 i 120 anys.")
	}
	if heightCM <= 0 || heightCM > 250 {
		return Message(ErrValidation, "L'alçada ha d'estar entre 0 i 250 cm.")
	}
	if weightKG <= 0 || weightKG > 600 {
		return Message(ErrValidation, "El pes ha d'estar entre 0 i 600 kg.")
	}
	return nil
}

// dedupeEmails trims, drops blanks and removes duplicates while preserving
// the original order.
func dedupeEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}
