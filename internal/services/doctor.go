package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// DoctorService implements the doctor-facing patient roster operations.
type DoctorService struct {
	patients PatientRepository
	doctors  DoctorRepository
}

func NewDoctorService(patients PatientRepository, doctors DoctorRepository) *DoctorService {
	return &DoctorService{patients: patients, doctors: doctors}
}

// MyPatients returns the payloads of every patient assigned to the doctor.
// The doctors list is stripped from each entry: a doctor browsing the roster
// has no business seeing a patient's other assignments.
func (s *DoctorService) MyPatients(ctx context.Context, doctorEmail string) ([]map[string]any, error) {
	if err := s.ensureDoctor(ctx, doctorEmail); err != nil {
		return nil, err
	}
	patients, err := s.patients.ListByDoctor(ctx, doctorEmail)
	if err != nil {
		return nil, err
	}
	return rosterPayloads(patients), nil
}

// SearchPatients filters the doctor's roster by a case-insensitive substring
// match on name, surname or their concatenation.
func (s *DoctorService) SearchPatients(ctx context.Context, doctorEmail, query string) ([]map[string]any, error) {
	if err := s.ensureDoctor(ctx, doctorEmail); err != nil {
		return nil, err
	}
	patients, err := s.patients.ListByDoctor(ctx, doctorEmail)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return rosterPayloads(patients), nil
	}
	matched := make([]types.Patient, 0, len(patients))
	for _, patient := range patients {
		name := strings.ToLower(patient.Name)
		surname := strings.ToLower(patient.Surname)
		full := name + " " + surname
		if strings.Contains(name, query) || strings.Contains(surname, query) || strings.Contains(full, query) {
			matched = append(matched, patient)
		}
	}
	return rosterPayloads(matched), nil
}

// AssignPatients links the given patients to the doctor and returns the
// refreshed roster. Every email must resolve to an existing patient; already
// linked patients are accepted without complaint.
func (s *DoctorService) AssignPatients(ctx context.Context, doctorEmail string, patientEmails []string) ([]map[string]any, error) {
	if err := s.ensureDoctor(ctx, doctorEmail); err != nil {
		return nil, err
	}
	emails := dedupeEmails(patientEmails)
	if len(emails) == 0 {
		return nil, Message(store.ErrNotFound, "Pacient no trobat.")
	}
	for _, email := range emails {
		if _, err := s.patients.Get(ctx, email); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, Message(store.ErrNotFound, "Pacient no trobat.")
			}
			return nil, err
		}
	}
	if err := s.doctors.Assign(ctx, doctorEmail, emails); err != nil {
		return nil, err
	}
	patients, err := s.patients.ListByDoctor(ctx, doctorEmail)
	if err != nil {
		return nil, err
	}
	return rosterPayloads(patients), nil
}

// UnassignPatients removes the given links. Unknown or unlinked emails are
// ignored so the operation stays idempotent.
func (s *DoctorService) UnassignPatients(ctx context.Context, doctorEmail string, patientEmails []string) ([]map[string]any, error) {
	if err := s.ensureDoctor(ctx, doctorEmail); err != nil {
		return nil, err
	}
	emails := dedupeEmails(patientEmails)
	if len(emails) > 0 {
		if err := s.doctors.Unassign(ctx, doctorEmail, emails); err != nil {
			return nil, err
		}
	}
	patients, err := s.patients.ListByDoctor(ctx, doctorEmail)
	if err != nil {
		return nil, err
	}
	return rosterPayloads(patients), nil
}

func (s *DoctorService) ensureDoctor(ctx context.Context, email string) error {
	if _, err := s.doctors.Get(ctx, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Message(store.ErrNotFound, "Metge no trobat.")
		}
		return err
	}
	return nil
}

func rosterPayloads(patients []types.Patient) []map[string]any {
	out := make([]map[string]any, 0, len(patients))
	for _, patient := range patients {
		payload := patient.Payload()
		if role, ok := payload["role"].(map[string]any); ok {
			delete(role, "doctors")
		}
		out = append(out, payload)
	}
	return out
}
