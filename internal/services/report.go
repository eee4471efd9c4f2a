package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/pdf"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// ReportResult is a rendered report ready to be served as an attachment.
type ReportResult struct {
	Filename string
	Content  []byte
}

// ReportService assembles and renders the per-patient follow-up report.
// Rendered reports are additionally archived to object storage when one is
// configured; archive failures never fail the request.
type ReportService struct {
	users    UserRepository
	patients PatientRepository
	doctors  DoctorRepository
	scores   ScoreRepository
	answers  AnswerRepository
	progress InverseEfficiencyProgress
	archive  BlobArchive
	logger   *slog.Logger
}

func NewReportService(users UserRepository, patients PatientRepository, doctors DoctorRepository, scores ScoreRepository, answers AnswerRepository, archive BlobArchive, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		users:    users,
		patients: patients,
		doctors:  doctors,
		scores:   scores,
		answers:  answers,
		archive:  archive,
		logger:   logger,
	}
}

// Generate renders the follow-up report for the patient. Access follows the
// shared patient-data rule; timestamps inside the document use the given
// location.
func (s *ReportService) Generate(ctx context.Context, requesterEmail, patientEmail string, loc *time.Location) (ReportResult, error) {
	requester, err := s.users.GetByEmail(ctx, requesterEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ReportResult{}, Message(store.ErrNotFound, "Usuari no trobat.")
		}
		return ReportResult{}, err
	}
	patient, err := s.patients.Get(ctx, patientEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ReportResult{}, Message(store.ErrNotFound, "Pacient no trobat.")
		}
		return ReportResult{}, err
	}
	if err := authorizePatientAccess(ctx, s.doctors, requester, patient.Email); err != nil {
		return ReportResult{}, err
	}
	scores, err := s.scores.ListByPatient(ctx, patient.Email)
	if err != nil {
		return ReportResult{}, err
	}
	answers, err := s.answers.ListByPatient(ctx, patient.Email)
	if err != nil {
		return ReportResult{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	generatedAt := time.Now().UTC()
	content, err := pdf.RenderReport(pdf.ReportData{
		Patient:     patient,
		GeneratedAt: generatedAt,
		Location:    loc,
		Scores:      scores,
		Answers:     answers,
		Progress:    s.progress.Series(scores),
	})
	if err != nil {
		return ReportResult{}, err
	}
	filename := fmt.Sprintf("%s_%s_report_%s.pdf", patient.Name, patient.Surname, generatedAt.In(loc).Format("02-01-2006"))
	s.archiveReport(ctx, patient.Email, filename, content)
	return ReportResult{Filename: filename, Content: content}, nil
}

// ResolveTarget decides whose report a QR hand-off may link to. Patients
// can only share their own; doctors must name one of their assigned
// patients.
func (s *ReportService) ResolveTarget(ctx context.Context, requesterEmail, targetEmail string) (string, error) {
	requester, err := s.users.GetByEmail(ctx, requesterEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", Message(store.ErrNotFound, "Usuari no trobat.")
		}
		return "", err
	}
	targetEmail = strings.TrimSpace(strings.ToLower(targetEmail))
	switch requester.Role {
	case types.RolePatient:
		if targetEmail != "" && !strings.EqualFold(targetEmail, requester.Email) {
			return "", Message(ErrPermission, "No tens permís per accedir a les dades d'aquest pacient.")
		}
		return requester.Email, nil
	case types.RoleDoctor:
		if targetEmail == "" {
			return "", Message(ErrValidation, "Cal indicar el correu del pacient.")
		}
		patient, err := s.patients.Get(ctx, targetEmail)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return "", Message(store.ErrNotFound, "Pacient no trobat.")
			}
			return "", err
		}
		assigned, err := s.doctors.IsAssigned(ctx, requester.Email, patient.Email)
		if err != nil {
			return "", err
		}
		if !assigned {
			return "", Message(ErrPermission, "No tens permís per accedir a les dades d'aquest pacient.")
		}
		return patient.Email, nil
	default:
		return "", Message(ErrPermission, "No tens permís per accedir a les dades d'aquest pacient.")
	}
}

func (s *ReportService) archiveReport(ctx context.Context, patientEmail, filename string, content []byte) {
	if s.archive == nil {
		return
	}
	key := fmt.Sprintf("reports/%s/%s", patientEmail, filename)
	if err := s.archive.Put(ctx, key, bytes.NewReader(content), int64(len(content)), "application/pdf"); err != nil {
		s.logger.Warn("failed to archive report", "key", key, "error", err)
	}
}
