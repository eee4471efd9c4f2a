package services

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// memStore is a shared in-memory backing for the repository fakes. It
// mirrors the store semantics the services rely on: sentinel errors,
// email conflicts across roles and cascades on user deletion.
type memStore struct {
	users      map[string]types.User
	patients   map[string]types.Patient
	doctors    map[string]types.Doctor
	admins     map[string]types.Admin
	links      map[string]map[string]struct{}
	questions  map[uuid.UUID]types.Question
	answers    []types.QuestionAnswer
	activities map[uuid.UUID]types.Activity
	scores     []types.Score
	codes      map[string]types.ResetCode
	chunks     []types.TranscriptionChunk
	sessions   []types.TranscriptionSession
	chunkSeq   int
	sessionSeq int
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]types.User{},
		patients:   map[string]types.Patient{},
		doctors:    map[string]types.Doctor{},
		admins:     map[string]types.Admin{},
		links:      map[string]map[string]struct{}{},
		questions:  map[uuid.UUID]types.Question{},
		activities: map[uuid.UUID]types.Activity{},
		codes:      map[string]types.ResetCode{},
	}
}

func (s *memStore) addPatient(patient types.Patient) {
	patient.Role = types.RolePatient
	s.users[patient.Email] = patient.User
	s.patients[patient.Email] = patient
	for _, doctor := range patient.Doctors {
		s.link(doctor, patient.Email)
	}
}

func (s *memStore) addDoctor(doctor types.Doctor) {
	doctor.Role = types.RoleDoctor
	s.users[doctor.Email] = doctor.User
	s.doctors[doctor.Email] = doctor
	for _, patient := range doctor.Patients {
		s.link(doctor.Email, patient)
	}
}

func (s *memStore) addAdmin(admin types.Admin) {
	admin.Role = types.RoleAdmin
	s.users[admin.Email] = admin.User
	s.admins[admin.Email] = admin
}

func (s *memStore) link(doctorEmail, patientEmail string) {
	set, ok := s.links[doctorEmail]
	if !ok {
		set = map[string]struct{}{}
		s.links[doctorEmail] = set
	}
	set[patientEmail] = struct{}{}
}

func (s *memStore) doctorsOf(patientEmail string) []string {
	out := make([]string, 0)
	for doctor, set := range s.links {
		if _, ok := set[patientEmail]; ok {
			out = append(out, doctor)
		}
	}
	sort.Strings(out)
	return out
}

func (s *memStore) patientsOf(doctorEmail string) []string {
	out := make([]string, 0, len(s.links[doctorEmail]))
	for patient := range s.links[doctorEmail] {
		out = append(out, patient)
	}
	sort.Strings(out)
	return out
}

type memUsers struct{ s *memStore }

func (m memUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	user, ok := m.s.users[email]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m memUsers) UpdatePassword(_ context.Context, email, passwordHash string) error {
	user, ok := m.s.users[email]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = passwordHash
	m.s.users[email] = user
	return nil
}

func (m memUsers) Delete(_ context.Context, email string) error {
	if _, ok := m.s.users[email]; !ok {
		return store.ErrNotFound
	}
	delete(m.s.users, email)
	delete(m.s.patients, email)
	delete(m.s.doctors, email)
	delete(m.s.admins, email)
	delete(m.s.links, email)
	for _, set := range m.s.links {
		delete(set, email)
	}
	return nil
}

type memPatients struct{ s *memStore }

func (m memPatients) Create(_ context.Context, patient types.Patient) error {
	if _, ok := m.s.users[patient.Email]; ok {
		return store.ErrConflict
	}
	m.s.addPatient(patient)
	return nil
}

func (m memPatients) Get(_ context.Context, email string) (types.Patient, error) {
	patient, ok := m.s.patients[email]
	if !ok {
		return types.Patient{}, store.ErrNotFound
	}
	patient.Doctors = m.s.doctorsOf(email)
	return patient, nil
}

func (m memPatients) Update(_ context.Context, patient types.Patient) error {
	if _, ok := m.s.patients[patient.Email]; !ok {
		return store.ErrNotFound
	}
	for _, set := range m.s.links {
		delete(set, patient.Email)
	}
	m.s.addPatient(patient)
	return nil
}

func (m memPatients) ListByDoctor(_ context.Context, doctorEmail string) ([]types.Patient, error) {
	out := make([]types.Patient, 0)
	for _, email := range m.s.patientsOf(doctorEmail) {
		patient, err := m.Get(context.Background(), email)
		if err != nil {
			return nil, err
		}
		out = append(out, patient)
	}
	return out, nil
}

type memDoctors struct{ s *memStore }

func (m memDoctors) Create(_ context.Context, doctor types.Doctor) error {
	if _, ok := m.s.users[doctor.Email]; ok {
		return store.ErrConflict
	}
	m.s.addDoctor(doctor)
	return nil
}

func (m memDoctors) Get(_ context.Context, email string) (types.Doctor, error) {
	doctor, ok := m.s.doctors[email]
	if !ok {
		return types.Doctor{}, store.ErrNotFound
	}
	doctor.Patients = m.s.patientsOf(email)
	return doctor, nil
}

func (m memDoctors) Update(_ context.Context, doctor types.Doctor) error {
	if _, ok := m.s.doctors[doctor.Email]; !ok {
		return store.ErrNotFound
	}
	delete(m.s.links, doctor.Email)
	m.s.addDoctor(doctor)
	return nil
}

func (m memDoctors) Assign(_ context.Context, doctorEmail string, patientEmails []string) error {
	for _, patient := range patientEmails {
		m.s.link(doctorEmail, patient)
	}
	return nil
}

func (m memDoctors) Unassign(_ context.Context, doctorEmail string, patientEmails []string) error {
	set := m.s.links[doctorEmail]
	for _, patient := range patientEmails {
		delete(set, patient)
	}
	return nil
}

func (m memDoctors) IsAssigned(_ context.Context, doctorEmail, patientEmail string) (bool, error) {
	_, ok := m.s.links[doctorEmail][patientEmail]
	return ok, nil
}

type memAdmins struct{ s *memStore }

func (m memAdmins) Create(_ context.Context, admin types.Admin) error {
	if _, ok := m.s.users[admin.Email]; ok {
		return store.ErrConflict
	}
	m.s.addAdmin(admin)
	return nil
}

func (m memAdmins) Get(_ context.Context, email string) (types.Admin, error) {
	admin, ok := m.s.admins[email]
	if !ok {
		return types.Admin{}, store.ErrNotFound
	}
	return admin, nil
}

func (m memAdmins) Update(_ context.Context, admin types.Admin) error {
	if _, ok := m.s.admins[admin.Email]; !ok {
		return store.ErrNotFound
	}
	m.s.addAdmin(admin)
	return nil
}

type memQuestions struct{ s *memStore }

func (m memQuestions) CreateMany(_ context.Context, questions []types.Question) error {
	for _, question := range questions {
		for _, existing := range m.s.questions {
			if existing.Text == question.Text {
				return store.ErrConflict
			}
		}
	}
	for _, question := range questions {
		m.s.questions[question.ID] = question
	}
	return nil
}

func (m memQuestions) Get(_ context.Context, id uuid.UUID) (types.Question, error) {
	question, ok := m.s.questions[id]
	if !ok {
		return types.Question{}, store.ErrNotFound
	}
	return question, nil
}

func (m memQuestions) List(_ context.Context, filter store.QuestionFilter) ([]types.Question, error) {
	out := make([]types.Question, 0)
	for _, question := range m.s.questions {
		if filter.ID != nil && question.ID != *filter.ID {
			continue
		}
		if filter.Type != nil && question.Type != *filter.Type {
			continue
		}
		if filter.Difficulty != nil && question.Difficulty != *filter.Difficulty {
			continue
		}
		if filter.DifficultyMin != nil && question.Difficulty < *filter.DifficultyMin {
			continue
		}
		if filter.DifficultyMax != nil && question.Difficulty > *filter.DifficultyMax {
			continue
		}
		out = append(out, question)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out, nil
}

func (m memQuestions) Update(_ context.Context, question types.Question) error {
	if _, ok := m.s.questions[question.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range m.s.questions {
		if id != question.ID && existing.Text == question.Text {
			return store.ErrConflict
		}
	}
	m.s.questions[question.ID] = question
	return nil
}

func (m memQuestions) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.s.questions[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.s.questions, id)
	return nil
}

type memAnswers struct{ s *memStore }

func (m memAnswers) Create(_ context.Context, answer types.QuestionAnswer) (types.QuestionAnswer, error) {
	if answer.AnsweredAt.IsZero() {
		answer.AnsweredAt = time.Now().UTC()
	}
	if question, ok := m.s.questions[answer.QuestionID]; ok {
		answer.QuestionText = question.Text
		answer.QuestionType = question.Type
	}
	m.s.answers = append(m.s.answers, answer)
	return answer, nil
}

func (m memAnswers) ListByPatient(_ context.Context, patientEmail string) ([]types.QuestionAnswer, error) {
	out := make([]types.QuestionAnswer, 0)
	for _, answer := range m.s.answers {
		if answer.PatientEmail == patientEmail {
			out = append(out, answer)
		}
	}
	return out, nil
}

type memActivities struct{ s *memStore }

func (m memActivities) CreateMany(_ context.Context, activities []types.Activity) error {
	for _, activity := range activities {
		for _, existing := range m.s.activities {
			if existing.Title == activity.Title {
				return store.ErrConflict
			}
		}
	}
	for _, activity := range activities {
		m.s.activities[activity.ID] = activity
	}
	return nil
}

func (m memActivities) Get(_ context.Context, id uuid.UUID) (types.Activity, error) {
	activity, ok := m.s.activities[id]
	if !ok {
		return types.Activity{}, store.ErrNotFound
	}
	return activity, nil
}

func (m memActivities) List(_ context.Context, filter store.ActivityFilter) ([]types.Activity, error) {
	out := make([]types.Activity, 0)
	for _, activity := range m.s.activities {
		if filter.ID != nil && activity.ID != *filter.ID {
			continue
		}
		if filter.Title != nil && activity.Title != *filter.Title {
			continue
		}
		if filter.Type != nil && activity.Type != *filter.Type {
			continue
		}
		if filter.Difficulty != nil && activity.Difficulty != *filter.Difficulty {
			continue
		}
		if filter.DifficultyMin != nil && activity.Difficulty < *filter.DifficultyMin {
			continue
		}
		if filter.DifficultyMax != nil && activity.Difficulty > *filter.DifficultyMax {
			continue
		}
		out = append(out, activity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m memActivities) Update(_ context.Context, activity types.Activity) error {
	if _, ok := m.s.activities[activity.ID]; !ok {
		return store.ErrNotFound
	}
	m.s.activities[activity.ID] = activity
	return nil
}

func (m memActivities) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.s.activities[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.s.activities, id)
	return nil
}

type memScores struct{ s *memStore }

func (m memScores) Create(_ context.Context, score types.Score) (types.Score, error) {
	if score.CompletedAt.IsZero() {
		score.CompletedAt = time.Now().UTC()
	}
	if activity, ok := m.s.activities[score.ActivityID]; ok {
		score.ActivityTitle = activity.Title
		score.ActivityType = activity.Type
	}
	m.s.scores = append(m.s.scores, score)
	return score, nil
}

func (m memScores) ListByPatient(_ context.Context, patientEmail string) ([]types.Score, error) {
	out := make([]types.Score, 0)
	for _, score := range m.s.scores {
		if score.PatientEmail == patientEmail {
			out = append(out, score)
		}
	}
	return out, nil
}

type memCodes struct{ s *memStore }

func (m memCodes) Upsert(_ context.Context, code types.ResetCode) error {
	m.s.codes[code.UserEmail] = code
	return nil
}

func (m memCodes) Get(_ context.Context, userEmail string) (types.ResetCode, error) {
	code, ok := m.s.codes[userEmail]
	if !ok {
		return types.ResetCode{}, store.ErrNotFound
	}
	return code, nil
}

func (m memCodes) Delete(_ context.Context, userEmail string) error {
	if _, ok := m.s.codes[userEmail]; !ok {
		return store.ErrNotFound
	}
	delete(m.s.codes, userEmail)
	return nil
}

type memTranscripts struct{ s *memStore }

func (m memTranscripts) UpsertChunk(_ context.Context, chunk types.TranscriptionChunk) (types.TranscriptionChunk, error) {
	for i, existing := range m.s.chunks {
		if existing.SessionID == chunk.SessionID && existing.ChunkIndex == chunk.ChunkIndex {
			chunk.ID = existing.ID
			chunk.CreatedAt = existing.CreatedAt
			m.s.chunks[i] = chunk
			return chunk, nil
		}
	}
	m.s.chunkSeq++
	chunk.ID = m.s.chunkSeq
	chunk.CreatedAt = time.Now().UTC()
	m.s.chunks = append(m.s.chunks, chunk)
	return chunk, nil
}

func (m memTranscripts) ListChunks(_ context.Context, sessionID string) ([]types.TranscriptionChunk, error) {
	out := make([]types.TranscriptionChunk, 0)
	for _, chunk := range m.s.chunks {
		if chunk.SessionID == sessionID {
			out = append(out, chunk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (m memTranscripts) DeleteChunks(_ context.Context, sessionID string) error {
	kept := m.s.chunks[:0]
	for _, chunk := range m.s.chunks {
		if chunk.SessionID != sessionID {
			kept = append(kept, chunk)
		}
	}
	m.s.chunks = kept
	return nil
}

func (m memTranscripts) CreateSession(_ context.Context, session types.TranscriptionSession) (types.TranscriptionSession, error) {
	m.s.sessionSeq++
	session.ID = m.s.sessionSeq
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	m.s.sessions = append(m.s.sessions, session)
	return session, nil
}

func (m memTranscripts) ListSessionsByPatient(_ context.Context, patientEmail string) ([]types.TranscriptionSession, error) {
	out := make([]types.TranscriptionSession, 0)
	for _, session := range m.s.sessions {
		if session.PatientEmail == patientEmail {
			out = append(out, session)
		}
	}
	return out, nil
}

// recordingMailer captures reset-code deliveries instead of sending them.
type recordingMailer struct {
	to       string
	name     string
	code     string
	validity time.Duration
	err      error
	calls    int
}

func (m *recordingMailer) SendResetCode(_ context.Context, to, name, code string, validity time.Duration) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.to = to
	m.name = name
	m.code = code
	m.validity = validity
	return nil
}

// recordingArchive captures blob writes instead of hitting object storage.
type recordingArchive struct {
	keys  []string
	sizes []int64
	err   error
}

func (a *recordingArchive) Put(_ context.Context, key string, r io.Reader, size int64, _ string) error {
	if a.err != nil {
		return a.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	a.keys = append(a.keys, key)
	a.sizes = append(a.sizes, size)
	return nil
}

func testPatient(email string) types.Patient {
	return types.Patient{
		User: types.User{
			Email:        email,
			Name:         "Maria",
			Surname:      "Serra",
			Role:         types.RolePatient,
			PasswordHash: "$2a$10$fakefakefakefakefakefake",
		},
		Gender:   types.GenderFemale,
		Age:      70,
		HeightCM: 165,
		WeightKG: 62,
	}
}

func testDoctor(email string) types.Doctor {
	return types.Doctor{
		User: types.User{
			Email:        email,
			Name:         "Joan",
			Surname:      "Vidal",
			Role:         types.RoleDoctor,
			PasswordHash: "$2a$10$fakefakefakefakefakefake",
		},
		Gender: types.GenderMale,
	}
}
