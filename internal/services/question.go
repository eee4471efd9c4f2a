package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// QuestionRepository defines persistence operations for the question bank.
type QuestionRepository interface {
	CreateMany(ctx context.Context, questions []types.Question) error
	Get(ctx context.Context, id uuid.UUID) (types.Question, error)
	List(ctx context.Context, filter store.QuestionFilter) ([]types.Question, error)
	Update(ctx context.Context, question types.Question) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AnswerRepository defines persistence operations for patient answers.
type AnswerRepository interface {
	Create(ctx context.Context, answer types.QuestionAnswer) (types.QuestionAnswer, error)
	ListByPatient(ctx context.Context, patientEmail string) ([]types.QuestionAnswer, error)
}

// QuestionInput is one entry of a bulk question upload, and doubles as the
// body of a full question replacement.
type QuestionInput struct {
	Text       string  `json:"text"`
	Type       string  `json:"question_type"`
	Difficulty float64 `json:"difficulty"`
}

// QuestionPatch carries a partial question update. Nil pointers mean the
// field was absent from the request body.
type QuestionPatch struct {
	Text       *string  `json:"text"`
	Type       *string  `json:"question_type"`
	Difficulty *float64 `json:"difficulty"`
}

// Empty reports whether the patch carries no fields at all.
func (p QuestionPatch) Empty() bool {
	return p.Text == nil && p.Type == nil && p.Difficulty == nil
}

// AnswerRequest is the body of a daily-question answer submission. Analysis
// carries optional client-side speech metrics that override the server-side
// text analysis on key collisions.
type AnswerRequest struct {
	QuestionID uuid.UUID      `json:"question_id"`
	AnswerText string         `json:"answer_text"`
	Analysis   map[string]any `json:"analysis"`
}

// QuestionService manages the question bank and the daily-question flow.
type QuestionService struct {
	questions QuestionRepository
	answers   AnswerRepository
	patients  PatientRepository
	scores    ScoreRepository
	sessions  TranscriptionRepository
	strategy  QuestionStrategy
}

func NewQuestionService(questions QuestionRepository, answers AnswerRepository, patients PatientRepository, scores ScoreRepository, sessions TranscriptionRepository, strategy QuestionStrategy) *QuestionService {
	if strategy == nil {
		strategy = ScoreBasedQuestionStrategy{}
	}
	return &QuestionService{
		questions: questions,
		answers:   answers,
		patients:  patients,
		scores:    scores,
		sessions:  sessions,
		strategy:  strategy,
	}
}

// CreateMany validates and persists a batch of questions atomically and
// returns them with their generated identifiers.
func (s *QuestionService) CreateMany(ctx context.Context, inputs []QuestionInput) ([]types.Question, error) {
	if len(inputs) == 0 {
		return nil, Message(ErrValidation, "Cal almenys una pregunta.")
	}
	questions := make([]types.Question, 0, len(inputs))
	for _, input := range inputs {
		question, err := buildQuestion(uuid.New(), input)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	if err := s.questions.CreateMany(ctx, questions); err != nil {
		if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrConstraint) {
			return nil, Message(ErrExists, "No s'han pogut crear les preguntes: "+err.Error())
		}
		return nil, err
	}
	return questions, nil
}

// List returns the questions matching the filter. Filtering by an explicit ID
// turns an empty result into a not-found error.
func (s *QuestionService) List(ctx context.Context, filter store.QuestionFilter) ([]types.Question, error) {
	questions, err := s.questions.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if filter.ID != nil && len(questions) == 0 {
		return nil, Message(store.ErrNotFound, fmt.Sprintf("No s'ha trobat cap pregunta amb l'ID %s.", filter.ID))
	}
	return questions, nil
}

// Update replaces every field of an existing question.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, input QuestionInput) (types.Question, error) {
	question, err := buildQuestion(id, input)
	if err != nil {
		return types.Question{}, err
	}
	if err := s.questions.Update(ctx, question); err != nil {
		return types.Question{}, s.wrapQuestionWrite(err)
	}
	return question, nil
}

// Patch applies a partial update to an existing question.
func (s *QuestionService) Patch(ctx context.Context, id uuid.UUID, patch QuestionPatch) (types.Question, error) {
	question, err := s.questions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Question{}, Message(store.ErrNotFound, "Pregunta no trobada.")
		}
		return types.Question{}, err
	}
	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if text == "" {
			return types.Question{}, Message(ErrValidation, "El text de la pregunta és obligatori.")
		}
		question.Text = text
	}
	if patch.Type != nil {
		questionType, err := types.ParseQuestionType(*patch.Type)
		if err != nil {
			return types.Question{}, Message(ErrValidation, "El tipus de pregunta no és vàlid.")
		}
		question.Type = questionType
	}
	if patch.Difficulty != nil {
		if err := validateDifficulty(*patch.Difficulty); err != nil {
			return types.Question{}, err
		}
		question.Difficulty = *patch.Difficulty
	}
	if err := s.questions.Update(ctx, question); err != nil {
		return types.Question{}, s.wrapQuestionWrite(err)
	}
	return question, nil
}

// Delete removes a question and, through the cascade, every answer given to
// it.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Message(store.ErrNotFound, "Pregunta no trobada.")
		}
		return err
	}
	return nil
}

// Daily picks the patient's question of the day: the strategy narrows the
// bank by difficulty window and question type, an empty window falls back to
// the whole bank, and the final pick is uniformly random.
func (s *QuestionService) Daily(ctx context.Context, patientEmail string) (types.Question, error) {
	if _, err := s.patients.Get(ctx, patientEmail); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Question{}, Message(store.ErrNotFound, "Pacient no trobat.")
		}
		return types.Question{}, err
	}
	scores, err := s.scores.ListByPatient(ctx, patientEmail)
	if err != nil {
		return types.Question{}, err
	}
	sessions, err := s.sessions.ListSessionsByPatient(ctx, patientEmail)
	if err != nil {
		return types.Question{}, err
	}
	filters := s.strategy.Filters(scores, sessions)
	filter := store.QuestionFilter{
		Type:          filters.Type,
		DifficultyMin: &filters.DifficultyMin,
		DifficultyMax: &filters.DifficultyMax,
	}
	candidates, err := s.questions.List(ctx, filter)
	if err != nil {
		return types.Question{}, err
	}
	if len(candidates) == 0 {
		candidates, err = s.questions.List(ctx, store.QuestionFilter{})
		if err != nil {
			return types.Question{}, err
		}
	}
	if len(candidates) == 0 {
		return types.Question{}, Message(store.ErrNotFound, "No hi ha preguntes disponibles a la base de dades.")
	}
	return candidates[rand.IntN(len(candidates))], nil
}

// RecordAnswer stores a patient's answer together with its text analysis and
// returns the persisted entry.
func (s *QuestionService) RecordAnswer(ctx context.Context, patientEmail string, req AnswerRequest) (map[string]any, error) {
	if req.QuestionID == uuid.Nil || strings.TrimSpace(req.AnswerText) == "" {
		return nil, Message(ErrValidation, "Falten camps obligatoris.")
	}
	if _, err := s.patients.Get(ctx, patientEmail); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Message(store.ErrNotFound, "Pacient no trobat.")
		}
		return nil, err
	}
	question, err := s.questions.Get(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Message(store.ErrNotFound, "Pregunta no trobada.")
		}
		return nil, err
	}
	analysis := make(map[string]any)
	for key, value := range AnalyzeText(req.AnswerText) {
		analysis[key] = value
	}
	for key, value := range req.Analysis {
		analysis[key] = value
	}
	stored, err := s.answers.Create(ctx, types.QuestionAnswer{
		PatientEmail: patientEmail,
		QuestionID:   question.ID,
		AnswerText:   req.AnswerText,
		Analysis:     analysis,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"question_id":   question.ID,
		"question":      question.Text,
		"question_type": question.Type,
		"answered_at":   stored.AnsweredAt,
		"answer_text":   stored.AnswerText,
		"analysis":      stored.Analysis,
	}, nil
}

func (s *QuestionService) wrapQuestionWrite(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Message(store.ErrNotFound, "Pregunta no trobada.")
	case errors.Is(err, store.ErrConflict):
		return Message(ErrExists, "Ja existeix una pregunta amb aquest text.")
	}
	return err
}

func buildQuestion(id uuid.UUID, input QuestionInput) (types.Question, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return types.Question{}, Message(ErrValidation, "El text de la pregunta és obligatori.")
	}
	questionType, err := types.ParseQuestionType(input.Type)
	if err != nil {
		return types.Question{}, Message(ErrValidation, "El tipus de pregunta no és vàlid.")
	}
	if err := validateDifficulty(input.Difficulty); err != nil {
		return types.Question{}, err
	}
	return types.Question{ID: id, Text: text, Type: questionType, Difficulty: input.Difficulty}, nil
}

func validateDifficulty(difficulty float64) error {
	if difficulty < types.MinDifficulty || difficulty > types.MaxDifficulty {
		return Message(ErrValidation, "La dificultat ha d'estar entre 0 i 5.")
	}
	return nil
}
