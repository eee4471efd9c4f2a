package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// ActivityRepository defines persistence operations for the activity catalog.
type ActivityRepository interface {
	CreateMany(ctx context.Context, activities []types.Activity) error
	Get(ctx context.Context, id uuid.UUID) (types.Activity, error)
	List(ctx context.Context, filter store.ActivityFilter) ([]types.Activity, error)
	Update(ctx context.Context, activity types.Activity) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScoreRepository defines persistence operations for completed activity
// scores.
type ScoreRepository interface {
	Create(ctx context.Context, score types.Score) (types.Score, error)
	ListByPatient(ctx context.Context, patientEmail string) ([]types.Score, error)
}

// ActivityInput is one entry of a bulk activity upload, and doubles as the
// body of a full activity replacement.
type ActivityInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Type        string  `json:"activity_type"`
	Difficulty  float64 `json:"difficulty"`
}

// ActivityPatch carries a partial activity update. Nil pointers mean the
// field was absent from the request body.
type ActivityPatch struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Type        *string  `json:"activity_type"`
	Difficulty  *float64 `json:"difficulty"`
}

// Empty reports whether the patch carries no fields at all.
func (p ActivityPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Type == nil && p.Difficulty == nil
}

// CompleteActivityRequest is the body of an activity completion submission.
type CompleteActivityRequest struct {
	ID              uuid.UUID `json:"id"`
	Score           float64   `json:"score"`
	SecondsToFinish float64   `json:"seconds_to_finish"`
}

// ActivityService manages the activity catalog, recommendations and
// completion records.
type ActivityService struct {
	activities ActivityRepository
	scores     ScoreRepository
	patients   PatientRepository
	sessions   TranscriptionRepository
	strategy   ActivityStrategy
}

func NewActivityService(activities ActivityRepository, scores ScoreRepository, patients PatientRepository, sessions TranscriptionRepository, strategy ActivityStrategy) *ActivityService {
	if strategy == nil {
		strategy = ScoreBasedActivityStrategy{}
	}
	return &ActivityService{
		activities: activities,
		scores:     scores,
		patients:   patients,
		sessions:   sessions,
		strategy:   strategy,
	}
}

// CreateMany validates and persists a batch of activities atomically and
// returns them with their generated identifiers.
func (s *ActivityService) CreateMany(ctx context.Context, inputs []ActivityInput) ([]types.Activity, error) {
	if len(inputs) == 0 {
		return nil, Message(ErrValidation, "Cal almenys una activitat.")
	}
	activities := make([]types.Activity, 0, len(inputs))
	for _, input := range inputs {
		activity, err := buildActivity(uuid.New(), input)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	if err := s.activities.CreateMany(ctx, activities); err != nil {
		if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrConstraint) {
			return nil, Message(ErrExists, "No s'han pogut crear les activitats: "+err.Error())
		}
		return nil, err
	}
	return activities, nil
}

// List returns the activities matching the filter. Filtering by an explicit
// ID turns an empty result into a not-found error.
func (s *ActivityService) List(ctx context.Context, filter store.ActivityFilter) ([]types.Activity, error) {
	activities, err := s.activities.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if filter.ID != nil && len(activities) == 0 {
		return nil, Message(store.ErrNotFound, fmt.Sprintf("No s'ha trobat cap activitat amb l'ID %s.", filter.ID))
	}
	return activities, nil
}

// Update replaces every field of an existing activity.
func (s *ActivityService) Update(ctx context.Context, id uuid.UUID, input ActivityInput) (types.Activity, error) {
	activity, err := buildActivity(id, input)
	if err != nil {
		return types.Activity{}, err
	}
	if err := s.activities.Update(ctx, activity); err != nil {
		return types.Activity{}, s.wrapActivityWrite(err)
	}
	return activity, nil
}

// Patch applies a partial update to an existing activity.
func (s *ActivityService) Patch(ctx context.Context, id uuid.UUID, patch ActivityPatch) (types.Activity, error) {
	activity, err := s.activities.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Activity{}, Message(store.ErrNotFound, "Activitat no trobada.")
		}
		return types.Activity{}, err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return types.Activity{}, Message(ErrValidation, "El títol de l'activitat és obligatori.")
		}
		activity.Title = title
	}
	if patch.Description != nil {
		activity.Description = *patch.Description
	}
	if patch.Type != nil {
		activityType, err := types.ParseQuestionType(*patch.Type)
		if err != nil {
			return types.Activity{}, Message(ErrValidation, "El tipus d'activitat no és vàlid.")
		}
		activity.Type = activityType
	}
	if patch.Difficulty != nil {
		if err := validateDifficulty(*patch.Difficulty); err != nil {
			return types.Activity{}, err
		}
		activity.Difficulty = *patch.Difficulty
	}
	if err := s.activities.Update(ctx, activity); err != nil {
		return types.Activity{}, s.wrapActivityWrite(err)
	}
	return activity, nil
}

// Delete removes an activity and, through the cascade, every score recorded
// for it.
func (s *ActivityService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.activities.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Message(store.ErrNotFound, "Activitat no trobada.")
		}
		return err
	}
	return nil
}

// Recommended picks an activity inside the difficulty window the strategy
// derives from the patient's history, falling back to the whole catalog when
// the window is empty.
func (s *ActivityService) Recommended(ctx context.Context, patientEmail string) (types.Activity, error) {
	if _, err := s.patients.Get(ctx, patientEmail); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Activity{}, Message(store.ErrNotFound, "Pacient no trobat.")
		}
		return types.Activity{}, err
	}
	scores, err := s.scores.ListByPatient(ctx, patientEmail)
	if err != nil {
		return types.Activity{}, err
	}
	sessions, err := s.sessions.ListSessionsByPatient(ctx, patientEmail)
	if err != nil {
		return types.Activity{}, err
	}
	filters := s.strategy.Filters(scores, sessions)
	candidates, err := s.activities.List(ctx, store.ActivityFilter{
		DifficultyMin: &filters.DifficultyMin,
		DifficultyMax: &filters.DifficultyMax,
	})
	if err != nil {
		return types.Activity{}, err
	}
	if len(candidates) == 0 {
		candidates, err = s.activities.List(ctx, store.ActivityFilter{})
		if err != nil {
			return types.Activity{}, err
		}
	}
	if len(candidates) == 0 {
		return types.Activity{}, Message(store.ErrNotFound, "No hi ha activitats disponibles a la base de dades.")
	}
	return pickClosest(candidates, filters.Recommended), nil
}

// Complete records a finished activity for the patient and returns the
// completion payload. Score and duration bounds are enforced by the schema
// checks.
func (s *ActivityService) Complete(ctx context.Context, patientEmail string, req CompleteActivityRequest) (map[string]any, error) {
	if req.ID == uuid.Nil {
		return nil, Message(ErrValidation, "Falten camps obligatoris.")
	}
	patient, err := s.patients.Get(ctx, patientEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Message(store.ErrNotFound, "Pacient no trobat.")
		}
		return nil, err
	}
	activity, err := s.activities.Get(ctx, req.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Message(store.ErrNotFound, "Activitat no trobada.")
		}
		return nil, err
	}
	stored, err := s.scores.Create(ctx, types.Score{
		PatientEmail:    patient.Email,
		ActivityID:      activity.ID,
		Score:           req.Score,
		SecondsToFinish: req.SecondsToFinish,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"patient":           patient.Payload(),
		"activity":          activity,
		"score":             stored.Score,
		"seconds_to_finish": stored.SecondsToFinish,
		"completed_at":      stored.CompletedAt,
	}, nil
}

func (s *ActivityService) wrapActivityWrite(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Message(store.ErrNotFound, "Activitat no trobada.")
	case errors.Is(err, store.ErrConflict):
		return Message(ErrExists, "Ja existeix una activitat amb aquest títol.")
	}
	return err
}

// pickClosest returns the candidate whose difficulty sits nearest the
// recommended value, breaking ties in list order.
func pickClosest(candidates []types.Activity, recommended float64) types.Activity {
	best := candidates[0]
	bestDistance := difficultyDistance(best.Difficulty, recommended)
	for _, candidate := range candidates[1:] {
		if distance := difficultyDistance(candidate.Difficulty, recommended); distance < bestDistance {
			best = candidate
			bestDistance = distance
		}
	}
	return best
}

func difficultyDistance(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func buildActivity(id uuid.UUID, input ActivityInput) (types.Activity, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return types.Activity{}, Message(ErrValidation, "El títol de l'activitat és obligatori.")
	}
	activityType, err := types.ParseQuestionType(input.Type)
	if err != nil {
		return types.Activity{}, Message(ErrValidation, "El tipus d'activitat no és vàlid.")
	}
	if err := validateDifficulty(input.Difficulty); err != nil {
		return types.Activity{}, err
	}
	return types.Activity{
		ID:          id,
		Title:       title,
		Description: input.Description,
		Type:        activityType,
		Difficulty:  input.Difficulty,
	}, nil
}
