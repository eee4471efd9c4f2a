package types

import (
	"time"

	"github.com/google/uuid"
)

// Activity represents a cognitive exercise patients complete for a score.
type Activity struct {
	// ID is the unique identifier of the activity.
	ID uuid.UUID `json:"id" db:"id"`

	// Title is the human-readable name. Unique across activities.
	Title string `json:"title" db:"title"`

	// Description explains the exercise to the patient.
	Description string `json:"description" db:"description"`

	// Type classifies the cognitive area, sharing the question enum.
	Type QuestionType `json:"activity_type" db:"activity_type"`

	// Difficulty grades the activity from 0 (easiest) to 5 (hardest).
	Difficulty float64 `json:"difficulty" db:"difficulty"`
}

// Score records one completion of an activity by a patient. The
// (patient, activity, completed_at) triple forms the primary key, so
// repeated completions accumulate history.
type Score struct {
	PatientEmail    string    `json:"patient_email" db:"patient_email"`
	ActivityID      uuid.UUID `json:"activity_id" db:"activity_id"`
	CompletedAt     time.Time `json:"completed_at" db:"completed_at"`
	Score           float64   `json:"score" db:"score"`
	SecondsToFinish float64   `json:"seconds_to_finish" db:"seconds_to_finish"`

	// ActivityTitle and ActivityType are joined from activities when
	// listing a patient's history.
	ActivityTitle string       `json:"-" db:"-"`
	ActivityType  QuestionType `json:"-" db:"-"`
}

// MaxScore bounds the score column, matching check_score_range.
const MaxScore = 10.0
