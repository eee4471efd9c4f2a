package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionType classifies the cognitive area a question or activity
// exercises. Stored in the question_type enum; activities share the
// same enum for their activity_type column.
type QuestionType string

const (
	TypeConcentration QuestionType = "CONCENTRATION"
	TypeSpeed         QuestionType = "SPEED"
	TypeWords         QuestionType = "WORDS"
	TypeSorting       QuestionType = "SORTING"
	TypeMultitasking  QuestionType = "MULTITASKING"
)

// QuestionTypes lists every valid enum value in declaration order.
func QuestionTypes() []QuestionType {
	return []QuestionType{
		TypeConcentration,
		TypeSpeed,
		TypeWords,
		TypeSorting,
		TypeMultitasking,
	}
}

// Valid reports whether the type is one of the known enum values.
func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// ParseQuestionType normalizes and validates a client-supplied type label.
func ParseQuestionType(s string) (QuestionType, error) {
	t := QuestionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown question type %q", s)
	}
	return t, nil
}

// MinDifficulty and MaxDifficulty bound the difficulty columns of
// questions and activities, matching the schema CHECK constraints.
const (
	MinDifficulty = 0.0
	MaxDifficulty = 5.0
)

// Question represents a cognitive exercise prompt shown to patients.
type Question struct {
	// ID is the unique identifier of the question.
	ID uuid.UUID `json:"id" db:"id"`

	// Text is the prompt itself. Unique across questions.
	Text string `json:"text" db:"text"`

	// Type classifies the cognitive area the question exercises.
	Type QuestionType `json:"question_type" db:"question_type"`

	// Difficulty grades the question from 0 (easiest) to 5 (hardest).
	Difficulty float64 `json:"difficulty" db:"difficulty"`
}

// QuestionAnswer records one patient answering one question at one
// moment. The answered_at column is part of the primary key, so the
// same question can be answered repeatedly.
type QuestionAnswer struct {
	PatientEmail string         `json:"patient_email" db:"patient_email"`
	QuestionID   uuid.UUID      `json:"question_id" db:"question_id"`
	AnsweredAt   time.Time      `json:"answered_at" db:"answered_at"`
	AnswerText   string         `json:"answer_text" db:"answer_text"`
	Analysis     map[string]any `json:"analysis" db:"analysis"`

	// QuestionText and QuestionType are joined from questions for
	// report rendering. Not part of the wire form.
	QuestionText string       `json:"-" db:"-"`
	QuestionType QuestionType `json:"-" db:"-"`
}
