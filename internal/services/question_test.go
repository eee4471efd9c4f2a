package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

func newQuestionService(s *memStore) *QuestionService {
	return NewQuestionService(memQuestions{s}, memAnswers{s}, memPatients{s}, memScores{s}, memTranscripts{s}, nil)
}

func TestCreateManyQuestions(t *testing.T) {
	service := newQuestionService(newMemStore())
	ctx := context.Background()

	created, err := service.CreateMany(ctx, []QuestionInput{
		{Text: "  Recorda tres paraules  ", Type: "concentration", Difficulty: 2},
		{Text: "Anomena animals en un minut", Type: "WORDS", Difficulty: 3},
	})
	if err != nil {
		t.Fatalf("CreateMany: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("len = %d, want 2", len(created))
	}
	if created[0].ID == uuid.Nil || created[1].ID == uuid.Nil {
		t.Error("questions created without identifiers")
	}
	if created[0].ID == created[1].ID {
		t.Error("questions share an identifier")
	}
	if created[0].Text != "Recorda tres paraules" {
		t.Errorf("Text = %q, want it trimmed", created[0].Text)
	}
	if created[0].Type != types.TypeConcentration {
		t.Errorf("Type = %v, want normalized CONCENTRATION", created[0].Type)
	}
}

func TestCreateManyQuestionsValidation(t *testing.T) {
	service := newQuestionService(newMemStore())
	ctx := context.Background()

	if _, err := service.CreateMany(ctx, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("empty batch = %v, want ErrValidation", err)
	}
	if _, err := service.CreateMany(ctx, []QuestionInput{{Text: " ", Type: "WORDS", Difficulty: 1}}); !errors.Is(err, ErrValidation) {
		t.Errorf("blank text = %v, want ErrValidation", err)
	}
	if _, err := service.CreateMany(ctx, []QuestionInput{{Text: "Q", Type: "TRIVIA", Difficulty: 1}}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown type = %v, want ErrValidation", err)
	}
	_, err := service.CreateMany(ctx, []QuestionInput{{Text: "Q", Type: "WORDS", Difficulty: 5.5}})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("difficulty out of range = %v, want ErrValidation", err)
	}
	if message, _ := ErrorMessage(err); message != "La dificultat ha d'estar entre 0 i 5." {
		t.Errorf("message = %q", message)
	}
}

func TestCreateManyQuestionsDuplicateText(t *testing.T) {
	service := newQuestionService(newMemStore())
	ctx := context.Background()
	input := []QuestionInput{{Text: "Repetida", Type: "WORDS", Difficulty: 1}}
	if _, err := service.CreateMany(ctx, input); err != nil {
		t.Fatalf("first CreateMany: %v", err)
	}
	if _, err := service.CreateMany(ctx, input); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate text = %v, want ErrExists", err)
	}
}

func TestQuestionListByID(t *testing.T) {
	service := newQuestionService(newMemStore())
	ctx := context.Background()
	created, err := service.CreateMany(ctx, []QuestionInput{{Text: "Única", Type: "SORTING", Difficulty: 1}})
	if err != nil {
		t.Fatalf("CreateMany: %v", err)
	}

	found, err := service.List(ctx, store.QuestionFilter{ID: &created[0].ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(found) != 1 || found[0].ID != created[0].ID {
		t.Errorf("List by ID = %v", found)
	}

	missing := uuid.New()
	if _, err := service.List(ctx, store.QuestionFilter{ID: &missing}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("List by unknown ID = %v, want not found", err)
	}
}

func TestQuestionUpdateAndPatch(t *testing.T) {
	service := newQuestionService(newMemStore())
	ctx := context.Background()
	created, err := service.CreateMany(ctx, []QuestionInput{{Text: "Original", Type: "WORDS", Difficulty: 1}})
	if err != nil {
		t.Fatalf("CreateMany: %v", err)
	}
	id := created[0].ID

	updated, err := service.Update(ctx, id, QuestionInput{Text: "Substituïda", Type: "SPEED", Difficulty: 4})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Text != "Substituïda" || updated.Type != types.TypeSpeed || updated.Difficulty != 4 {
		t.Errorf("updated = %+v", updated)
	}

	difficulty := 2.5
	patched, err := service.Patch(ctx, id, QuestionPatch{Difficulty: &difficulty})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if patched.Difficulty != 2.5 {
		t.Errorf("Difficulty = %v, want 2.5", patched.Difficulty)
	}
	// Fields absent from the patch stay put.
	if patched.Text != "Substituïda" || patched.Type != types.TypeSpeed {
		t.Errorf("patched = %+v", patched)
	}

	blank := "  "
	if _, err := service.Patch(ctx, id, QuestionPatch{Text: &blank}); !errors.Is(err, ErrValidation) {
		t.Errorf("blank patch text = %v, want ErrValidation", err)
	}
	if _, err := service.Patch(ctx, uuid.New(), QuestionPatch{Difficulty: &difficulty}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("patch unknown id = %v, want not found", err)
	}
}

func TestQuestionDelete(t *testing.T) {
	service := newQuestionService(newMemStore())
	ctx := context.Background()
	created, err := service.CreateMany(ctx, []QuestionInput{{Text: "Efímera", Type: "WORDS", Difficulty: 1}})
	if err != nil {
		t.Fatalf("CreateMany: %v", err)
	}

	if err := service.Delete(ctx, created[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	err = service.Delete(ctx, created[0].ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second Delete = %v, want not found", err)
	}
	if message, _ := ErrorMessage(err); message != "Pregunta no trobada." {
		t.Errorf("message = %q", message)
	}
}

func TestDailyQuestion(t *testing.T) {
	s := newMemStore()
	s.addPatient(testPatient("pacient@example.com"))
	service := newQuestionService(s)
	ctx := context.Background()

	// A fresh patient gets the default window [3.25, 5]; only one of the
	// two seeded questions falls inside it.
	inWindow := types.Question{ID: uuid.New(), Text: "Dins la finestra", Type: types.TypeWords, Difficulty: 4}
	outside := types.Question{ID: uuid.New(), Text: "Fora de la finestra", Type: types.TypeWords, Difficulty: 1}
	s.questions[inWindow.ID] = inWindow
	s.questions[outside.ID] = outside

	question, err := service.Daily(ctx, "pacient@example.com")
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if question.ID != inWindow.ID {
		t.Errorf("Daily picked %q, want the in-window question", question.Text)
	}

	if _, err := service.Daily(ctx, "ningu@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown patient = %v, want not found", err)
	}
}

func TestDailyQuestionFallsBackToWholeBank(t *testing.T) {
	s := newMemStore()
	s.addPatient(testPatient("pacient@example.com"))
	service := newQuestionService(s)
	ctx := context.Background()

	easy := types.Question{ID: uuid.New(), Text: "Molt fàcil", Type: types.TypeWords, Difficulty: 0.5}
	s.questions[easy.ID] = easy

	question, err := service.Daily(ctx, "pacient@example.com")
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if question.ID != easy.ID {
		t.Errorf("Daily = %v, want the fallback pick", question)
	}
}

func TestDailyQuestionEmptyBank(t *testing.T) {
	s := newMemStore()
	s.addPatient(testPatient("pacient@example.com"))
	service := newQuestionService(s)

	_, err := service.Daily(context.Background(), "pacient@example.com")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Daily on empty bank = %v, want not found", err)
	}
	if message, _ := ErrorMessage(err); message != "No hi ha preguntes disponibles a la base de dades." {
		t.Errorf("message = %q", message)
	}
}

func TestRecordAnswer(t *testing.T) {
	s := newMemStore()
	s.addPatient(testPatient("pacient@example.com"))
	service := newQuestionService(s)
	ctx := context.Background()

	question := types.Question{ID: uuid.New(), Text: "Què has esmorzat avui?", Type: types.TypeWords, Difficulty: 1}
	s.questions[question.ID] = question

	payload, err := service.RecordAnswer(ctx, "pacient@example.com", AnswerRequest{
		QuestionID: question.ID,
		AnswerText: "Pa amb tomàquet i cafè",
		Analysis:   map[string]any{"raw_latency": 3.5},
	})
	if err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if payload["question"] != "Què has esmorzat avui?" {
		t.Errorf("question = %v", payload["question"])
	}
	if payload["question_type"] != types.TypeWords {
		t.Errorf("question_type = %v", payload["question_type"])
	}
	analysis, ok := payload["analysis"].(map[string]any)
	if !ok {
		t.Fatalf("analysis = %T", payload["analysis"])
	}
	// Server-side text metrics and client-supplied metrics both land in
	// the stored analysis.
	if analysis["token_count"] != 5.0 {
		t.Errorf("token_count = %v, want 5", analysis["token_count"])
	}
	if analysis["raw_latency"] != 3.5 {
		t.Errorf("raw_latency = %v, want 3.5", analysis["raw_latency"])
	}

	answers, err := (memAnswers{s}).ListByPatient(ctx, "pacient@example.com")
	if err != nil {
		t.Fatalf("ListByPatient: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("stored answers = %d, want 1", len(answers))
	}
}

func TestRecordAnswerClientMetricsWin(t *testing.T) {
	s := newMemStore()
	s.addPatient(testPatient("pacient@example.com"))
	service := newQuestionService(s)

	question := types.Question{ID: uuid.New(), Text: "Q", Type: types.TypeWords, Difficulty: 1}
	s.questions[question.ID] = question

	payload, err := service.RecordAnswer(context.Background(), "pacient@example.com", AnswerRequest{
		QuestionID: question.ID,
		AnswerText: "una resposta",
		Analysis:   map[string]any{"token_count": 99.0},
	})
	if err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	analysis := payload["analysis"].(map[string]any)
	if analysis["token_count"] != 99.0 {
		t.Errorf("token_count = %v, want the client override 99", analysis["token_count"])
	}
}

func TestRecordAnswerValidation(t *testing.T) {
	s := newMemStore()
	s.addPatient(testPatient("pacient@example.com"))
	service := newQuestionService(s)
	ctx := context.Background()

	if _, err := service.RecordAnswer(ctx, "pacient@example.com", AnswerRequest{}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty request = %v, want ErrValidation", err)
	}
	if _, err := service.RecordAnswer(ctx, "pacient@example.com", AnswerRequest{
		QuestionID: uuid.New(), AnswerText: "resposta",
	}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown question = %v, want not found", err)
	}
}
