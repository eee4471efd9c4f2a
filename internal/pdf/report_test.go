package pdf

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

func reportFixture() ReportData {
	ailments := "Deteriorament cognitiu lleu"
	completed := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	return ReportData{
		Patient: types.Patient{
			User: types.User{
				Email:   "maria.serra@example.com",
				Name:    "Maria",
				Surname: "Serra",
				Role:    types.RolePatient,
			},
			Ailments: &ailments,
			Gender:   types.GenderFemale,
			Age:      70,
			HeightCM: 165,
			WeightKG: 62,
		},
		GeneratedAt: time.Date(2026, 3, 12, 18, 0, 0, 0, time.UTC),
		Location:    time.UTC,
		Scores: []types.Score{
			{
				PatientEmail:    "maria.serra@example.com",
				ActivityID:      uuid.New(),
				CompletedAt:     completed,
				Score:           8,
				SecondsToFinish: 42.5,
				ActivityTitle:   "Memoritza parelles",
				ActivityType:    types.TypeConcentration,
			},
			{
				PatientEmail:    "maria.serra@example.com",
				ActivityID:      uuid.New(),
				CompletedAt:     completed.Add(24 * time.Hour),
				Score:           6.5,
				SecondsToFinish: 58,
				ActivityTitle:   "Ordena la seqüència",
				ActivityType:    types.TypeSorting,
			},
		},
		Answers: []types.QuestionAnswer{
			{
				PatientEmail: "maria.serra@example.com",
				QuestionID:   uuid.New(),
				AnsweredAt:   completed,
				AnswerText:   "Pa amb tomàquet i cafè amb llet",
				Analysis:     map[string]any{"token_count": 7.0, "idea_density": 4.2},
				QuestionText: "Què has esmorzat avui?",
				QuestionType: types.TypeWords,
			},
		},
		Progress: []types.ProgressPoint{
			{CompletedAt: completed, Composite: 0.42},
			{CompletedAt: completed.Add(24 * time.Hour), Composite: 0.55},
			{CompletedAt: completed.Add(48 * time.Hour), Composite: 0.61},
		},
	}
}

func TestRenderReport(t *testing.T) {
	out, err := RenderReport(reportFixture())
	if err != nil {
		t.Fatalf("RenderReport: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF, starts with %q", out[:min(8, len(out))])
	}
	if len(out) < 1000 {
		t.Errorf("suspiciously small PDF: %d bytes", len(out))
	}
}

func TestRenderReportEmptyHistory(t *testing.T) {
	data := ReportData{
		Patient: types.Patient{
			User: types.User{
				Email:   "joan.vidal@example.com",
				Name:    "Joan",
				Surname: "Vidal",
				Role:    types.RolePatient,
			},
			Gender:   types.GenderMale,
			Age:      68,
			HeightCM: 178,
			WeightKG: 80,
		},
		GeneratedAt: time.Date(2026, 3, 12, 18, 0, 0, 0, time.UTC),
	}

	out, err := RenderReport(data)
	if err != nil {
		t.Fatalf("RenderReport without history: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestRenderReportSingleProgressPoint(t *testing.T) {
	data := reportFixture()
	data.Progress = data.Progress[:1]

	out, err := RenderReport(data)
	if err != nil {
		t.Fatalf("RenderReport with one progress point: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short unchanged", in: "Hola", max: 10, want: "Hola"},
		{name: "exact length unchanged", in: "abcde", max: 5, want: "abcde"},
		{name: "long gets ellipsis", in: "abcdefghij", max: 5, want: "abcd…"},
		{name: "counts runes not bytes", in: "àèìòùàèìòù", max: 4, want: "àèì…"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := truncate(tc.in, tc.max)
			if got != tc.want {
				t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
			if utf8.RuneCountInString(got) > tc.max {
				t.Fatalf("result %q exceeds %d runes", got, tc.max)
			}
		})
	}
}

func TestClampUnit(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{in: -0.3, want: 0},
		{in: 0, want: 0},
		{in: 0.42, want: 0.42},
		{in: 1, want: 1},
		{in: 1.8, want: 1},
	}
	for _, tc := range cases {
		if got := clampUnit(tc.in); got != tc.want {
			t.Errorf("clampUnit(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRenderAPIGuide(t *testing.T) {
	endpoints := []EndpointDoc{
		{Method: "POST", Path: "/patient", Summary: "Registra un pacient nou.", Tag: "Usuaris"},
		{Method: "GET", Path: "/user", Summary: "Retorna el perfil autenticat.", Tag: "Usuaris"},
		{Method: "GET", Path: "/questions", Summary: "Llista les preguntes.", Tag: "Preguntes"},
		{Method: "POST", Path: "/question/answer", Tag: "Preguntes"},
	}

	out, err := RenderAPIGuide("bitsxLaMarató API", "0.0.1", endpoints)
	if err != nil {
		t.Fatalf("RenderAPIGuide: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
	if len(out) < 500 {
		t.Errorf("suspiciously small PDF: %d bytes", len(out))
	}
}

func TestRenderAPIGuideNoEndpoints(t *testing.T) {
	out, err := RenderAPIGuide("bitsxLaMarató API", "0.0.1", nil)
	if err != nil {
		t.Fatalf("RenderAPIGuide with no endpoints: %v", err)
	}
	if !strings.HasPrefix(string(out), "%PDF") {
		t.Fatalf("output is not a PDF")
	}
}
