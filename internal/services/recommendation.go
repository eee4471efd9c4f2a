package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// RecommendationInput is everything a recommender may reason over.
type RecommendationInput struct {
	Patient  types.Patient
	Scores   []types.Score
	Answers  []types.QuestionAnswer
	Sessions []types.TranscriptionSession
}

// Recommendation is a training plan: the share of effort per exercise area,
// percentages summing to 100, plus a short explanation for the patient.
type Recommendation struct {
	Areas   map[string]int `json:"areas"`
	Summary string         `json:"summary"`
}

// LLMAdapter produces a personalized training plan. The production adapter
// calls an external language model; HeuristicRecommender is the local
// fallback used when no model is configured.
type LLMAdapter interface {
	Recommend(ctx context.Context, input RecommendationInput) (Recommendation, error)
}

// RecommendationService gathers a patient's history and asks the adapter for
// a plan.
type RecommendationService struct {
	patients PatientRepository
	scores   ScoreRepository
	answers  AnswerRepository
	sessions TranscriptionRepository
	adapter  LLMAdapter
}

func NewRecommendationService(patients PatientRepository, scores ScoreRepository, answers AnswerRepository, sessions TranscriptionRepository, adapter LLMAdapter) *RecommendationService {
	if adapter == nil {
		adapter = HeuristicRecommender{}
	}
	return &RecommendationService{
		patients: patients,
		scores:   scores,
		answers:  answers,
		sessions: sessions,
		adapter:  adapter,
	}
}

// Recommend builds the patient's training plan from their full history.
func (s *RecommendationService) Recommend(ctx context.Context, patientEmail string) (Recommendation, error) {
	patient, err := s.patients.Get(ctx, patientEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Recommendation{}, Message(store.ErrNotFound, "Pacient no trobat.")
		}
		return Recommendation{}, err
	}
	scores, err := s.scores.ListByPatient(ctx, patient.Email)
	if err != nil {
		return Recommendation{}, err
	}
	answers, err := s.answers.ListByPatient(ctx, patient.Email)
	if err != nil {
		return Recommendation{}, err
	}
	sessions, err := s.sessions.ListSessionsByPatient(ctx, patient.Email)
	if err != nil {
		return Recommendation{}, err
	}
	return s.adapter.Recommend(ctx, RecommendationInput{
		Patient:  patient,
		Scores:   scores,
		Answers:  answers,
		Sessions: sessions,
	})
}

// HeuristicRecommender weights each exercise area by the patient's observed
// impairment: low activity scores raise an area's share, speech metrics push
// extra weight onto the lexical and processing areas. Areas never played get
// a neutral baseline so beginners receive a balanced plan.
type HeuristicRecommender struct{}

func (HeuristicRecommender) Recommend(_ context.Context, input RecommendationInput) (Recommendation, error) {
	order := types.QuestionTypes()
	sums := make(map[types.QuestionType]float64, len(order))
	counts := make(map[types.QuestionType]int, len(order))
	for _, score := range input.Scores {
		sums[score.ActivityType] += clamp(score.Score/types.MaxScore, 0, 1)
		counts[score.ActivityType]++
	}
	weights := make(map[types.QuestionType]float64, len(order))
	for _, area := range order {
		level := defaultScoreLevel
		if counts[area] > 0 {
			level = sums[area] / float64(counts[area])
		}
		weights[area] = 1 - level
	}
	if len(input.Sessions) > 0 {
		lexical, processing := speechImpairments(input.Sessions)
		weights[types.TypeWords] += lexical
		weights[types.TypeSpeed] += processing
	}
	areas := distributeShares(weights, order)
	top := order[0]
	for _, area := range order[1:] {
		if areas[string(area)] > areas[string(top)] {
			top = area
		}
	}
	summary := fmt.Sprintf(
		"Es recomana dedicar el %d%% del pla a exercicis de tipus %s. Pla calculat a partir de %d activitats completades i %d sessions de veu.",
		areas[string(top)], top, len(input.Scores), len(input.Sessions),
	)
	return Recommendation{Areas: areas, Summary: summary}, nil
}

// distributeShares turns non-negative weights into integer percentages that
// sum to exactly 100, assigning the remainder to the largest fractional
// parts first.
func distributeShares(weights map[types.QuestionType]float64, order []types.QuestionType) map[string]int {
	total := 0.0
	for _, area := range order {
		if weights[area] > 0 {
			total += weights[area]
		}
	}
	shares := make(map[string]int, len(order))
	if total == 0 {
		// Nothing observed at all: split evenly.
		base := 100 / len(order)
		rest := 100 - base*len(order)
		for i, area := range order {
			shares[string(area)] = base
			if i < rest {
				shares[string(area)]++
			}
		}
		return shares
	}
	type fraction struct {
		area types.QuestionType
		frac float64
		pos  int
	}
	assigned := 0
	fractions := make([]fraction, 0, len(order))
	for i, area := range order {
		weight := weights[area]
		if weight < 0 {
			weight = 0
		}
		exact := weight / total * 100
		floor := int(exact)
		shares[string(area)] = floor
		assigned += floor
		fractions = append(fractions, fraction{area: area, frac: exact - float64(floor), pos: i})
	}
	sort.Slice(fractions, func(i, j int) bool {
		if fractions[i].frac != fractions[j].frac {
			return fractions[i].frac > fractions[j].frac
		}
		return fractions[i].pos < fractions[j].pos
	})
	for i := 0; i < 100-assigned; i++ {
		shares[string(fractions[i%len(fractions)].area)]++
	}
	return shares
}
