package services

import (
	"math"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// Strategy tuning. Scores contribute 70% of the ability estimate and
// speech-derived deterioration the remaining 30%.
const (
	scoreWeight       = 0.7
	defaultScoreLevel = 0.5
	typeBiasThreshold = 0.1
)

// ActivityFilters is the difficulty window an activity recommendation
// selects from, centered on the recommended value.
type ActivityFilters struct {
	Recommended   float64
	DifficultyMin float64
	DifficultyMax float64
}

// QuestionFilters narrows the daily-question pool: a difficulty window
// plus, when speech metrics expose a dominant impairment, a question
// type targeting it.
type QuestionFilters struct {
	DifficultyMin float64
	DifficultyMax float64
	Type          *types.QuestionType
}

// ActivityStrategy chooses the difficulty window for recommended activities.
type ActivityStrategy interface {
	Filters(scores []types.Score, sessions []types.TranscriptionSession) ActivityFilters
}

// QuestionStrategy chooses the filters used to pick a patient's daily
// question.
type QuestionStrategy interface {
	Filters(scores []types.Score, sessions []types.TranscriptionSession) QuestionFilters
}

// ScoreBasedActivityStrategy derives a recommended difficulty from the
// patient's score history and speech deterioration.
type ScoreBasedActivityStrategy struct{}

// RecommendedDifficulty maps the patient's ability estimate onto the
// 0..5 difficulty scale.
func (ScoreBasedActivityStrategy) RecommendedDifficulty(scores []types.Score, sessions []types.TranscriptionSession) float64 {
	avgScore := defaultScoreLevel
	if len(scores) > 0 {
		sum := 0.0
		for _, score := range scores {
			sum += clamp(score.Score/types.MaxScore, 0, 1)
		}
		avgScore = sum / float64(len(scores))
	}

	avgDeterioration := 0.0
	if len(sessions) > 0 {
		sum := 0.0
		for _, session := range sessions {
			sum += deteriorationIndex(session.Metrics)
		}
		avgDeterioration = sum / float64(len(sessions))
	}

	ability := clamp(scoreWeight*avgScore+(1-scoreWeight)*(1-avgDeterioration), 0, 1)
	return ability * types.MaxDifficulty
}

// Filters returns a one-unit window around the recommended difficulty.
func (s ScoreBasedActivityStrategy) Filters(scores []types.Score, sessions []types.TranscriptionSession) ActivityFilters {
	recommended := s.RecommendedDifficulty(scores, sessions)
	return ActivityFilters{
		Recommended:   recommended,
		DifficultyMin: math.Max(types.MinDifficulty, recommended-1),
		DifficultyMax: math.Min(types.MaxDifficulty, recommended+1),
	}
}

// deteriorationIndex condenses one session's speech metrics into a
// 0..1 impairment estimate: slower responses and thinner idea density
// both push it up.
func deteriorationIndex(metrics map[string]float64) float64 {
	latency := clamp(metrics[types.MetricRawLatency]/10, 0, 1)
	ideaDensity := math.Max(0, 1-math.Min(metrics[types.MetricIdeaDensity]/5, 1))
	return (latency + ideaDensity) / 2
}

// ScoreBasedQuestionStrategy extends the activity window with a
// question type chosen from the patient's impairment profile.
type ScoreBasedQuestionStrategy struct{}

func (ScoreBasedQuestionStrategy) Filters(scores []types.Score, sessions []types.TranscriptionSession) QuestionFilters {
	recommended := ScoreBasedActivityStrategy{}.RecommendedDifficulty(scores, sessions)
	filters := QuestionFilters{
		DifficultyMin: math.Max(types.MinDifficulty, recommended-1),
		DifficultyMax: math.Min(types.MaxDifficulty, recommended+1),
	}
	if len(sessions) == 0 {
		return filters
	}

	lexical, processing := speechImpairments(sessions)

	var questionType types.QuestionType
	switch {
	case lexical-processing > typeBiasThreshold:
		questionType = types.TypeWords
	case processing-lexical > typeBiasThreshold:
		questionType = types.TypeSpeed
	default:
		overall := (lexical + processing) / 2
		switch {
		case overall >= 0.66:
			questionType = types.TypeConcentration
		case overall >= 0.33:
			questionType = types.TypeSorting
		default:
			questionType = types.TypeMultitasking
		}
	}
	filters.Type = &questionType
	return filters
}

// speechImpairments condenses the session metrics into two 0..1 estimates:
// lexical impairment from idea density and the positive/negative word ratio,
// processing impairment from response latency and pause time.
func speechImpairments(sessions []types.TranscriptionSession) (lexical, processing float64) {
	var lexicalVals, processingVals []float64
	for _, session := range sessions {
		if v, ok := session.Metrics[types.MetricIdeaDensity]; ok {
			lexicalVals = append(lexicalVals, math.Max(0, 1-math.Min(v/5, 1)))
		}
		if v, ok := session.Metrics[types.MetricPNRatio]; ok {
			lexicalVals = append(lexicalVals, math.Max(0, 1-math.Min(v/5, 1)))
		}
		if v, ok := session.Metrics[types.MetricRawLatency]; ok {
			processingVals = append(processingVals, clamp(v/10, 0, 1))
		}
		if v, ok := session.Metrics[types.MetricPauseTime]; ok {
			processingVals = append(processingVals, clamp(v/10, 0, 1))
		}
	}
	return mean(lexicalVals), mean(processingVals)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
