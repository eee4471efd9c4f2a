package services

import (
	"sort"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// Inverse-efficiency tuning. Accuracy is floored so a zero score never
// divides the time term away to infinity.
const (
	minAccuracy    = 0.05
	smoothingAlpha = 0.35
)

// InverseEfficiencyProgress turns a completion history into a smoothed
// efficiency series. Each completion yields an inverse efficiency
// score (normalized time over accuracy); per-type states are smoothed
// exponentially and averaged into one composite per sample.
type InverseEfficiencyProgress struct{}

func (InverseEfficiencyProgress) Series(scores []types.Score) []types.ProgressPoint {
	if len(scores) == 0 {
		return []types.ProgressPoint{}
	}

	ordered := make([]types.Score, len(scores))
	copy(ordered, scores)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CompletedAt.Before(ordered[j].CompletedAt)
	})

	maxSeconds := 0.0
	for _, score := range ordered {
		if score.SecondsToFinish > maxSeconds {
			maxSeconds = score.SecondsToFinish
		}
	}
	if maxSeconds <= 0 {
		maxSeconds = 1.0
	}

	states := make(map[types.QuestionType]float64)
	points := make([]types.ProgressPoint, 0, len(ordered))
	for _, score := range ordered {
		accuracy := clamp(score.Score/types.MaxScore, minAccuracy, 1)
		ies := (score.SecondsToFinish / maxSeconds) / accuracy
		efficiency := 1 / (1 + ies)

		if prev, ok := states[score.ActivityType]; ok {
			states[score.ActivityType] = prev + smoothingAlpha*(efficiency-prev)
		} else {
			states[score.ActivityType] = efficiency
		}

		composite := 0.0
		for _, state := range states {
			composite += state
		}
		composite /= float64(len(states))

		points = append(points, types.ProgressPoint{
			CompletedAt: score.CompletedAt,
			Composite:   composite,
		})
	}
	return points
}
