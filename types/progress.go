package types

import "time"

// ProgressPoint is one sample of a patient's smoothed cognitive
// efficiency over time, as plotted in reports.
type ProgressPoint struct {
	CompletedAt time.Time `json:"completed_at"`
	Composite   float64   `json:"composite"`
}
