package types

import "time"

// TranscriptionChunk is one ordered fragment of an in-progress speech
// transcription session. Chunks are staged until the session completes.
type TranscriptionChunk struct {
	ID         int            `json:"id" db:"id"`
	SessionID  string         `json:"session_id" db:"session_id"`
	ChunkIndex int            `json:"chunk_index" db:"chunk_index"`
	Text       string         `json:"text" db:"text"`
	Analysis   map[string]any `json:"analysis" db:"analysis"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// TranscriptionSession is the persisted outcome of a completed session:
// the aggregated speech metrics the recommendation strategies consume.
type TranscriptionSession struct {
	ID           int                `json:"id" db:"id"`
	PatientEmail string             `json:"patient_email" db:"patient_email"`
	Metrics      map[string]float64 `json:"metrics" db:"metrics"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
}

// Metric keys produced by transcription analysis and read by the
// recommendation strategies.
const (
	MetricRawLatency  = "raw_latency"
	MetricIdeaDensity = "idea_density"
	MetricPNRatio     = "p_n_ratio"
	MetricPauseTime   = "pause_time"
)
