package model

import "time"

// RunStatus represents the current state of a collection run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusCollecting RunStatus = "collecting"
	RunStatusCleaning   RunStatus = "cleaning"
	RunStatusExporting  RunStatus = "exporting"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// Run represents a single pipeline run for a query.
type Run struct {
	ID        string     `json:"id"`
	Query     Query      `json:"query"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run. Blocked signals are kept
// for reporting; their raw page bytes live on disk, not here.
type RunResult struct {
	Records     []BusinessRecord `json:"records"`
	Raw         []RawCandidate   `json:"raw_candidates,omitempty"`
	Blocked     []BlockedSignal  `json:"blocked_signals,omitempty"`
	SourcesUsed []SourceType     `json:"sources_used,omitempty"`
	OutputFiles []string         `json:"output_files,omitempty"`
	Error       string           `json:"error,omitempty"`
}
