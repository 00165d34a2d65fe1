package tactic

import "time"

// Result is the outcome of running one scenario against the simulator.
type Result struct {
	RunID      string    `json:"run_id"`
	Scenario   string    `json:"scenario"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Passed     bool      `json:"passed"`

	Cutoff     string `json:"cutoff,omitempty"`
	GameLength int    `json:"game_length,omitempty"`

	// Failures lists every expectation that did not hold.
	Failures []string `json:"failures,omitempty"`
	// Error is set when no replay could be obtained at all.
	Error string `json:"error,omitempty"`

	ArchivePath string `json:"archive_path,omitempty"`
}
