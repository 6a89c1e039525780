package journal

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("journal disabled")

// Config configures the journal store.
//
// Driver values:
//   - "file": one JSON document per run under Path (a directory)
//   - "sqlite": SQLite database file at Path
//
// If Driver is empty or "none", journaling is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Status is the terminal state of a component execution or of a whole run.
type Status string

const (
	StatusOK       Status = "ok"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timed_out"
	StatusSkipped  Status = "skipped"
)

// ExecutionRecord captures the terminal state of one component within a run.
// Keep it compact and schema-stable.
type ExecutionRecord struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Role     string        `json:"role"` // source | aggregator | sink
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Entry is the persisted record of one pipeline run.
type Entry struct {
	RunID      string            `json:"run_id"`
	Pipeline   string            `json:"pipeline"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    time.Time         `json:"ended_at"`
	Status     Status            `json:"status"` // ok | failed
	SinkFailed bool              `json:"sink_failed,omitempty"`
	Records    []ExecutionRecord `json:"records"`
}
