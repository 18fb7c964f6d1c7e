package queue

import (
	"fmt"
	"time"
)

// State is the lifecycle of a batch: Idle -> Running -> Completed | Cancelled.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
)

var stateNames = map[State]string{
	StateIdle:      "Idle",
	StateRunning:   "Running",
	StateCompleted: "Completed",
	StateCancelled: "Cancelled",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the final account of a batch.
type Outcome struct {
	RunID string `json:"run_id"`
	State State  `json:"state"`

	Total     int `json:"total"`
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	// FirstError is the message of the first failed item, empty when none failed.
	FirstError   string   `json:"first_error,omitempty"`
	ErrorLogPath string   `json:"error_log,omitempty"`
	Outputs      []string `json:"outputs,omitempty"`

	Duration time.Duration `json:"duration_ns"`
}

// String renders the status line, e.g. "3/5 processed. Errors: 1".
func (o Outcome) String() string {
	return fmt.Sprintf("%d/%d processed. Errors: %d", o.Processed, o.Total, o.Failed)
}

// Summary describes the failures of the batch, or returns "" when there were none.
// Only the first failure is named; the rest are in the error log.
func (o Outcome) Summary() string {
	if o.Failed == 0 {
		return ""
	}
	return fmt.Sprintf("%d file(s) failed. First error: %s. Details: %s", o.Failed, o.FirstError, o.ErrorLogPath)
}
