package task

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// State represents the lifecycle state of a task
type State string

const (
	// StateProcessing indicates the backend is still working on the task
	StateProcessing State = "processing"

	// StateCompleted indicates the task finished with a result
	StateCompleted State = "completed"

	// StateFailed indicates the task finished with an error
	StateFailed State = "failed"
)

// Terminal reports whether no further state transition will occur
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Title returns a human-readable label for the state, e.g. "Processing"
func (s State) Title() string {
	return cases.Title(language.English).String(string(s))
}

// Status is the backend's description of a task's current state
type Status struct {
	TaskID   string         `json:"taskId"`
	State    State          `json:"status"`
	Result   string         `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IsProcessing checks if the task is still in progress
func (s *Status) IsProcessing() bool {
	return s.State == StateProcessing
}

// IsCompleted checks if the task completed with a result
func (s *Status) IsCompleted() bool {
	return s.State == StateCompleted
}

// IsFailed checks if the task failed
func (s *Status) IsFailed() bool {
	return s.State == StateFailed
}

// Result is a Status narrowed to the terminal successful case: State is
// StateCompleted and Result is non-empty.
type Result struct {
	Status
}

// StatusCallback is invoked with every fetched status, in fetch order
type StatusCallback func(status *Status)

// SubmitOptions configures a task submission. Silent and Mock are always
// sent, defaulting to false. VercelAIKey is promoted to a top-level request
// field and never nested under the options object. Extra keys are forwarded
// verbatim inside the options object.
type SubmitOptions struct {
	Silent      bool
	Mock        bool
	VercelAIKey string
	Extra       map[string]any
}
