package models

import (
	"time"
)

// TaskState is the server-side state reported by a status poll
type TaskState string

const (
	TaskStateIdle           TaskState = "idle"
	TaskStateRunning        TaskState = "running"
	TaskStateCompleted      TaskState = "completed"
	TaskStateError          TaskState = "error"
	TaskStateNeedsSelection TaskState = "needs_selection"
)

// IsTerminal reports whether the state ends a polling loop
func (s TaskState) IsTerminal() bool {
	return s == TaskStateCompleted || s == TaskStateError
}

// Action names a follow-up the server asks the client to perform
const (
	ActionSelectSource   = "select_source"
	ActionNeedsSelection = "needs_selection"
)

// ProgressEvent is one log line pushed by the server or embedded in a status poll
type ProgressEvent struct {
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"received_at,omitzero"`
}

// SourceCandidate is a repository able to serve the requested manifest
type SourceCandidate struct {
	RepositoryID string `json:"repo"`
	SHA          string `json:"sha,omitempty"`
	Tree         string `json:"tree,omitempty"`
	LastUpdated  string `json:"update_date"`
}

// UpdatedAt parses LastUpdated. The server forwards the timestamp unchanged from the
// repository host, so an unparsable value is reported with ok=false instead of an error.
func (c SourceCandidate) UpdatedAt() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, c.LastUpdated); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TaskResult is present on completed and error states
type TaskResult struct {
	Success        bool              `json:"success"`
	Message        string            `json:"message"`
	ActionRequired string            `json:"action_required,omitempty"`
	Sources        []SourceCandidate `json:"sources,omitempty"`
	Context        *Flags            `json:"context,omitempty"`
}

// RequiresSelection reports whether the result is a source selection request
func (r *TaskResult) RequiresSelection() bool {
	if r == nil {
		return false
	}
	return r.ActionRequired == ActionSelectSource || r.ActionRequired == ActionNeedsSelection
}

// SelectionRequest carries the candidates and the echoed request flags
type SelectionRequest struct {
	Candidates []SourceCandidate `json:"sources"`
	Flags      *Flags            `json:"context,omitempty"`
}

// TaskStatus is the body of GET /api/task_status
type TaskStatus struct {
	State     TaskState         `json:"status"`
	Progress  []ProgressEvent   `json:"progress,omitempty"`
	Result    *TaskResult       `json:"result,omitempty"`
	Selection *SelectionRequest `json:"selection,omitempty"`
}

// SelectionRequest returns the source selection carried by the status, if any.
//
// A selection may arrive either as the needs_selection state or as a completed/error
// result with action_required set. Both forms are returned the same way.
func (s *TaskStatus) SelectionRequest() (*SelectionRequest, bool) {
	if s == nil {
		return nil, false
	}
	if s.State == TaskStateNeedsSelection {
		if s.Selection != nil {
			return s.Selection, true
		}
		if s.Result != nil {
			return &SelectionRequest{Candidates: s.Result.Sources, Flags: s.Result.Context}, true
		}
		return &SelectionRequest{}, true
	}
	if s.State.IsTerminal() && s.Result.RequiresSelection() {
		return &SelectionRequest{Candidates: s.Result.Sources, Flags: s.Result.Context}, true
	}
	return nil, false
}
