package models

import "time"

// SessionState gates new submissions on this client
type SessionState string

const (
	SessionIdle    SessionState = "idle"
	SessionRunning SessionState = "running"
)

// TaskContext is the part of a request that must survive a source selection round trip
type TaskContext struct {
	Mode       Mode   `json:"mode"`
	Identifier string `json:"identifier"`
	Flags      Flags  `json:"flags"`
}

// Severity of a user notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// NotificationKind names the path that ended an attempt
type NotificationKind string

const (
	NotificationCompleted   NotificationKind = "completed"
	NotificationServerError NotificationKind = "server_error"
	NotificationTimeout     NotificationKind = "timeout"
	NotificationTransport   NotificationKind = "transport"
	NotificationSubmission  NotificationKind = "submission"
	NotificationValidation  NotificationKind = "validation"
	NotificationBusy        NotificationKind = "busy"
	NotificationAborted     NotificationKind = "aborted"
)

// IsOutcome reports whether the kind ends a submitted attempt and belongs in the history
func (k NotificationKind) IsOutcome() bool {
	switch k {
	case NotificationCompleted, NotificationServerError, NotificationTimeout,
		NotificationTransport, NotificationSubmission, NotificationAborted:
		return true
	}
	return false
}

// Notification is the single user-visible message produced by a finished attempt
type Notification struct {
	Severity  Severity         `json:"severity"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	AttemptID string           `json:"attempt_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// SelectionView is the read-only state of a pending source selection
type SelectionView struct {
	Candidates   []SourceCandidate `json:"candidates"`
	Enabled      bool              `json:"enabled"`
	ChosenIndex  int               `json:"chosen_index"`
	DirectSource string            `json:"direct_source,omitempty"`
}

// TaskSnapshot is the coordinator state exposed to UI collaborators
type TaskSnapshot struct {
	State            SessionState   `json:"state"`
	Busy             bool           `json:"busy"`
	AttemptID        string         `json:"attempt_id,omitempty"`
	Mode             Mode           `json:"mode,omitempty"`
	Identifier       string         `json:"identifier,omitempty"`
	Selection        *SelectionView `json:"selection,omitempty"`
	LastNotification *Notification  `json:"last_notification,omitempty"`
}
