package models

import "time"

// TaskRun represents one finished attempt stored in the history
type TaskRun struct {
	ID         int              `json:"id"`
	AttemptID  string           `json:"attempt_id"`
	Mode       Mode             `json:"mode"`
	Identifier string           `json:"identifier"`
	SourceHint string           `json:"source_hint,omitempty"`
	Outcome    NotificationKind `json:"outcome"`
	Message    string           `json:"message"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}
