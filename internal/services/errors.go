package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/caiinstall/caictl/internal/models"
)

var (
	// ErrTaskRunning is returned when a submission is attempted while a task is running
	ErrTaskRunning = errors.New("a task is already running")
	// ErrNoSelection is returned when a selection operation is called with no pending selection
	ErrNoSelection = errors.New("no source selection is pending")
	// ErrSelectionNotReady is returned when a choice is made before the choices were rendered
	ErrSelectionNotReady = errors.New("source selection is not ready")
	// ErrInvalidCandidate is returned for an out of range index or an empty direct source
	ErrInvalidCandidate = errors.New("invalid source candidate")
	// ErrContextMissing is returned when a selection is confirmed but no task context was captured
	ErrContextMissing = errors.New("task context is missing")
	// ErrHistoryDisabled is returned when task history is requested without a database
	ErrHistoryDisabled = errors.New("task history is disabled")
)

// ValidationError is returned before any network call when a request is incomplete
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// SubmissionError is returned when the start call fails or is rejected by the server
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("failed to submit task: %v", e.Err)
	}
	return fmt.Sprintf("failed to submit task: %s", e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// PollTransportError ends a polling loop when a status request fails
type PollTransportError struct {
	Err error
}

func (e *PollTransportError) Error() string {
	return fmt.Sprintf("failed to poll task status: %v", e.Err)
}

func (e *PollTransportError) Unwrap() error {
	return e.Err
}

// TaskTimeoutError ends a polling loop when its overall deadline passes
type TaskTimeoutError struct {
	Timeout time.Duration
}

func (e *TaskTimeoutError) Error() string {
	return fmt.Sprintf("task did not finish within %s", e.Timeout)
}

// ServerReportedError is a task the server finished with an error
type ServerReportedError struct {
	Message string
}

func (e *ServerReportedError) Error() string {
	return fmt.Sprintf("task failed: %s", e.Message)
}

// OutcomeError converts the notification that ended an attempt into an error.
// A completed attempt yields nil.
func OutcomeError(n models.Notification) error {
	switch n.Kind {
	case models.NotificationCompleted:
		return nil
	case models.NotificationServerError:
		return &ServerReportedError{Message: n.Message}
	case models.NotificationBusy:
		return ErrTaskRunning
	default:
		return fmt.Errorf("%s: %s", n.Kind, n.Message)
	}
}
