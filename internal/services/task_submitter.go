package services

import (
	"context"
	"errors"
	"strings"

	"github.com/caiinstall/caictl/internal/client"
	"github.com/caiinstall/caictl/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskStarter is the interface that wraps the start call of the task server.
type TaskStarter interface {
	// Method StartTask sends the request to the start endpoint matching its mode.
	//
	// "task" parameter must be validated beforehand; the server is not expected to repeat the checks.
	// If the request cannot be delivered or the server answers with a non-2xx status, the error will be returned.
	// A delivered but rejected request is reported through the Success field of the response.
	StartTask(ctx context.Context, task models.TaskRequest) (*models.StartTaskResponse, error)
}

// TaskSubmitter validates task requests and sends them to the server
type TaskSubmitter struct {
	api     TaskStarter
	session *Session
	logger  *zap.Logger
}

// NewTaskSubmitter creates a submitter gated by session
func NewTaskSubmitter(api TaskStarter, session *Session, logger *zap.Logger) *TaskSubmitter {
	return &TaskSubmitter{
		api:     api,
		session: session,
		logger:  logger,
	}
}

// Validate checks a request without touching the network
func (s *TaskSubmitter) Validate(task models.TaskRequest) error {
	if err := validateTarget(task); err != nil {
		return err
	}
	if task.Mode == models.ModeWorkshop && !task.Flags.CopyToConfig && !task.Flags.CopyToDepot {
		return &ValidationError{Field: "flags", Message: "select at least one copy destination"}
	}
	return nil
}

// validateTarget checks mode and identifier only
func validateTarget(task models.TaskRequest) error {
	if !task.Mode.IsValid() {
		return &ValidationError{Field: "mode", Message: "must be game or workshop"}
	}
	if strings.TrimSpace(task.Identifier) == "" {
		if task.Mode == models.ModeWorkshop {
			return &ValidationError{Field: "identifier", Message: "enter a workshop item link or id"}
		}
		return &ValidationError{Field: "identifier", Message: "enter an AppID or a store link"}
	}
	return nil
}

// Submit validates task, acquires the session and sends the start call.
//
// It returns the normalised request that was sent. Validation failures and a running
// session are reported before any network call. On a failed start the session is released.
func (s *TaskSubmitter) Submit(ctx context.Context, task models.TaskRequest) (models.TaskRequest, error) {
	task = normalize(task)
	if err := s.Validate(task); err != nil {
		return task, err
	}
	if !s.session.TryAcquire() {
		s.logger.Warn("submission rejected, a task is already running", zap.String("identifier", task.Identifier))
		return task, ErrTaskRunning
	}
	return task, s.send(ctx, task)
}

// Resubmit sends a request after a source selection.
// The session is already running at that point, so the gate is not checked again.
func (s *TaskSubmitter) Resubmit(ctx context.Context, task models.TaskRequest) (models.TaskRequest, error) {
	task = normalize(task)
	if err := s.Validate(task); err != nil {
		s.session.Release()
		return task, err
	}
	return task, s.send(ctx, task)
}

func (s *TaskSubmitter) send(ctx context.Context, task models.TaskRequest) error {
	resp, err := s.api.StartTask(ctx, task)
	if err != nil {
		s.session.Release()
		s.logger.Error("failed to start task", zap.String("attempt_id", task.AttemptID), zap.Error(err))

		var statusErr *client.StatusError
		if errors.As(err, &statusErr) && statusErr.Message != "" {
			return &SubmissionError{Message: statusErr.Message, Err: err}
		}
		return &SubmissionError{Err: err}
	}
	if !resp.Success {
		s.session.Release()
		message := resp.Message
		if message == "" {
			message = "the server rejected the task"
		}
		s.logger.Warn("task rejected by server", zap.String("attempt_id", task.AttemptID), zap.String("message", message))
		return &SubmissionError{Message: message}
	}

	s.logger.Info("task started",
		zap.String("attempt_id", task.AttemptID),
		zap.String("mode", string(task.Mode)),
		zap.String("identifier", task.Identifier),
		zap.String("tool_type", task.ToolType()),
	)
	return nil
}

func normalize(task models.TaskRequest) models.TaskRequest {
	task.Identifier = strings.TrimSpace(task.Identifier)
	task.Source = strings.TrimSpace(task.Source)
	task.SourceHint = strings.TrimSpace(task.SourceHint)
	if task.AttemptID == "" {
		task.AttemptID = uuid.New().String()
	}
	if task.Mode == models.ModeGame && task.Source == "" {
		task.Source = models.DefaultSource
	}
	return task
}
