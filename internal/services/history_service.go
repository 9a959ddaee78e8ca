package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/caiinstall/caictl/internal/models"
	"go.uber.org/zap"
)

// TaskRunRepository is the interface that wraps methods for task_runs table data access
type TaskRunRepository interface {
	// Method Create inserts a finished attempt and sets its ID.
	//
	// If some error will occur during data insert, the error will be returned.
	Create(ctx context.Context, run *models.TaskRun) error
	// Method GetAll retrieve a page of finished attempts, newest first.
	//
	// "page" and "count" parameters are used for pagination and must be positive.
	// "mode" and "outcome" parameters filter the rows; empty values disable the filter.
	// If some error will occur during data retrieve, the error will be returned together with "nil" value.
	GetAll(ctx context.Context, page, count int, mode models.Mode, outcome models.NotificationKind) ([]models.TaskRun, error)
}

type historyService struct {
	repo   TaskRunRepository
	logger *zap.Logger
}

// NewHistoryService creates a new task history service
func NewHistoryService(repo TaskRunRepository, logger *zap.Logger) *historyService {
	return &historyService{
		repo:   repo,
		logger: logger,
	}
}

// Record stores a finished attempt
func (s *historyService) Record(ctx context.Context, run models.TaskRun) error {
	if run.AttemptID == "" {
		return fmt.Errorf("attempt id is required")
	}
	if !run.Outcome.IsOutcome() {
		return fmt.Errorf("invalid outcome: %q", run.Outcome)
	}
	if err := s.repo.Create(ctx, &run); err != nil {
		s.logger.Error("failed to create task run", zap.String("attempt_id", run.AttemptID), zap.Error(err))
		return fmt.Errorf("failed to record task run: %w", err)
	}
	return nil
}

// GetAll retrieves a page of finished attempts.
//
// Page and count default to 1 and 20. Unknown mode or outcome filters are ignored.
func (s *historyService) GetAll(ctx context.Context, page, count int, mode, outcome string) ([]models.TaskRun, error) {
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = 20
	}
	if count > 100 {
		count = 100
	}

	modeFilter := models.Mode(strings.ToLower(strings.TrimSpace(mode)))
	if !modeFilter.IsValid() {
		modeFilter = ""
	}
	outcomeFilter := models.NotificationKind(strings.ToLower(strings.TrimSpace(outcome)))
	if !outcomeFilter.IsOutcome() {
		outcomeFilter = ""
	}

	runs, err := s.repo.GetAll(ctx, page, count, modeFilter, outcomeFilter)
	if err != nil {
		s.logger.Error("failed to get task runs", zap.Error(err))
		return nil, fmt.Errorf("failed to get task runs: %w", err)
	}
	if runs == nil {
		runs = []models.TaskRun{}
	}
	return runs, nil
}
