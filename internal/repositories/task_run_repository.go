package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/caiinstall/caictl/internal/models"
)

type taskRunRepository struct {
	db *sql.DB
}

// NewTaskRunRepository creates a new task run repository
func NewTaskRunRepository(db *sql.DB) *taskRunRepository {
	return &taskRunRepository{db: db}
}

// Create inserts a finished attempt
func (r *taskRunRepository) Create(ctx context.Context, run *models.TaskRun) error {
	query := `
		INSERT INTO task_runs (attempt_id, mode, identifier, source_hint, outcome, message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		run.AttemptID,
		run.Mode,
		run.Identifier,
		run.SourceHint,
		run.Outcome,
		run.Message,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	run.ID = int(id)
	return nil
}

// GetByAttemptID retrieves a task run by its attempt ID
func (r *taskRunRepository) GetByAttemptID(ctx context.Context, attemptID string) (*models.TaskRun, error) {
	query := `
		SELECT id, attempt_id, mode, identifier, source_hint, outcome, message, started_at, finished_at
		FROM task_runs
		WHERE attempt_id = ?
		LIMIT 1
	`

	run := &models.TaskRun{}
	err := r.db.QueryRowContext(ctx, query, attemptID).Scan(
		&run.ID,
		&run.AttemptID,
		&run.Mode,
		&run.Identifier,
		&run.SourceHint,
		&run.Outcome,
		&run.Message,
		&run.StartedAt,
		&run.FinishedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task run by attempt ID: %w", err)
	}

	return run, nil
}

// GetAll retrieves a paginated list of task runs with optional filters
func (r *taskRunRepository) GetAll(ctx context.Context, page, count int, mode models.Mode, outcome models.NotificationKind) ([]models.TaskRun, error) {
	var whereConditions []string
	var args []any

	if mode != "" {
		whereConditions = append(whereConditions, "mode = ?")
		args = append(args, mode)
	}

	if outcome != "" {
		whereConditions = append(whereConditions, "outcome = ?")
		args = append(args, outcome)
	}

	whereClause := ""
	if len(whereConditions) > 0 {
		whereClause = "WHERE " + strings.Join(whereConditions, " AND ")
	}

	offset := (page - 1) * count

	query := fmt.Sprintf(`
		SELECT id, attempt_id, mode, identifier, source_hint, outcome, message, started_at, finished_at
		FROM task_runs
		%s
		ORDER BY finished_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, whereClause)

	args = append(args, count, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query task runs: %w", err)
	}
	defer rows.Close()

	var runs []models.TaskRun
	for rows.Next() {
		var run models.TaskRun
		err := rows.Scan(
			&run.ID,
			&run.AttemptID,
			&run.Mode,
			&run.Identifier,
			&run.SourceHint,
			&run.Outcome,
			&run.Message,
			&run.StartedAt,
			&run.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return runs, nil
}
