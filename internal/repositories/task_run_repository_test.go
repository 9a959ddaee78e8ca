package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/caiinstall/caictl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskRunColumns = []string{"id", "attempt_id", "mode", "identifier", "source_hint", "outcome", "message", "started_at", "finished_at"}

// setupTaskRunTestRepository creates a task run repository with a mock database
func setupTaskRunTestRepository(t *testing.T) (*taskRunRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewTaskRunRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestNewTaskRunRepository(t *testing.T) {
	db := &sql.DB{}

	repo := NewTaskRunRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestTaskRunRepository_Create(t *testing.T) {
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(42 * time.Second)

	tests := []struct {
		name          string
		run           *models.TaskRun
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedID    int
	}{
		{
			name: "success",
			run: &models.TaskRun{
				AttemptID:  "0b7c5a1e-7f8e-4a34-9d59-2c1a1e6f9c10",
				Mode:       models.ModeGame,
				Identifier: "730",
				SourceHint: "SteamAutoCracks/ManifestHub",
				Outcome:    models.NotificationCompleted,
				Message:    "done",
				StartedAt:  started,
				FinishedAt: finished,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO task_runs`).
					WithArgs("0b7c5a1e-7f8e-4a34-9d59-2c1a1e6f9c10", "game", "730", "SteamAutoCracks/ManifestHub", "completed", "done", started, finished).
					WillReturnResult(sqlmock.NewResult(7, 1))
			},
			expectedID: 7,
		},
		{
			name: "database error",
			run: &models.TaskRun{
				AttemptID: "a",
				Mode:      models.ModeWorkshop,
				Outcome:   models.NotificationTimeout,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO task_runs`).
					WillReturnError(errors.New("connection lost"))
			},
			expectedError: true,
		},
		{
			name: "last insert id error",
			run:  &models.TaskRun{AttemptID: "b", Mode: models.ModeGame, Outcome: models.NotificationAborted},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO task_runs`).
					WillReturnResult(sqlmock.NewErrorResult(errors.New("no id")))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupTaskRunTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.run)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedID, tt.run.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTaskRunRepository_GetByAttemptID(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError string
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(taskRunColumns).
					AddRow(1, "abc", "game", "730", "", "server_error", "no manifest", now, now)
				mock.ExpectQuery(`SELECT (.+) FROM task_runs WHERE attempt_id = \?`).
					WithArgs("abc").
					WillReturnRows(rows)
			},
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM task_runs WHERE attempt_id = \?`).
					WithArgs("abc").
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: "task run not found",
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM task_runs WHERE attempt_id = \?`).
					WithArgs("abc").
					WillReturnError(errors.New("connection lost"))
			},
			expectedError: "failed to get task run by attempt ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupTaskRunTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			run, err := repo.GetByAttemptID(context.Background(), "abc")

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, run)
			} else {
				require.NoError(t, err)
				assert.Equal(t, models.NotificationServerError, run.Outcome)
				assert.Equal(t, models.ModeGame, run.Mode)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTaskRunRepository_GetAll(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		page          int
		count         int
		mode          models.Mode
		outcome       models.NotificationKind
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedCount int
	}{
		{
			name:  "no filters",
			page:  1,
			count: 20,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(taskRunColumns).
					AddRow(2, "b", "workshop", "123", "", "completed", "ok", now, now).
					AddRow(1, "a", "game", "730", "repo/x", "timeout", "late", now, now)
				mock.ExpectQuery(`SELECT (.+) FROM task_runs ORDER BY finished_at DESC, id DESC LIMIT \? OFFSET \?`).
					WithArgs(20, 0).
					WillReturnRows(rows)
			},
			expectedCount: 2,
		},
		{
			name:    "mode and outcome filters",
			page:    3,
			count:   10,
			mode:    models.ModeGame,
			outcome: models.NotificationCompleted,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(taskRunColumns).
					AddRow(1, "a", "game", "730", "", "completed", "ok", now, now)
				mock.ExpectQuery(`SELECT (.+) FROM task_runs WHERE mode = \? AND outcome = \? ORDER BY (.+) LIMIT \? OFFSET \?`).
					WithArgs("game", "completed", 10, 20).
					WillReturnRows(rows)
			},
			expectedCount: 1,
		},
		{
			name:  "query error",
			page:  1,
			count: 20,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM task_runs`).
					WillReturnError(errors.New("connection lost"))
			},
			expectedError: true,
		},
		{
			name:  "scan error",
			page:  1,
			count: 20,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id"}).AddRow(1)
				mock.ExpectQuery(`SELECT (.+) FROM task_runs`).
					WillReturnRows(rows)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupTaskRunTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			runs, err := repo.GetAll(context.Background(), tt.page, tt.count, tt.mode, tt.outcome)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, runs)
			} else {
				assert.NoError(t, err)
				assert.Len(t, runs, tt.expectedCount)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
