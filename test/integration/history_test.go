package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/caiinstall/caictl/internal/models"
	"github.com/caiinstall/caictl/internal/repositories"
	"github.com/caiinstall/caictl/internal/services"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testDB     *sql.DB
	testLogger *zap.Logger
)

// cleanupTestData removes all task runs
func cleanupTestData(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec("DELETE FROM task_runs")
	require.NoError(t, err, "Failed to cleanup task_runs")
}

// TestMain connects to the test database given by TEST_DB_DSN and skips the package when it is unavailable
func TestMain(m *testing.M) {
	var err error
	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = "root:password@tcp(localhost:3306)/caictl_test?parseTime=true&charset=utf8mb4&multiStatements=true"
	}

	testDB, err = sql.Open("mysql", dsn)
	if err != nil {
		testLogger.Warn("Failed to connect to test database, skipping integration tests", zap.Error(err))
		os.Exit(0)
	}
	if err = testDB.Ping(); err != nil {
		testLogger.Warn("Failed to ping test database, skipping integration tests", zap.Error(err))
		os.Exit(0)
	}

	if err = migrateUp(testDB); err != nil {
		testLogger.Error("Failed to run migrations", zap.Error(err))
		os.Exit(1)
	}

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func migrateUp(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{MigrationsTable: "caictl_schema_migrations"})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "mysql", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func TestTaskRunRepository_Integration(t *testing.T) {
	repo := repositories.NewTaskRunRepository(testDB)
	ctx := context.Background()
	cleanupTestData(t, testDB)

	started := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	runs := []models.TaskRun{
		{AttemptID: "it-1", Mode: models.ModeGame, Identifier: "730", Outcome: models.NotificationCompleted, Message: "ok", StartedAt: started, FinishedAt: started.Add(10 * time.Second)},
		{AttemptID: "it-2", Mode: models.ModeWorkshop, Identifier: "123", Outcome: models.NotificationTimeout, Message: "late", StartedAt: started, FinishedAt: started.Add(20 * time.Second)},
		{AttemptID: "it-3", Mode: models.ModeGame, Identifier: "570", SourceHint: "repo/b", Outcome: models.NotificationServerError, Message: "no manifest", StartedAt: started, FinishedAt: started.Add(30 * time.Second)},
	}

	t.Run("Create and Get", func(t *testing.T) {
		for i := range runs {
			require.NoError(t, repo.Create(ctx, &runs[i]))
			assert.Greater(t, runs[i].ID, 0)
		}

		got, err := repo.GetByAttemptID(ctx, "it-3")
		require.NoError(t, err)
		assert.Equal(t, "repo/b", got.SourceHint)
		assert.Equal(t, models.NotificationServerError, got.Outcome)
	})

	t.Run("Duplicate attempt", func(t *testing.T) {
		dup := runs[0]
		assert.Error(t, repo.Create(ctx, &dup))
	})

	t.Run("GetAll newest first with filters", func(t *testing.T) {
		all, err := repo.GetAll(ctx, 1, 10, "", "")
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "it-3", all[0].AttemptID)

		games, err := repo.GetAll(ctx, 1, 10, models.ModeGame, "")
		require.NoError(t, err)
		assert.Len(t, games, 2)

		timeouts, err := repo.GetAll(ctx, 1, 10, "", models.NotificationTimeout)
		require.NoError(t, err)
		require.Len(t, timeouts, 1)
		assert.Equal(t, "it-2", timeouts[0].AttemptID)

		second, err := repo.GetAll(ctx, 2, 2, "", "")
		require.NoError(t, err)
		require.Len(t, second, 1)
		assert.Equal(t, "it-1", second[0].AttemptID)
	})
}

func TestHistoryService_Integration(t *testing.T) {
	svc := services.NewHistoryService(repositories.NewTaskRunRepository(testDB), testLogger)
	ctx := context.Background()
	cleanupTestData(t, testDB)

	now := time.Now()
	require.NoError(t, svc.Record(ctx, models.TaskRun{
		AttemptID:  "svc-1",
		Mode:       models.ModeGame,
		Identifier: "730",
		Outcome:    models.NotificationAborted,
		StartedAt:  now,
		FinishedAt: now,
	}))

	runs, err := svc.GetAll(ctx, 0, 0, "GAME", "aborted")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "svc-1", runs[0].AttemptID)
}
