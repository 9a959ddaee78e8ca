package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/caiinstall/caictl/internal/client"
	"github.com/caiinstall/caictl/internal/config"
	"github.com/caiinstall/caictl/internal/events"
	"github.com/caiinstall/caictl/internal/handlers"
	"github.com/caiinstall/caictl/internal/logger"
	"github.com/caiinstall/caictl/internal/models"
	"github.com/caiinstall/caictl/internal/repositories"
	"github.com/caiinstall/caictl/internal/services"
	"go.uber.org/zap"
)

// app holds the collaborators shared by all commands
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client *client.TaskClient
	log    *events.Log
	sink   *events.Sink
	// backfill replays polled progress while the feed is down
	backfill *events.Backfill

	db            *sql.DB
	historyWriter services.HistoryRecorder
	historyReader handlers.HistoryService
}

// newApp loads configuration and builds the shared collaborators.
// The history database is opened only when withHistory is set and DB_HOST is configured.
func newApp(withHistory bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level); err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger.Logger,
		client: client.NewTaskClient(cfg.TaskServer.BaseURL, cfg.TaskServer.RequestTimeout, logger.Logger),
		log:    events.NewLog(cfg.Events.LogCapacity),
		sink:   events.NewSink(cfg.EventsURL(), logger.Logger),
	}
	a.sink.OnEvent(a.log.Append)
	a.backfill = events.NewBackfill(a.sink.Connected)
	a.backfill.OnEvent(a.log.Append)

	if withHistory && cfg.HistoryEnabled() {
		if err := a.openHistory(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *app) openHistory() error {
	db, err := connectDB(a.cfg.DSN())
	if err != nil {
		return err
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return err
	}

	svc := services.NewHistoryService(repositories.NewTaskRunRepository(db), a.logger)
	a.db = db
	a.historyWriter = svc
	a.historyReader = svc
	a.logger.Info("task history enabled", zap.String("host", a.cfg.Database.Host))
	return nil
}

func (a *app) newCoordinator(p services.Presenter) *services.TaskCoordinator {
	return services.NewTaskCoordinator(a.client, p, a.historyWriter, services.CoordinatorConfig{
		PollInterval: a.cfg.Polling.Interval,
		TaskTimeout:  a.cfg.Polling.Timeout,
		Progress:     a.backfill,
	}, a.logger)
}

// startFeed connects the progress feed in the background until ctx is done.
// The feed is best effort: polling alone decides the task outcome.
func (a *app) startFeed(ctx context.Context, extra ...events.Handler) {
	for _, h := range extra {
		a.sink.OnEvent(h)
		a.backfill.OnEvent(h)
	}
	go func() {
		if err := a.sink.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("progress feed unavailable", zap.String("url", a.cfg.EventsURL()), zap.Error(err))
		}
	}()
}

// history returns the history reader or ErrHistoryDisabled
func (a *app) history() (handlers.HistoryService, error) {
	if a.historyReader == nil {
		return nil, services.ErrHistoryDisabled
	}
	return a.historyReader, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	logger.Sync()
}

// taskFromArgs builds a request from the command line
func taskFromArgs(mode models.Mode, identifier, source string, flags models.Flags) models.TaskRequest {
	return models.TaskRequest{Mode: mode, Identifier: identifier, Source: source, Flags: flags}
}
