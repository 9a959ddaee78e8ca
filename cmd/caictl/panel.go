package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/caiinstall/caictl/docs"
	"github.com/caiinstall/caictl/internal/handlers"
	"github.com/caiinstall/caictl/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/spf13/cobra"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

const maxPanelBodySize = 1 << 20

// newRouter builds the panel router with the middleware chain
func newRouter(port int, allowedOrigins []string, logger *zap.Logger, taskHandler *handlers.TaskHandler, adminHandler *handlers.AdminHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(httprate.LimitByIP(300, time.Minute))
	r.Use(middleware.MaxBodySize(maxPanelBodySize))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", port)),
	))

	r.Route("/api/v1", func(r chi.Router) {
		taskHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r)
	})

	return r
}

func newPanelCommand() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Serve the local control panel API",
		Long: `Serve a JSON API on localhost that drives the task lifecycle: submission,
status polling, source selection and the progress log. API docs are served at /swagger/.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()
			if port == 0 {
				port = a.cfg.Panel.Port
			}
			return runPanel(a, port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default PANEL_PORT)")
	return cmd
}

func runPanel(a *app, port int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	presenter := handlers.NewPanelPresenter(a.log, a.logger)
	coordinator := a.newCoordinator(presenter)
	defer coordinator.Close()
	a.startFeed(ctx)

	var history handlers.HistoryService
	if h, err := a.history(); err == nil {
		history = h
	}
	taskHandler := handlers.NewTaskHandler(coordinator, a.log, a.sink, history, a.logger)
	adminHandler := handlers.NewAdminHandler(a.client, a.logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", port),
		Handler:      newRouter(port, a.cfg.CORS.AllowedOrigins, a.logger, taskHandler, adminHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("panel starting", zap.Int("port", port), zap.String("task_server", a.cfg.TaskServer.BaseURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("panel failed to start: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down panel")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("panel forced to shutdown", zap.Error(err))
	}
	a.logger.Info("panel exited")
	return nil
}
