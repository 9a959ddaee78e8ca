package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/caiinstall/caictl/internal/models"
	"github.com/caiinstall/caictl/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TaskCoordinator is the interface that wraps the task lifecycle operations exposed by the panel.
type TaskCoordinator interface {
	// Method Submit validates the task and sends it to the task server, then starts polling.
	//
	// "task" parameter holds the mode, the identifier, the source and the mode-specific flags.
	// If a task is already running, ErrTaskRunning will be returned without contacting the server.
	// If the request is incomplete, a *ValidationError will be returned.
	// If the server cannot be reached or rejects the task, a *SubmissionError will be returned.
	Submit(ctx context.Context, task models.TaskRequest) error
	// Method Resume starts polling a task that is already running on the server.
	//
	// "mode" parameter is the mode the task was started with; empty means game.
	// "identifier" parameter is the AppID or workshop item used when the task was started.
	// Please reference Submit method for more information about error values.
	Resume(ctx context.Context, mode models.Mode, identifier string) error
	// Method MarkSelectionReady enables the choices of the pending selection.
	//
	// If no selection is pending, ErrNoSelection will be returned.
	MarkSelectionReady() error
	// Method Choose picks a candidate of the pending selection by its index.
	//
	// If the selection is not enabled yet, ErrSelectionNotReady will be returned.
	// If the index is out of range, ErrInvalidCandidate will be returned.
	Choose(index int) error
	// Method ChooseDirect picks a source by name instead of a candidate.
	//
	// Please reference Choose method for more information about error values.
	ChooseDirect(source string) error
	// Method ConfirmSelection resubmits the task with the chosen source.
	//
	// If the resubmission fails, the attempt ends and the error will be returned.
	ConfirmSelection(ctx context.Context) error
	// Method Reset abandons the current attempt.
	Reset()
	// Method Snapshot returns the state of the current attempt.
	Snapshot() models.TaskSnapshot
}

// EventLog is the read side of the progress log
type EventLog interface {
	Entries() []models.ProgressEvent
	Clear()
}

// FeedStatus reports whether the progress feed is connected
type FeedStatus interface {
	Connected() bool
}

// HistoryService is the interface that wraps methods for task history
type HistoryService interface {
	// Method GetAll retrieve a page of finished attempts, newest first.
	//
	// "page" and "count" parameters are used for pagination.
	// "mode" and "outcome" parameters filter the result; unknown values are ignored.
	// If some error will occur during data retrieve, the error will be returned together with "nil" value.
	GetAll(ctx context.Context, page, count int, mode, outcome string) ([]models.TaskRun, error)
}

// TaskHandler handles the task lifecycle routes of the panel
type TaskHandler struct {
	BaseHandler
	coordinator TaskCoordinator
	log         EventLog
	feed        FeedStatus
	history     HistoryService
}

// NewTaskHandler creates a new task handler. "feed" and "history" may be nil.
func NewTaskHandler(coordinator TaskCoordinator, log EventLog, feed FeedStatus, history HistoryService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		BaseHandler: BaseHandler{logger: logger},
		coordinator: coordinator,
		log:         log,
		feed:        feed,
		history:     history,
	}
}

// RegisterRoutes registers all task handler routes
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.Submit)
		r.Post("/resume", h.Resume)
		r.Get("/current", h.Current)
		r.Post("/reset", h.Reset)
		r.Route("/selection", func(r chi.Router) {
			r.Post("/ready", h.SelectionReady)
			r.Put("/", h.Choose)
			r.Post("/confirm", h.Confirm)
		})
	})
	r.Get("/logs", h.Logs)
	r.Delete("/logs", h.ClearLogs)
	r.Get("/history", h.History)
}

// Submit handles POST /api/v1/tasks
// @Summary Submit a task
// @Description Validate a game unlock or workshop download and send it to the task server. Polling starts on success.
// @Tags tasks
// @Accept json
// @Produce json
// @Param task body models.SubmitTaskRequest true "Task to submit"
// @Success 202 {object} models.TaskSnapshot "Task accepted"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 409 {object} map[string]string "A task is already running"
// @Failure 502 {object} map[string]string "Task server unreachable or rejected the task"
// @Router /tasks [post]
func (h *TaskHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitTaskRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.coordinator.Submit(r.Context(), req.ToTaskRequest()); err != nil {
		h.respondTaskError(w, err)
		return
	}

	h.respondJSON(w, http.StatusAccepted, h.coordinator.Snapshot())
}

// Resume handles POST /api/v1/tasks/resume
// @Summary Resume task observation
// @Description Poll a task that is already running on the task server, for instance after a restart of this client
// @Tags tasks
// @Accept json
// @Produce json
// @Param task body models.ResumeTaskRequest true "Task to observe"
// @Success 202 {object} models.TaskSnapshot "Polling started"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 409 {object} map[string]string "A task is already running"
// @Router /tasks/resume [post]
func (h *TaskHandler) Resume(w http.ResponseWriter, r *http.Request) {
	var req models.ResumeTaskRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.coordinator.Resume(r.Context(), req.Mode, req.Identifier); err != nil {
		h.respondTaskError(w, err)
		return
	}

	h.respondJSON(w, http.StatusAccepted, h.coordinator.Snapshot())
}

// Current handles GET /api/v1/tasks/current
// @Summary Get current task
// @Description Get the session state, the pending source selection and the last notification
// @Tags tasks
// @Produce json
// @Success 200 {object} models.TaskSnapshot "Current state"
// @Router /tasks/current [get]
func (h *TaskHandler) Current(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.coordinator.Snapshot())
}

// Reset handles POST /api/v1/tasks/reset
// @Summary Reset the session
// @Description Stop polling, drop the pending selection and return to idle. The task server is not contacted.
// @Tags tasks
// @Produce json
// @Success 200 {object} models.TaskSnapshot "Idle state"
// @Router /tasks/reset [post]
func (h *TaskHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.coordinator.Reset()
	h.respondJSON(w, http.StatusOK, h.coordinator.Snapshot())
}

// SelectionReady handles POST /api/v1/tasks/selection/ready
// @Summary Enable the source selection
// @Description Called by the UI once the candidates are rendered
// @Tags selection
// @Produce json
// @Success 200 {object} models.TaskSnapshot "Selection enabled"
// @Failure 404 {object} map[string]string "No selection pending"
// @Router /tasks/selection/ready [post]
func (h *TaskHandler) SelectionReady(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.MarkSelectionReady(); err != nil {
		h.respondTaskError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, h.coordinator.Snapshot())
}

// Choose handles PUT /api/v1/tasks/selection
// @Summary Choose a source
// @Description Pick a candidate by index or a source by name
// @Tags selection
// @Accept json
// @Produce json
// @Param choice body models.SelectionChoiceRequest true "Chosen candidate"
// @Success 200 {object} models.TaskSnapshot "Choice recorded"
// @Failure 400 {object} map[string]string "Invalid choice"
// @Failure 404 {object} map[string]string "No selection pending"
// @Failure 409 {object} map[string]string "Selection not ready"
// @Router /tasks/selection [put]
func (h *TaskHandler) Choose(w http.ResponseWriter, r *http.Request) {
	var req models.SelectionChoiceRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	source := strings.TrimSpace(req.Source)
	if (req.Index == nil) == (source == "") {
		h.respondError(w, http.StatusBadRequest, "either index or source is required")
		return
	}

	var err error
	if req.Index != nil {
		err = h.coordinator.Choose(*req.Index)
	} else {
		err = h.coordinator.ChooseDirect(source)
	}
	if err != nil {
		h.respondTaskError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.coordinator.Snapshot())
}

// Confirm handles POST /api/v1/tasks/selection/confirm
// @Summary Confirm the source
// @Description Resubmit the task with the chosen source and the original flags
// @Tags selection
// @Produce json
// @Success 202 {object} models.TaskSnapshot "Resubmitted"
// @Failure 404 {object} map[string]string "No selection pending"
// @Failure 409 {object} map[string]string "Selection not ready"
// @Failure 502 {object} map[string]string "Resubmission failed"
// @Router /tasks/selection/confirm [post]
func (h *TaskHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.ConfirmSelection(r.Context()); err != nil {
		h.respondTaskError(w, err)
		return
	}
	h.respondJSON(w, http.StatusAccepted, h.coordinator.Snapshot())
}

// Logs handles GET /api/v1/logs
// @Summary Get progress log
// @Description Get the buffered progress events, oldest first
// @Tags logs
// @Produce json
// @Param limit query int false "Return only the newest entries"
// @Success 200 {object} models.LogsResponse "Progress log"
// @Router /logs [get]
func (h *TaskHandler) Logs(w http.ResponseWriter, r *http.Request) {
	entries := h.log.Entries()
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
	}

	resp := models.LogsResponse{Entries: entries}
	if h.feed != nil {
		resp.Connected = h.feed.Connected()
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// ClearLogs handles DELETE /api/v1/logs
// @Summary Clear progress log
// @Tags logs
// @Success 204 "Log cleared"
// @Router /logs [delete]
func (h *TaskHandler) ClearLogs(w http.ResponseWriter, r *http.Request) {
	h.log.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /api/v1/history
// @Summary Get task history
// @Description Get finished attempts, newest first. Available when a database is configured.
// @Tags history
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 20)"
// @Param mode query string false "game or workshop"
// @Param outcome query string false "completed, server_error, timeout, transport, submission or aborted"
// @Success 200 {array} models.TaskRun "Finished attempts"
// @Failure 500 {object} map[string]string "Internal server error"
// @Failure 503 {object} map[string]string "History disabled"
// @Router /history [get]
func (h *TaskHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.respondTaskError(w, services.ErrHistoryDisabled)
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	count, _ := strconv.Atoi(query.Get("count"))

	runs, err := h.history.GetAll(r.Context(), page, count, query.Get("mode"), query.Get("outcome"))
	if err != nil {
		h.logger.Error("failed to get task history", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to get task history")
		return
	}

	h.respondJSON(w, http.StatusOK, runs)
}
