package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/caiinstall/caictl/internal/models"
	"go.uber.org/zap"
)

// TaskAPI is the part of the task server the coordinator drives
type TaskAPI interface {
	TaskStarter
	StatusFetcher
}

// Presenter is the UI collaborator of the coordinator.
// Methods are never called while the coordinator holds its lock, but they may be called
// from the polling goroutine.
type Presenter interface {
	// SetBusy mirrors the session state: true while running
	SetBusy(busy bool)
	// Notify shows the outcome of an attempt or a rejected action
	Notify(n models.Notification)
	// PresentChoices renders the candidates of sel and calls sel.MarkReady once they are visible.
	// It must return without waiting for the user.
	PresentChoices(sel *Selection)
}

// HistoryRecorder stores finished attempts
type HistoryRecorder interface {
	Record(ctx context.Context, run models.TaskRun) error
}

// ProgressObserver receives the progress tail of every status poll
type ProgressObserver interface {
	ObserveProgress(tail []models.ProgressEvent)
}

// CoordinatorConfig holds the timing of the polling loops.
// Progress is optional.
type CoordinatorConfig struct {
	PollInterval time.Duration
	TaskTimeout  time.Duration
	Progress     ProgressObserver
}

type phase int

const (
	phaseIdle phase = iota
	phaseSubmitting
	phasePolling
	phaseAwaitingSelection
)

// TaskCoordinator drives one task at a time through submission, polling and source selection.
//
// It owns the context cache, the session gate, the active polling loop and the pending selection.
// Every attempt ends on exactly one notification, after which the loop is cancelled,
// the cache is cleared and the session is idle.
type TaskCoordinator struct {
	api       TaskAPI
	presenter Presenter
	history   HistoryRecorder
	cfg       CoordinatorConfig
	logger    *zap.Logger

	session   *Session
	cache     *ContextCache
	submitter *TaskSubmitter
	selection *SourceSelectionHandler

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu sync.Mutex
	// gen is bumped on every transition that invalidates in-flight callbacks
	gen           uint64
	phase         phase
	loop          *PollingLoop
	current       models.TaskRequest
	hasLocalFlags bool
	startedAt     time.Time
	last          *models.Notification
}

// NewTaskCoordinator wires a coordinator. "history" may be nil.
func NewTaskCoordinator(api TaskAPI, presenter Presenter, history HistoryRecorder, cfg CoordinatorConfig, logger *zap.Logger) *TaskCoordinator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 1500 * time.Millisecond
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 300 * time.Second
	}

	c := &TaskCoordinator{
		api:       api,
		presenter: presenter,
		history:   history,
		cfg:       cfg,
		logger:    logger,
		cache:     NewContextCache(),
	}
	c.session = NewSession(func(state models.SessionState) {
		presenter.SetBusy(state == models.SessionRunning)
	})
	c.submitter = NewTaskSubmitter(api, c.session, logger)
	c.selection = NewSourceSelectionHandler(c.cache, c.submitter, logger)
	c.baseCtx, c.baseCancel = context.WithCancel(context.Background())
	return c
}

// Submit validates and starts a task, then begins polling.
//
// While a task is running the call is rejected with ErrTaskRunning and a warning notification,
// without contacting the server.
func (c *TaskCoordinator) Submit(ctx context.Context, task models.TaskRequest) error {
	startedAt := time.Now()
	sent, err := c.submitter.Submit(ctx, task)
	if err != nil {
		var validationErr *ValidationError
		switch {
		case errors.Is(err, ErrTaskRunning):
			c.emit(busyNotification())
		case errors.As(err, &validationErr):
			c.emit(models.Notification{Severity: models.SeverityError, Kind: models.NotificationValidation, Message: validationErr.Message})
		default:
			// the submitter already released the session
			c.finish(runFor(sent, startedAt), submissionNotification(err))
		}
		return err
	}

	c.mu.Lock()
	c.gen++
	c.current = sent
	c.hasLocalFlags = true
	c.startedAt = startedAt
	c.startLoopLocked()
	c.mu.Unlock()
	return nil
}

// Resume observes a task already running on the server, for instance after this client restarted.
// No start call is made. If the task asks for a source selection, the flags echoed by the
// server are used for the resubmission. An empty mode means game.
func (c *TaskCoordinator) Resume(ctx context.Context, mode models.Mode, identifier string) error {
	if mode == "" {
		mode = models.ModeGame
	}
	task := models.TaskRequest{Mode: mode, Identifier: strings.TrimSpace(identifier)}
	// the copy flags of a workshop task are unknown here, so only the target is checked
	if err := validateTarget(task); err != nil {
		c.emit(models.Notification{Severity: models.SeverityError, Kind: models.NotificationValidation, Message: err.Error()})
		return err
	}
	if !c.session.TryAcquire() {
		c.emit(busyNotification())
		return ErrTaskRunning
	}
	task = normalize(task)

	c.mu.Lock()
	c.gen++
	c.current = task
	c.hasLocalFlags = false
	c.startedAt = time.Now()
	c.startLoopLocked()
	c.mu.Unlock()

	c.logger.Info("resumed task observation", zap.String("mode", string(task.Mode)), zap.String("identifier", task.Identifier))
	return nil
}

// MarkSelectionReady enables the pending selection
func (c *TaskCoordinator) MarkSelectionReady() error {
	sel, err := c.pendingSelection()
	if err != nil {
		return err
	}
	sel.MarkReady()
	return nil
}

// Choose picks the candidate at index in the pending selection
func (c *TaskCoordinator) Choose(index int) error {
	sel, err := c.pendingSelection()
	if err != nil {
		return err
	}
	return sel.Choose(index)
}

// ChooseDirect picks a source by name instead of a candidate
func (c *TaskCoordinator) ChooseDirect(source string) error {
	sel, err := c.pendingSelection()
	if err != nil {
		return err
	}
	return sel.ChooseDirect(source)
}

// ConfirmSelection resubmits the task with the chosen source and the captured flags,
// then polls again with a fresh timeout.
//
// ErrNoSelection and ErrSelectionNotReady leave the selection pending.
// Any other failure ends the attempt.
func (c *TaskCoordinator) ConfirmSelection(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != phaseAwaitingSelection {
		c.mu.Unlock()
		return ErrNoSelection
	}
	sel := c.selection.Current()
	if sel == nil {
		c.mu.Unlock()
		return ErrNoSelection
	}
	if !sel.Enabled() {
		c.mu.Unlock()
		return ErrSelectionNotReady
	}
	c.gen++
	gen := c.gen
	c.phase = phaseSubmitting
	c.mu.Unlock()

	sent, err := c.selection.Confirm(ctx)

	c.mu.Lock()
	if gen != c.gen {
		// reset while the resubmission was in flight
		c.mu.Unlock()
		if err == nil {
			c.logger.Warn("resubmission completed after reset, not polling", zap.String("attempt_id", sent.AttemptID))
		}
		return ErrNoSelection
	}
	if err != nil {
		c.gen++
		startedAt := c.startedAt
		if sent.AttemptID == "" {
			sent = c.current
		}
		c.clearLocked()
		c.mu.Unlock()

		c.session.Release()
		c.finish(runFor(sent, startedAt), submissionNotification(err))
		return err
	}
	c.current = sent
	c.startLoopLocked()
	c.mu.Unlock()
	return nil
}

// Reset abandons the current attempt: the loop is cancelled, the pending selection and the
// cached context are dropped, and the session returns to idle.
// An aborted notification is emitted only when an attempt was in progress.
func (c *TaskCoordinator) Reset() {
	c.mu.Lock()
	wasActive := c.phase != phaseIdle
	c.gen++
	loop := c.loop
	run := c.runLocked()
	c.clearLocked()
	c.mu.Unlock()

	if loop != nil {
		loop.Cancel()
	}
	if wasActive {
		c.session.Release()
		n := models.Notification{Severity: models.SeverityInfo, Kind: models.NotificationAborted, Message: "task observation cancelled"}
		c.finish(run, n)
	}
}

// Snapshot returns the current state for display
func (c *TaskCoordinator) Snapshot() models.TaskSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := models.TaskSnapshot{State: c.session.State()}
	snap.Busy = snap.State == models.SessionRunning
	if c.phase != phaseIdle {
		snap.AttemptID = c.current.AttemptID
		snap.Mode = c.current.Mode
		snap.Identifier = c.current.Identifier
	}
	if c.phase == phaseAwaitingSelection {
		if sel := c.selection.Current(); sel != nil {
			view := sel.View()
			snap.Selection = &view
		}
	}
	if c.last != nil {
		n := *c.last
		snap.LastNotification = &n
	}
	return snap
}

// CachedContext returns the flags held for a pending selection
func (c *TaskCoordinator) CachedContext() (models.TaskContext, bool) {
	return c.cache.Peek()
}

// Close stops any running loop and waits for it to exit. The coordinator must not be used afterwards.
func (c *TaskCoordinator) Close() {
	c.mu.Lock()
	c.gen++
	loop := c.loop
	c.clearLocked()
	c.mu.Unlock()

	c.baseCancel()
	if loop != nil {
		loop.Cancel()
		loop.Wait()
	}
	c.session.Release()
}

// startLoopLocked starts a new polling loop for the current generation
func (c *TaskCoordinator) startLoopLocked() {
	gen := c.gen
	loop := NewPollingLoop(c.api, c.cfg.PollInterval, c.cfg.TaskTimeout, c.logger)
	c.loop = loop
	c.phase = phasePolling
	loop.Start(c.baseCtx, LoopHandlers{
		OnTick: func(status *models.TaskStatus) {
			c.observeProgress(status)
			c.logger.Debug("task still running", zap.String("state", string(status.State)))
		},
		OnTerminal: func(status *models.TaskStatus) {
			c.observeProgress(status)
			c.onTerminal(gen, status)
		},
		OnNeedsSelection: func(status *models.TaskStatus, sel *models.SelectionRequest) {
			c.observeProgress(status)
			c.onNeedsSelection(gen, sel)
		},
		OnFailure: func(err error) {
			c.onFailure(gen, err)
		},
	})
}

func (c *TaskCoordinator) observeProgress(status *models.TaskStatus) {
	if c.cfg.Progress != nil && status != nil {
		c.cfg.Progress.ObserveProgress(status.Progress)
	}
}

func (c *TaskCoordinator) onTerminal(gen uint64, status *models.TaskStatus) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.gen++
	run := c.runLocked()
	c.clearLocked()
	c.mu.Unlock()

	c.session.Release()
	c.finish(run, terminalNotification(status))
}

func (c *TaskCoordinator) onNeedsSelection(gen uint64, req *models.SelectionRequest) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	if len(req.Candidates) == 0 {
		c.gen++
		run := c.runLocked()
		c.clearLocked()
		c.mu.Unlock()

		c.session.Release()
		c.finish(run, models.Notification{
			Severity: models.SeverityError,
			Kind:     models.NotificationServerError,
			Message:  "the server asked for a source selection without any candidates",
		})
		return
	}

	flags := c.current.Flags
	if !c.hasLocalFlags && req.Flags != nil {
		flags = *req.Flags
	}
	c.cache.Capture(models.TaskContext{
		Mode:       c.current.Mode,
		Identifier: c.current.Identifier,
		Flags:      flags,
	})
	sel := c.selection.Present(req.Candidates)
	c.loop = nil
	c.phase = phaseAwaitingSelection
	c.mu.Unlock()

	c.presenter.PresentChoices(sel)
}

func (c *TaskCoordinator) onFailure(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.gen++
	run := c.runLocked()
	c.clearLocked()
	c.mu.Unlock()

	c.session.Release()

	n := models.Notification{Severity: models.SeverityError, Message: err.Error()}
	var timeoutErr *TaskTimeoutError
	switch {
	case errors.As(err, &timeoutErr):
		n.Kind = models.NotificationTimeout
		n.Message = "the task did not finish in time, check the server log"
	default:
		n.Kind = models.NotificationTransport
	}
	c.finish(run, n)
}

// runLocked builds the history row of the current attempt
func (c *TaskCoordinator) runLocked() models.TaskRun {
	return runFor(c.current, c.startedAt)
}

func runFor(task models.TaskRequest, startedAt time.Time) models.TaskRun {
	return models.TaskRun{
		AttemptID:  task.AttemptID,
		Mode:       task.Mode,
		Identifier: task.Identifier,
		SourceHint: task.SourceHint,
		StartedAt:  startedAt,
	}
}

// clearLocked returns the coordinator to idle. The session is released by the caller.
func (c *TaskCoordinator) clearLocked() {
	c.phase = phaseIdle
	c.loop = nil
	c.selection.Reset()
	c.current = models.TaskRequest{}
	c.hasLocalFlags = false
}

func (c *TaskCoordinator) finish(run models.TaskRun, n models.Notification) {
	n.AttemptID = run.AttemptID
	c.emit(n)

	if c.history == nil || run.AttemptID == "" {
		return
	}
	run.Outcome = n.Kind
	run.Message = n.Message
	run.FinishedAt = n.CreatedAt
	if err := c.history.Record(context.WithoutCancel(c.baseCtx), run); err != nil {
		c.logger.Error("failed to record task run", zap.String("attempt_id", run.AttemptID), zap.Error(err))
	}
}

func (c *TaskCoordinator) emit(n models.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	c.mu.Lock()
	last := n
	c.last = &last
	c.mu.Unlock()

	c.presenter.Notify(n)
}

func (c *TaskCoordinator) pendingSelection() (*Selection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != phaseAwaitingSelection {
		return nil, ErrNoSelection
	}
	sel := c.selection.Current()
	if sel == nil {
		return nil, ErrNoSelection
	}
	return sel, nil
}

func terminalNotification(status *models.TaskStatus) models.Notification {
	n := models.Notification{Kind: models.NotificationCompleted, Severity: models.SeveritySuccess}
	result := status.Result
	if result != nil {
		n.Message = result.Message
	}
	switch {
	case status.State == models.TaskStateError || (result != nil && !result.Success):
		n.Kind = models.NotificationServerError
		n.Severity = models.SeverityError
		if n.Message == "" {
			n.Message = "the task failed"
		}
	case n.Message == "":
		n.Message = "task completed"
	}
	return n
}

func submissionNotification(err error) models.Notification {
	message := err.Error()
	var subErr *SubmissionError
	if errors.As(err, &subErr) && subErr.Message != "" {
		message = subErr.Message
	}
	return models.Notification{Severity: models.SeverityError, Kind: models.NotificationSubmission, Message: message}
}

func busyNotification() models.Notification {
	return models.Notification{
		Severity: models.SeverityWarning,
		Kind:     models.NotificationBusy,
		Message:  "a task is already running, wait for it to finish",
	}
}
