package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/caiinstall/caictl/internal/models"
	"go.uber.org/zap"
)

// StatusFetcher is the interface that wraps the status call of the task server.
type StatusFetcher interface {
	// Method TaskStatus retrieves the current task status.
	//
	// "ctx" parameter bounds the request; the loop passes its own deadline through it.
	// If the request fails or the body cannot be decoded, the error will be returned together with "nil" value.
	TaskStatus(ctx context.Context) (*models.TaskStatus, error)
}

// LoopHandlers receives the outcome of each poll. Exactly one of OnTerminal,
// OnNeedsSelection and OnFailure is called, and only once, unless the loop is cancelled.
type LoopHandlers struct {
	OnTick           func(status *models.TaskStatus)
	OnTerminal       func(status *models.TaskStatus)
	OnNeedsSelection func(status *models.TaskStatus, sel *models.SelectionRequest)
	OnFailure        func(err error)
}

// PollingLoop polls the task status on a fixed interval under one overall deadline.
// A loop runs once; a resubmission gets a new loop and a new deadline.
type PollingLoop struct {
	api      StatusFetcher
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	stopped bool
}

// NewPollingLoop creates a loop that is not yet running
func NewPollingLoop(api StatusFetcher, interval, timeout time.Duration, logger *zap.Logger) *PollingLoop {
	return &PollingLoop{
		api:      api,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the poll goroutine. The first poll happens one interval after Start.
// Calling Start twice, or after Cancel, does nothing.
func (l *PollingLoop) Start(parent context.Context, h LoopHandlers) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.started = true
	if l.stopped {
		close(l.done)
		return
	}

	// the ticker and the deadline share ctx so they always stop together
	ctx, cancel := context.WithTimeout(parent, l.timeout)
	l.cancel = cancel
	go l.run(ctx, cancel, h)
}

// Cancel stops the loop. It does not wait and may be called any number of times.
func (l *PollingLoop) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	if l.cancel != nil {
		l.cancel()
	}
}

// Active reports whether the poll goroutine is still running
func (l *PollingLoop) Active() bool {
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	if !started {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the poll goroutine has exited. It must not be called from a handler.
func (l *PollingLoop) Wait() {
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	if !started {
		return
	}
	<-l.done
}

func (l *PollingLoop) run(ctx context.Context, cancel context.CancelFunc, h LoopHandlers) {
	defer close(l.done)
	defer cancel()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.finishOnDone(ctx, h)
			return
		case <-ticker.C:
		}

		status, err := l.api.TaskStatus(ctx)
		if ctx.Err() != nil {
			// cancelled or timed out while the poll was in flight, the answer is stale
			l.finishOnDone(ctx, h)
			return
		}
		if err != nil {
			l.logger.Warn("status poll failed", zap.Error(err))
			call(h.OnFailure, &PollTransportError{Err: err})
			return
		}

		if sel, ok := status.SelectionRequest(); ok {
			l.logger.Info("server requested a source selection", zap.Int("candidates", len(sel.Candidates)))
			if h.OnNeedsSelection != nil {
				h.OnNeedsSelection(status, sel)
			}
			return
		}

		switch status.State {
		case models.TaskStateCompleted, models.TaskStateError:
			if h.OnTerminal != nil {
				h.OnTerminal(status)
			}
			return
		case models.TaskStateIdle, models.TaskStateRunning:
		default:
			l.logger.Debug("unknown task state, polling continues", zap.String("state", string(status.State)))
		}
		if h.OnTick != nil {
			h.OnTick(status)
		}
	}
}

func (l *PollingLoop) finishOnDone(ctx context.Context, h LoopHandlers) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		l.logger.Warn("task timed out", zap.Duration("timeout", l.timeout))
		call(h.OnFailure, &TaskTimeoutError{Timeout: l.timeout})
	}
}

func call(fn func(error), err error) {
	if fn != nil {
		fn(err)
	}
}
