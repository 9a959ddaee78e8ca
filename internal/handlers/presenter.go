package handlers

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/caiinstall/caictl/internal/models"
	"github.com/caiinstall/caictl/internal/services"
	"go.uber.org/zap"
)

// EventAppender receives the panel's own entries for the progress log
type EventAppender interface {
	Append(ev models.ProgressEvent)
}

// PanelPresenter is the coordinator presenter used by the HTTP panel.
// The browser learns about state changes by polling /tasks/current, so the presenter
// only records them. The selection is enabled by the browser through /tasks/selection/ready.
type PanelPresenter struct {
	log    EventAppender
	logger *zap.Logger
	busy   atomic.Bool
}

// NewPanelPresenter creates a presenter writing notifications into log
func NewPanelPresenter(log EventAppender, logger *zap.Logger) *PanelPresenter {
	return &PanelPresenter{log: log, logger: logger}
}

// SetBusy implements services.Presenter
func (p *PanelPresenter) SetBusy(busy bool) {
	p.busy.Store(busy)
}

// Busy reports the last busy state
func (p *PanelPresenter) Busy() bool {
	return p.busy.Load()
}

// Notify implements services.Presenter
func (p *PanelPresenter) Notify(n models.Notification) {
	p.log.Append(models.ProgressEvent{Type: string(n.Severity), Message: n.Message, ReceivedAt: n.CreatedAt})
	p.logger.Info("task notification",
		zap.String("kind", string(n.Kind)),
		zap.String("severity", string(n.Severity)),
		zap.String("attempt_id", n.AttemptID),
		zap.String("message", n.Message),
	)
}

// PresentChoices implements services.Presenter
func (p *PanelPresenter) PresentChoices(sel *services.Selection) {
	count := len(sel.Candidates())
	p.log.Append(models.ProgressEvent{
		Type:       string(models.SeverityWarning),
		Message:    fmt.Sprintf("%d sources found, choose one to continue", count),
		ReceivedAt: time.Now(),
	})
	p.logger.Info("source selection pending", zap.Int("candidates", count))
}
