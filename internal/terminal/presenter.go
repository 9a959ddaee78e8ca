package terminal

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/caiinstall/caictl/internal/models"
	"github.com/caiinstall/caictl/internal/services"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// SelectionResolver receives the outcome of the picker
type SelectionResolver interface {
	Choose(index int) error
	ConfirmSelection(ctx context.Context) error
	Reset()
}

// Presenter prints task progress to a terminal and runs the source picker
type Presenter struct {
	in     io.Reader
	out    io.Writer
	logger *zap.Logger

	mu       sync.Mutex
	resolver SelectionResolver
	outcomes chan models.Notification

	// runPicker is replaced in tests
	runPicker func(m pickerModel) (pickerModel, error)
}

// NewPresenter creates a presenter reading keys from in and writing to out
func NewPresenter(in io.Reader, out io.Writer, logger *zap.Logger) *Presenter {
	p := &Presenter{
		in:       in,
		out:      out,
		logger:   logger,
		outcomes: make(chan models.Notification, 4),
	}
	p.runPicker = p.runProgram
	return p
}

// Bind sets the collaborator that handles picker results. It must be called before a task is submitted.
func (p *Presenter) Bind(r SelectionResolver) {
	p.mu.Lock()
	p.resolver = r
	p.mu.Unlock()
}

// SetBusy implements services.Presenter
func (p *Presenter) SetBusy(busy bool) {
	if busy {
		fmt.Fprintln(p.out, mutedStyle.Render("… task running"))
	}
}

// Notify implements services.Presenter
func (p *Presenter) Notify(n models.Notification) {
	fmt.Fprintln(p.out, formatLine(n.Severity, n.Message))
	if n.Kind.IsOutcome() {
		select {
		case p.outcomes <- n:
		default:
			p.logger.Warn("dropped task outcome", zap.String("kind", string(n.Kind)))
		}
	}
}

// PresentChoices implements services.Presenter. The picker runs on its own goroutine.
func (p *Presenter) PresentChoices(sel *services.Selection) {
	go p.pick(sel)
}

// PrintEvent writes one progress event from the server feed
func (p *Presenter) PrintEvent(ev models.ProgressEvent) {
	fmt.Fprintln(p.out, formatLine(eventSeverity(ev.Type), ev.Message))
}

// Wait blocks until an attempt finishes and returns its notification
func (p *Presenter) Wait(ctx context.Context) (models.Notification, error) {
	select {
	case n := <-p.outcomes:
		return n, nil
	case <-ctx.Done():
		return models.Notification{}, ctx.Err()
	}
}

func (p *Presenter) pick(sel *services.Selection) {
	p.mu.Lock()
	resolver := p.resolver
	p.mu.Unlock()
	if resolver == nil {
		p.logger.Error("source selection presented without a resolver")
		return
	}

	m, err := p.runPicker(newPickerModel(sel))
	if err != nil {
		p.logger.Error("source picker failed", zap.Error(err))
		resolver.Reset()
		return
	}
	if m.cancelled || m.chosen < 0 {
		resolver.Reset()
		return
	}
	if err := resolver.Choose(m.chosen); err != nil {
		p.logger.Error("failed to choose source", zap.Int("index", m.chosen), zap.Error(err))
		resolver.Reset()
		return
	}
	// a failed resubmission ends the attempt with its own notification
	if err := resolver.ConfirmSelection(context.Background()); err != nil {
		p.logger.Debug("resubmission failed", zap.Error(err))
	}
}

func (p *Presenter) runProgram(m pickerModel) (pickerModel, error) {
	final, err := tea.NewProgram(m, tea.WithInput(p.in), tea.WithOutput(p.out)).Run()
	if err != nil {
		return m, fmt.Errorf("failed to run picker: %w", err)
	}
	return final.(pickerModel), nil
}
