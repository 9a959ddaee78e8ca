package services

import (
	"context"
	"strings"
	"sync"

	"github.com/caiinstall/caictl/internal/models"
	"go.uber.org/zap"
)

// Selection is one pending choice between candidate sources.
//
// The first candidate is pre-selected. Choices are rejected until MarkReady is called,
// which the UI does once the candidates are on screen.
type Selection struct {
	mu         sync.Mutex
	candidates []models.SourceCandidate
	chosen     int
	direct     string
	ready      chan struct{}
	readyOnce  sync.Once
}

func newSelection(candidates []models.SourceCandidate) *Selection {
	cp := make([]models.SourceCandidate, len(candidates))
	copy(cp, candidates)
	return &Selection{
		candidates: cp,
		chosen:     0,
		ready:      make(chan struct{}),
	}
}

// Candidates returns the candidates in server order
func (s *Selection) Candidates() []models.SourceCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]models.SourceCandidate, len(s.candidates))
	copy(cp, s.candidates)
	return cp
}

// MarkReady enables the choice inputs
func (s *Selection) MarkReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// Ready is closed once MarkReady has been called
func (s *Selection) Ready() <-chan struct{} {
	return s.ready
}

// Enabled reports whether choices are accepted
func (s *Selection) Enabled() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Choose picks the candidate at index and drops any direct source
func (s *Selection) Choose(index int) error {
	if !s.Enabled() {
		return ErrSelectionNotReady
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.candidates) {
		return ErrInvalidCandidate
	}
	s.chosen = index
	s.direct = ""
	return nil
}

// ChooseDirect picks a source from the form instead of a candidate
func (s *Selection) ChooseDirect(source string) error {
	if !s.Enabled() {
		return ErrSelectionNotReady
	}
	source = strings.TrimSpace(source)
	if source == "" || source == models.DefaultSource {
		return ErrInvalidCandidate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.direct = source
	s.chosen = -1
	return nil
}

// Chosen returns the source hint of the current choice
func (s *Selection) Chosen() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.direct != "" {
		return s.direct, true
	}
	if s.chosen < 0 || s.chosen >= len(s.candidates) {
		return "", false
	}
	return s.candidates[s.chosen].RepositoryID, true
}

// View returns a copy of the selection state for display
func (s *Selection) View() models.SelectionView {
	enabled := s.Enabled()
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]models.SourceCandidate, len(s.candidates))
	copy(cp, s.candidates)
	return models.SelectionView{
		Candidates:   cp,
		Enabled:      enabled,
		ChosenIndex:  s.chosen,
		DirectSource: s.direct,
	}
}

// SourceSelectionHandler owns the pending selection and turns a confirmed choice into a resubmission
type SourceSelectionHandler struct {
	cache     *ContextCache
	submitter *TaskSubmitter
	logger    *zap.Logger

	mu      sync.Mutex
	current *Selection
}

// NewSourceSelectionHandler creates a handler restoring flags from cache
func NewSourceSelectionHandler(cache *ContextCache, submitter *TaskSubmitter, logger *zap.Logger) *SourceSelectionHandler {
	return &SourceSelectionHandler{
		cache:     cache,
		submitter: submitter,
		logger:    logger,
	}
}

// Present replaces the pending selection with a new one over candidates
func (h *SourceSelectionHandler) Present(candidates []models.SourceCandidate) *Selection {
	sel := newSelection(candidates)
	h.mu.Lock()
	h.current = sel
	h.mu.Unlock()
	return sel
}

// Current returns the pending selection or nil
func (h *SourceSelectionHandler) Current() *Selection {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Confirm resubmits the task with the chosen source and the captured flags.
//
// The pending selection and the cached context are consumed even when the resubmission fails.
func (h *SourceSelectionHandler) Confirm(ctx context.Context) (models.TaskRequest, error) {
	h.mu.Lock()
	sel := h.current
	h.mu.Unlock()
	if sel == nil {
		return models.TaskRequest{}, ErrNoSelection
	}
	if !sel.Enabled() {
		return models.TaskRequest{}, ErrSelectionNotReady
	}
	hint, ok := sel.Chosen()
	if !ok {
		return models.TaskRequest{}, ErrInvalidCandidate
	}

	h.Close()
	tc, ok := h.cache.Consume()
	if !ok {
		return models.TaskRequest{}, ErrContextMissing
	}

	task := models.TaskRequest{
		Mode:       tc.Mode,
		Identifier: tc.Identifier,
		SourceHint: hint,
		Flags:      tc.Flags,
	}
	h.logger.Info("resubmitting with chosen source", zap.String("identifier", tc.Identifier), zap.String("source", hint))
	return h.submitter.Resubmit(ctx, task)
}

// Reset drops the pending selection and the cached context
func (h *SourceSelectionHandler) Reset() {
	h.Close()
	h.cache.Clear()
}

// Close drops the pending selection
func (h *SourceSelectionHandler) Close() {
	h.mu.Lock()
	h.current = nil
	h.mu.Unlock()
}
