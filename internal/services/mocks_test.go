package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/caiinstall/caictl/internal/models"
)

// mockTaskAPI is a scripted task server. Status answers are returned in order and the
// last one repeats.
type mockTaskAPI struct {
	mu          sync.Mutex
	startResp   *models.StartTaskResponse
	startErr    error
	startCalls  []models.TaskRequest
	statuses    []*models.TaskStatus
	statusErr   error
	statusCalls int
}

func (m *mockTaskAPI) StartTask(ctx context.Context, task models.TaskRequest) (*models.StartTaskResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startCalls = append(m.startCalls, task)
	if m.startErr != nil {
		return nil, m.startErr
	}
	if m.startResp != nil {
		return m.startResp, nil
	}
	return &models.StartTaskResponse{Success: true, Message: "task started"}, nil
}

func (m *mockTaskAPI) TaskStatus(ctx context.Context) (*models.TaskStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	if len(m.statuses) == 0 {
		return &models.TaskStatus{State: models.TaskStateRunning}, nil
	}
	idx := min(m.statusCalls-1, len(m.statuses)-1)
	return m.statuses[idx], nil
}

func (m *mockTaskAPI) starts() []models.TaskRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TaskRequest, len(m.startCalls))
	copy(out, m.startCalls)
	return out
}

func (m *mockTaskAPI) polls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}

// mockPresenter records every presenter call
type mockPresenter struct {
	mu            sync.Mutex
	autoReady     bool
	busy          []bool
	notifications []models.Notification
	notified      chan models.Notification
	selections    chan *Selection
}

func newMockPresenter(autoReady bool) *mockPresenter {
	return &mockPresenter{
		autoReady:  autoReady,
		notified:   make(chan models.Notification, 16),
		selections: make(chan *Selection, 4),
	}
}

func (p *mockPresenter) SetBusy(busy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy = append(p.busy, busy)
}

func (p *mockPresenter) Notify(n models.Notification) {
	p.mu.Lock()
	p.notifications = append(p.notifications, n)
	p.mu.Unlock()
	p.notified <- n
}

func (p *mockPresenter) PresentChoices(sel *Selection) {
	if p.autoReady {
		sel.MarkReady()
	}
	p.selections <- sel
}

func (p *mockPresenter) busyCalls() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]bool, len(p.busy))
	copy(out, p.busy)
	return out
}

func (p *mockPresenter) notificationCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.notifications)
}

func (p *mockPresenter) waitNotification(t *testing.T) models.Notification {
	t.Helper()
	select {
	case n := <-p.notified:
		return n
	case <-time.After(3 * time.Second):
		t.Fatal("no notification emitted")
		return models.Notification{}
	}
}

func (p *mockPresenter) waitSelection(t *testing.T) *Selection {
	t.Helper()
	select {
	case sel := <-p.selections:
		return sel
	case <-time.After(3 * time.Second):
		t.Fatal("no selection presented")
		return nil
	}
}

// mockHistory records stored runs
type mockHistory struct {
	mu   sync.Mutex
	runs []models.TaskRun
	err  error
}

func (m *mockHistory) Record(ctx context.Context, run models.TaskRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockHistory) recorded() []models.TaskRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TaskRun, len(m.runs))
	copy(out, m.runs)
	return out
}

// mockTaskRunRepository is a mock implementation of TaskRunRepository
type mockTaskRunRepository struct {
	runs        []models.TaskRun
	created     *models.TaskRun
	err         error
	lastPage    int
	lastCount   int
	lastMode    models.Mode
	lastOutcome models.NotificationKind
}

func (m *mockTaskRunRepository) Create(ctx context.Context, run *models.TaskRun) error {
	if m.err != nil {
		return m.err
	}
	run.ID = 1
	m.created = run
	return nil
}

func (m *mockTaskRunRepository) GetAll(ctx context.Context, page, count int, mode models.Mode, outcome models.NotificationKind) ([]models.TaskRun, error) {
	m.lastPage, m.lastCount, m.lastMode, m.lastOutcome = page, count, mode, outcome
	if m.err != nil {
		return nil, m.err
	}
	return m.runs, nil
}

// mockProgressObserver records the progress tails it is given
type mockProgressObserver struct {
	mu    sync.Mutex
	tails [][]models.ProgressEvent
}

func (m *mockProgressObserver) ObserveProgress(tail []models.ProgressEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tails = append(m.tails, tail)
}

func (m *mockProgressObserver) observed() [][]models.ProgressEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]models.ProgressEvent, len(m.tails))
	copy(out, m.tails)
	return out
}

func runningStatus() *models.TaskStatus {
	return &models.TaskStatus{State: models.TaskStateRunning}
}

func completedStatus(message string) *models.TaskStatus {
	return &models.TaskStatus{
		State:  models.TaskStateCompleted,
		Result: &models.TaskResult{Success: true, Message: message},
	}
}

func candidates(ids ...string) []models.SourceCandidate {
	out := make([]models.SourceCandidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.SourceCandidate{RepositoryID: id, LastUpdated: "2025-01-01T00:00:00Z"})
	}
	return out
}
