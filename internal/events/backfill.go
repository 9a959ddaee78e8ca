package events

import (
	"sync"
	"time"

	"github.com/caiinstall/caictl/internal/models"
)

// Backfill turns the progress tail of status polls into events.
//
// Each status carries the last lines the server logged. Lines already seen in the previous
// tail are skipped. While live reports true the feed delivers the same lines, so nothing is
// emitted, but the tail is still tracked.
type Backfill struct {
	live     func() bool
	mu       sync.Mutex
	last     []models.ProgressEvent
	handlers []Handler
}

// NewBackfill creates a backfill muted while live returns true. "live" may be nil.
func NewBackfill(live func() bool) *Backfill {
	return &Backfill{live: live}
}

// OnEvent registers a handler for replayed lines
func (b *Backfill) OnEvent(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// ObserveProgress takes the progress tail of one status poll
func (b *Backfill) ObserveProgress(tail []models.ProgressEvent) {
	b.mu.Lock()
	fresh := unseenLines(b.last, tail)
	b.last = append(b.last[:0], tail...)
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	if len(fresh) == 0 || (b.live != nil && b.live()) {
		return
	}
	now := time.Now()
	for _, ev := range fresh {
		if ev.Message == "" {
			continue
		}
		if ev.Type == "" {
			ev.Type = "info"
		}
		ev.ReceivedAt = now
		for _, h := range handlers {
			h(ev)
		}
	}
}

// unseenLines returns the lines of tail after its longest overlap with the end of prev
func unseenLines(prev, tail []models.ProgressEvent) []models.ProgressEvent {
	for k := min(len(prev), len(tail)); k > 0; k-- {
		if sameLines(prev[len(prev)-k:], tail[:k]) {
			return tail[k:]
		}
	}
	return tail
}

func sameLines(a, b []models.ProgressEvent) bool {
	for i := range a {
		if a[i].Type != b[i].Type || a[i].Message != b[i].Message {
			return false
		}
	}
	return true
}
