package events

import (
	"sync"

	"github.com/caiinstall/caictl/internal/models"
)

// DefaultLogCapacity matches the number of progress lines the server keeps
const DefaultLogCapacity = 200

// Log is a bounded display log. Entries keep arrival order, the oldest is dropped first.
// Duplicates are kept.
type Log struct {
	mu       sync.Mutex
	entries  []models.ProgressEvent
	start    int
	size     int
	capacity int
}

// NewLog creates a log holding at most capacity entries
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &Log{
		entries:  make([]models.ProgressEvent, capacity),
		capacity: capacity,
	}
}

// Append adds an entry, evicting the oldest one when full.
// It has the Handler signature so it can be registered on a Sink directly.
func (l *Log) Append(ev models.ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := (l.start + l.size) % l.capacity
	l.entries[idx] = ev
	if l.size < l.capacity {
		l.size++
		return
	}
	l.start = (l.start + 1) % l.capacity
}

// Entries returns a copy of the entries, oldest first
func (l *Log) Entries() []models.ProgressEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.ProgressEvent, 0, l.size)
	for i := 0; i < l.size; i++ {
		out = append(out, l.entries[(l.start+i)%l.capacity])
	}
	return out
}

// Len returns the number of entries held
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Clear drops every entry
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.entries)
	l.start = 0
	l.size = 0
}
