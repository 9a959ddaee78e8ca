package events

import (
	"sync/atomic"
	"testing"

	"github.com/caiinstall/caictl/internal/models"
	"github.com/stretchr/testify/assert"
)

func lines(msgs ...string) []models.ProgressEvent {
	out := make([]models.ProgressEvent, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, models.ProgressEvent{Type: "info", Message: m})
	}
	return out
}

func TestBackfill_ObserveProgress(t *testing.T) {
	tests := []struct {
		name     string
		tails    [][]models.ProgressEvent
		expected []string
	}{
		{
			name:     "first tail is replayed whole",
			tails:    [][]models.ProgressEvent{lines("a", "b")},
			expected: []string{"info:a", "info:b"},
		},
		{
			name:     "growing tail replays only new lines",
			tails:    [][]models.ProgressEvent{lines("a"), lines("a", "b"), lines("a", "b", "c")},
			expected: []string{"info:a", "info:b", "info:c"},
		},
		{
			name:     "unchanged tail replays nothing",
			tails:    [][]models.ProgressEvent{lines("a", "b"), lines("a", "b")},
			expected: []string{"info:a", "info:b"},
		},
		{
			name:     "sliding window keeps the overlap",
			tails:    [][]models.ProgressEvent{lines("a", "b", "c"), lines("b", "c", "d", "e")},
			expected: []string{"info:a", "info:b", "info:c", "info:d", "info:e"},
		},
		{
			name:     "tail without overlap is a new task",
			tails:    [][]models.ProgressEvent{lines("a", "b"), lines("x")},
			expected: []string{"info:a", "info:b", "info:x"},
		},
		{
			name: "empty messages are skipped and types defaulted",
			tails: [][]models.ProgressEvent{{
				{Type: "warning", Message: "slow mirror"},
				{Type: "info"},
				{Message: "untyped"},
			}},
			expected: []string{"warning:slow mirror", "info:untyped"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBackfill(nil)
			col := &collector{}
			b.OnEvent(col.handle)

			for _, tail := range tt.tails {
				b.ObserveProgress(tail)
			}

			assert.Equal(t, tt.expected, col.messages())
		})
	}
}

func TestBackfill_MutedWhileFeedIsLive(t *testing.T) {
	var live atomic.Bool
	live.Store(true)
	b := NewBackfill(live.Load)
	l := NewLog(10)
	b.OnEvent(l.Append)

	b.ObserveProgress(lines("a", "b"))
	assert.Equal(t, 0, l.Len())

	// lines seen while live are not replayed once the feed drops
	live.Store(false)
	b.ObserveProgress(lines("a", "b", "c"))

	entries := l.Entries()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "c", entries[0].Message)
		assert.False(t, entries[0].ReceivedAt.IsZero())
	}
}
