package services

import (
	"testing"

	"github.com/caiinstall/caictl/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestContextCache(t *testing.T) {
	tc := models.TaskContext{
		Mode:       models.ModeGame,
		Identifier: "730",
		Flags:      models.Flags{AutoUpdate: true},
	}

	t.Run("empty cache", func(t *testing.T) {
		cache := NewContextCache()

		_, ok := cache.Peek()
		assert.False(t, ok)
		_, ok = cache.Consume()
		assert.False(t, ok)
	})

	t.Run("consume empties the cache", func(t *testing.T) {
		cache := NewContextCache()
		cache.Capture(tc)

		peeked, ok := cache.Peek()
		assert.True(t, ok)
		assert.Equal(t, tc, peeked)

		got, ok := cache.Consume()
		assert.True(t, ok)
		assert.Equal(t, tc, got)

		_, ok = cache.Consume()
		assert.False(t, ok)
	})

	t.Run("capture replaces", func(t *testing.T) {
		cache := NewContextCache()
		cache.Capture(tc)
		other := models.TaskContext{Mode: models.ModeGame, Identifier: "570"}

		cache.Capture(other)

		got, ok := cache.Consume()
		assert.True(t, ok)
		assert.Equal(t, "570", got.Identifier)
	})

	t.Run("clear", func(t *testing.T) {
		cache := NewContextCache()
		cache.Capture(tc)

		cache.Clear()
		cache.Clear()

		_, ok := cache.Peek()
		assert.False(t, ok)
	})
}

func TestSession(t *testing.T) {
	var changes []models.SessionState
	session := NewSession(func(state models.SessionState) {
		changes = append(changes, state)
	})

	assert.Equal(t, models.SessionIdle, session.State())
	assert.True(t, session.TryAcquire())
	assert.False(t, session.TryAcquire())
	assert.Equal(t, models.SessionRunning, session.State())

	session.Release()
	session.Release()

	assert.Equal(t, models.SessionIdle, session.State())
	assert.Equal(t, []models.SessionState{models.SessionRunning, models.SessionIdle}, changes)
}
