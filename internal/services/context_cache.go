package services

import (
	"sync"

	"github.com/caiinstall/caictl/internal/models"
)

// ContextCache holds the flags of a request across one source selection round trip.
// It is a single slot: capturing again replaces the previous context.
type ContextCache struct {
	mu  sync.Mutex
	ctx *models.TaskContext
}

// NewContextCache creates an empty cache
func NewContextCache() *ContextCache {
	return &ContextCache{}
}

// Capture stores tc, replacing anything held
func (c *ContextCache) Capture(tc models.TaskContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx = &tc
}

// Consume returns the held context and empties the cache
func (c *ContextCache) Consume() (models.TaskContext, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return models.TaskContext{}, false
	}
	tc := *c.ctx
	c.ctx = nil
	return tc, true
}

// Peek returns the held context without removing it
func (c *ContextCache) Peek() (models.TaskContext, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return models.TaskContext{}, false
	}
	return *c.ctx, true
}

// Clear empties the cache
func (c *ContextCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx = nil
}
