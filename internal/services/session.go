package services

import (
	"sync"

	"github.com/caiinstall/caictl/internal/models"
)

// Session is the single-task gate of this client.
// onChange runs after every transition, outside the session lock.
type Session struct {
	mu       sync.Mutex
	state    models.SessionState
	onChange func(models.SessionState)
}

// NewSession creates an idle session
func NewSession(onChange func(models.SessionState)) *Session {
	return &Session{
		state:    models.SessionIdle,
		onChange: onChange,
	}
}

// TryAcquire moves the session to running. It returns false if it already was.
func (s *Session) TryAcquire() bool {
	s.mu.Lock()
	if s.state == models.SessionRunning {
		s.mu.Unlock()
		return false
	}
	s.state = models.SessionRunning
	s.mu.Unlock()

	s.notify(models.SessionRunning)
	return true
}

// Release moves the session back to idle. Releasing an idle session does nothing.
func (s *Session) Release() {
	s.mu.Lock()
	if s.state == models.SessionIdle {
		s.mu.Unlock()
		return
	}
	s.state = models.SessionIdle
	s.mu.Unlock()

	s.notify(models.SessionIdle)
}

// State returns the current state
func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) notify(state models.SessionState) {
	if s.onChange != nil {
		s.onChange(state)
	}
}
