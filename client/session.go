package client

import (
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/tourmesh/core"
)

// Session is the process local, append-only conversation of one chat.
type Session struct {
	id string

	mu       sync.RWMutex
	messages []core.Message
}

// NewSession starts an empty session.
func NewSession() *Session {
	return &Session{id: uuid.NewString()}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Append adds messages to the end of the history.
func (s *Session) Append(msgs ...core.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msgs...)
}

// Messages returns a copy of the history.
func (s *Session) Messages() []core.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Message, len(s.messages))
	copy(out, s.messages)

	return out
}

// Len returns the number of messages.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.messages)
}
