package store

import (
	"context"
	"sync"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

// MemorySessions implements SessionStore with an in-process map.
// State is lost when the process exits.
type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewMemorySessions creates an empty in-memory session store.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{
		sessions: make(map[string]*domain.Session),
	}
}

// Get implements SessionStore.
func (m *MemorySessions) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

// Put implements SessionStore.
func (m *MemorySessions) Put(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = s.Clone()
	return nil
}

// Delete implements SessionStore.
func (m *MemorySessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (m *MemorySessions) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close implements SessionStore.
func (m *MemorySessions) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions = make(map[string]*domain.Session)
	return nil
}
