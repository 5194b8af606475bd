package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Deps are the collaborators shared by every Session.
type Deps struct {
	Messages     MessageStore
	Memories     MemoryStore
	Responder    Responder
	Entitlements Entitlements
	DailyLimit   int

	// Now and NewID are replaced in tests.
	Now   func() time.Time
	NewID func() string
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}

// Manager hands out one Session per user so that a user's mutations are
// serialized no matter which request they arrive on.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps Deps) *Manager {
	if deps.DailyLimit <= 0 {
		deps.DailyLimit = 30
	}
	return &Manager{deps: deps, sessions: make(map[string]*Session)}
}

// Session returns the user's session, loading it from the store on first
// use. A failed load is not cached.
func (m *Manager) Session(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	s = newSession(userID, m.deps)
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another request may have loaded it meanwhile
	if existing, ok := m.sessions[userID]; ok {
		return existing, nil
	}
	m.sessions[userID] = s
	return s, nil
}

// Drop forgets the cached session, e.g. on logout. Guest state is lost.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
