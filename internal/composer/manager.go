package composer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blockedby/jobpost/internal/submission"
)

// Manager owns the open draft sessions.
// thread-safe
type Manager struct {
	deps Deps
	now  func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a manager whose sessions share deps.
func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:     deps,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create opens a new session for owner.
func (m *Manager) Create(owner Owner) *Session {
	s := NewSession(owner, m.deps)
	s.touch(m.now())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	s.log.Info().Str("user_id", owner.UserID).Bool("agency", owner.AgencyID != "").Msg("draft session opened")
	return s
}

// Get returns an open session.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(m.now())
	return s, nil
}

// Close closes and forgets a session.
func (m *Manager) Close(id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	s.log.Info().Msg("draft session closed")
	return nil
}

// CloseAll closes every session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseIdle closes sessions with no activity for longer than idle. A session
// whose job is being created is left alone. It returns the number closed.
func (m *Manager) CloseIdle(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if !s.idleSince().Before(cutoff) {
			continue
		}
		if _, busy := s.submission.State().(submission.Submitting); busy {
			continue
		}
		stale = append(stale, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
		s.log.Info().Time("last_used", s.idleSince()).Msg("idle draft session closed")
	}
	return len(stale)
}

// SweepIdle runs CloseIdle every interval until ctx is done.
func (m *Manager) SweepIdle(ctx context.Context, idle, interval time.Duration) {
	if idle <= 0 {
		return
	}
	if interval <= 0 {
		interval = idle / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CloseIdle(idle)
		}
	}
}
