// Package memory keeps edit sessions in process memory for single-instance mode.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/valo/internal/domain"
)

type entry struct {
	values    map[domain.StoreKey]string
	expiresAt time.Time
}

// SessionStore implements domain.SessionStore with the same sliding TTL as the
// Redis store. Expired entries are dropped lazily on access and by Prune.
type SessionStore struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
}

var _ domain.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a store; ttl <= 0 keeps entries forever.
func NewSessionStore(clock clockwork.Clock, ttl time.Duration) *SessionStore {
	return &SessionStore{
		clock:    clock,
		ttl:      ttl,
		sessions: make(map[string]*entry),
	}
}

func (s *SessionStore) Read(_ context.Context, sessionID string) (map[domain.StoreKey]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.touch(e)
	return maps.Clone(e.values), nil
}

func (s *SessionStore) Write(_ context.Context, sessionID string, values map[domain.StoreKey]string) error {
	if len(values) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(sessionID)
	if !ok {
		e = &entry{values: make(map[domain.StoreKey]string, len(values))}
		s.sessions[sessionID] = e
	}
	maps.Copy(e.values, values)
	s.touch(e)
	return nil
}

func (s *SessionStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Prune drops expired sessions and returns how many were removed.
func (s *SessionStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id := range s.sessions {
		if _, ok := s.live(id); !ok {
			removed++
		}
	}
	return removed
}

// live returns the entry for id, deleting it when it has expired.
func (s *SessionStore) live(id string) (*entry, bool) {
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !s.clock.Now().Before(e.expiresAt) {
		delete(s.sessions, id)
		return nil, false
	}
	return e, true
}

func (s *SessionStore) touch(e *entry) {
	if s.ttl > 0 {
		e.expiresAt = s.clock.Now().Add(s.ttl)
	}
}
