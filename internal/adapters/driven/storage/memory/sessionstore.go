package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionStore.
// History is lost when the process exits.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	rounds   map[string][]domain.Round
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		rounds:   make(map[string][]domain.Round),
	}
}

// CreateSession stores a new session.
func (s *SessionStore) CreateSession(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return fmt.Errorf("session %s: %w", session.ID, domain.ErrAlreadyExists)
	}
	stored := *session
	stored.Task.Exemplars = session.Task.CloneExemplars()
	s.sessions[session.ID] = stored
	return nil
}

// UpdateSession replaces a session's mutable fields.
func (s *SessionStore) UpdateSession(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[session.ID]
	if !ok {
		return fmt.Errorf("session %s: %w", session.ID, domain.ErrNotFound)
	}
	stored.Status = session.Status
	stored.BestRound = session.BestRound
	stored.Error = session.Error
	stored.CompletedAt = session.CompletedAt
	s.sessions[session.ID] = stored
	return nil
}

// GetSession retrieves a session by ID.
func (s *SessionStore) GetSession(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	session.Task.Exemplars = session.Task.CloneExemplars()
	return &session, nil
}

// ListSessions returns all sessions, newest first.
func (s *SessionStore) ListSessions(_ context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		result = append(result, session)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// AppendRound adds a round to a session's history.
func (s *SessionStore) AppendRound(_ context.Context, round domain.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[round.SessionID]; !ok {
		return fmt.Errorf("session %s: %w", round.SessionID, domain.ErrNotFound)
	}
	for _, existing := range s.rounds[round.SessionID] {
		if existing.Index == round.Index {
			return fmt.Errorf("round %d: %w", round.Index, domain.ErrAlreadyExists)
		}
	}
	s.rounds[round.SessionID] = append(s.rounds[round.SessionID], round)
	return nil
}

// ListRounds returns a session's rounds ordered by index.
func (s *SessionStore) ListRounds(_ context.Context, sessionID string) ([]domain.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, domain.ErrNotFound
	}
	result := make([]domain.Round, len(s.rounds[sessionID]))
	copy(result, s.rounds[sessionID])
	sort.Slice(result, func(i, j int) bool { return result[i].Index < result[j].Index })
	return result, nil
}
