package driven

import (
	"context"

	"github.com/custodia-labs/spo/internal/core/domain"
)

// SessionStore persists optimisation sessions and their rounds.
// Rounds are append-only: there is no update or delete for a round.
type SessionStore interface {
	// CreateSession stores a new session.
	// Returns domain.ErrAlreadyExists if the ID is taken.
	CreateSession(ctx context.Context, session *domain.Session) error

	// UpdateSession replaces a session's mutable fields (status, best round, error, completion time).
	// Returns domain.ErrNotFound if the session does not exist.
	UpdateSession(ctx context.Context, session *domain.Session) error

	// GetSession retrieves a session by ID.
	// Returns domain.ErrNotFound if the session does not exist.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// ListSessions returns all sessions, newest first.
	ListSessions(ctx context.Context) ([]domain.Session, error)

	// AppendRound adds a round to a session's history.
	// Returns domain.ErrNotFound if the session does not exist and
	// domain.ErrAlreadyExists if a round with the same index was stored.
	AppendRound(ctx context.Context, round domain.Round) error

	// ListRounds returns a session's rounds ordered by index.
	ListRounds(ctx context.Context, sessionID string) ([]domain.Round, error)
}
