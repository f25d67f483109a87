package driving

import (
	"context"

	"github.com/custodia-labs/spo/internal/core/domain"
)

// RoundObserver is called after each round has been recorded.
// It runs on the optimisation goroutine and must not block for long.
type RoundObserver func(round domain.Round)

// OptimizeOptions configures a single optimisation run.
type OptimizeOptions struct {
	// Name labels the session for listing. Optional.
	Name string

	// Observer receives every recorded round. Optional.
	Observer RoundObserver
}

// Optimizer runs prompt optimisation sessions and exposes their history.
type Optimizer interface {
	// Optimize runs a full session for the task and returns the best round
	// together with the complete history.
	// Returns an error matching domain.ErrInvalidInput for a malformed task and
	// domain.ErrSessionFatal when the seed round cannot be established.
	// On context cancellation the partial result is returned with the error.
	Optimize(ctx context.Context, task domain.TaskContext, opts OptimizeOptions) (*domain.Result, error)

	// Session retrieves a session by ID.
	Session(ctx context.Context, id string) (*domain.Session, error)

	// Sessions lists all sessions, newest first.
	Sessions(ctx context.Context) ([]domain.Session, error)

	// Rounds returns a session's full round history in order.
	Rounds(ctx context.Context, sessionID string) ([]domain.Round, error)
}
