package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
)

// History is the append-only round ledger of one session.
// Rounds are persisted through the SessionStore before they become visible.
type History struct {
	mu        sync.RWMutex
	store     driven.SessionStore
	sessionID string
	rounds    []domain.Round
}

// NewHistory creates an empty ledger for a session. store may be nil,
// in which case rounds are kept in memory only.
func NewHistory(store driven.SessionStore, sessionID string) *History {
	return &History{store: store, sessionID: sessionID}
}

// Record appends a round. Its index must be exactly one past the last
// recorded round, starting at 0.
func (h *History) Record(ctx context.Context, round domain.Round) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if want := len(h.rounds); round.Index != want {
		return fmt.Errorf("record round %d: %w: expected %d", round.Index, domain.ErrRoundOutOfOrder, want)
	}
	round.SessionID = h.sessionID

	if h.store != nil {
		if err := h.store.AppendRound(ctx, round); err != nil {
			return fmt.Errorf("record round %d: %w", round.Index, err)
		}
	}
	h.rounds = append(h.rounds, round)
	return nil
}

// Best returns the highest-scoring accepted round. Ties go to the earliest.
// Returns false if no accepted round has been recorded.
func (h *History) Best() (domain.Round, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var best domain.Round
	found := false
	for _, r := range h.rounds {
		if !r.Accepted {
			continue
		}
		if !found || r.Score > best.Score {
			best, found = r, true
		}
	}
	return best, found
}

// All returns every recorded round in order.
func (h *History) All() []domain.Round {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]domain.Round, len(h.rounds))
	copy(out, h.rounds)
	return out
}

// Len returns the number of recorded rounds.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rounds)
}
