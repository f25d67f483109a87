package driven

import (
	"context"

	"github.com/custodia-labs/spo/internal/core/domain"
)

// GenerateRequest carries everything a generator may look at.
type GenerateRequest struct {
	// Best is the current incumbent round, including its execution trace.
	Best domain.Round

	// Previous is the instruction of the round just before the one being
	// generated. The optimizer fails the round when the new instruction
	// matches it.
	Previous string

	Requirement string
	Exemplars   []domain.Exemplar
}

// CandidateGenerator proposes the next instruction to try.
// A returned error fails the round; the search continues.
type CandidateGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
