package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
	"github.com/custodia-labs/spo/internal/logger"
)

// Ensure Generator implements the interface.
var (
	_ driven.CandidateGenerator = (*Generator)(nil)
	_ driven.PromptStoreAware   = (*Generator)(nil)
)

// Generator proposes the next instruction by showing the optimize model the
// current best instruction, the requirement and the best round's outputs
// next to the reference answers.
type Generator struct {
	promptLoader
	gateway driven.ModelGateway
}

// NewGenerator creates a generator that calls the optimize role through gateway.
func NewGenerator(gateway driven.ModelGateway) *Generator {
	return &Generator{gateway: gateway}
}

// Generate returns the instruction proposed by the optimize model.
func (g *Generator) Generate(ctx context.Context, req driven.GenerateRequest) (string, error) {
	msg := render(g.load(driven.PromptOptimize), map[string]string{
		"instruction": req.Best.Candidate.Instruction,
		"requirement": req.Requirement,
		"trace":       formatTrace(req.Best.Execution.Outputs),
	})

	reply, err := g.gateway.Invoke(ctx, domain.RoleOptimize, driven.UserMessage(msg))
	if err != nil {
		return "", fmt.Errorf("generate candidate: %w", err)
	}

	parsed := ParsePrompt(reply)
	if !parsed.OK() {
		logger.Debug("Raw optimize reply: %s", parsed.Raw)
		return "", fmt.Errorf("generate candidate: %w", parsed.Err)
	}
	if change, ok := ExtractTag(reply, "modification"); ok {
		logger.Info("Proposed change: %s", change)
	}
	return parsed.Value, nil
}
