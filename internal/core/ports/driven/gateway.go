package driven

import (
	"context"

	"github.com/custodia-labs/spo/internal/core/domain"
)

// ModelGateway is the single model capability the optimisation core uses.
// It is injected into every component that talks to a model, so a session
// never reaches for process-wide state.
//
// Invoke either returns the model's text or an error; it never returns both.
// Returns domain.ErrUnknownRole if no model is bound to the role.
type ModelGateway interface {
	Invoke(ctx context.Context, role domain.Role, messages []ChatMessage) (string, error)
}

// ModelGatewayFunc adapts a function to ModelGateway.
type ModelGatewayFunc func(ctx context.Context, role domain.Role, messages []ChatMessage) (string, error)

// Invoke calls f.
func (f ModelGatewayFunc) Invoke(ctx context.Context, role domain.Role, messages []ChatMessage) (string, error) {
	return f(ctx, role, messages)
}
