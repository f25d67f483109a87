package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
	"github.com/custodia-labs/spo/internal/logger"
)

// Ensure RoleGateway implements the interface.
var _ driven.ModelGateway = (*RoleGateway)(nil)

// Binding is the model and call options serving one role.
type Binding struct {
	Service driven.LLMService
	Options driven.ChatOptions
}

// RoleGateway routes each role's calls to its bound LLM service.
// It is safe for concurrent use.
type RoleGateway struct {
	bindings    map[domain.Role]Binding
	limiter     *rate.Limiter
	callTimeout time.Duration
}

// GatewayOption configures a RoleGateway.
type GatewayOption func(*RoleGateway)

// WithRateLimit throttles calls across all roles to rps with the given burst.
func WithRateLimit(rps float64, burst int) GatewayOption {
	return func(g *RoleGateway) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCallTimeout bounds each model call. Zero disables the bound.
func WithCallTimeout(d time.Duration) GatewayOption {
	return func(g *RoleGateway) {
		g.callTimeout = d
	}
}

// NewRoleGateway creates a gateway over the given role bindings.
func NewRoleGateway(bindings map[domain.Role]Binding, opts ...GatewayOption) *RoleGateway {
	g := &RoleGateway{bindings: make(map[domain.Role]Binding, len(bindings))}
	for role, b := range bindings {
		g.bindings[role] = b
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Invoke sends messages to the service bound to role.
func (g *RoleGateway) Invoke(ctx context.Context, role domain.Role, messages []driven.ChatMessage) (string, error) {
	b, ok := g.bindings[role]
	if !ok || b.Service == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownRole, role)
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%s: rate limit wait: %w", role, err)
		}
	}

	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	start := time.Now()
	out, err := b.Service.Chat(ctx, messages, b.Options)
	logger.Debug("model call role=%s model=%s elapsed=%s err=%v",
		role, b.Service.ModelName(), time.Since(start).Round(time.Millisecond), err)
	if err != nil {
		return "", fmt.Errorf("%s: %w", role, err)
	}
	return out, nil
}

// ModelName returns the model bound to role, or "" if none.
func (g *RoleGateway) ModelName(role domain.Role) string {
	if b, ok := g.bindings[role]; ok && b.Service != nil {
		return b.Service.ModelName()
	}
	return ""
}

// Close releases every distinct bound service.
func (g *RoleGateway) Close() error {
	seen := make(map[driven.LLMService]bool, len(g.bindings))
	var errs []error
	for _, b := range g.bindings {
		if b.Service == nil || seen[b.Service] {
			continue
		}
		seen[b.Service] = true
		if err := b.Service.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
