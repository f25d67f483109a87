// Package ai provides factory functions for creating model service adapters
// and the role gateway that routes optimisation calls to them.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/spo/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/spo/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/spo/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/spo/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the role is not configured.
func CreateLLMService(ctx context.Context, settings *domain.RoleSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// ValidateRoleConfig creates a service for the role settings and pings it.
// Unconfigured settings validate trivially.
func ValidateRoleConfig(settings *domain.RoleSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	return svc.Ping(ctx)
}

// NewRoleGatewayFromSettings builds a gateway with one LLM service per role.
// Every role must be configured. Roles that share provider, model, endpoint
// and key share a single service instance.
func NewRoleGatewayFromSettings(ctx context.Context, settings domain.AppSettings) (*RoleGateway, error) {
	type serviceKey struct {
		provider domain.AIProvider
		model    string
		baseURL  string
		apiKey   string
	}

	services := make(map[serviceKey]driven.LLMService)
	bindings := make(map[domain.Role]Binding, len(domain.AllRoles()))
	closeAll := func() {
		for _, svc := range services {
			_ = svc.Close()
		}
	}

	for _, role := range domain.AllRoles() {
		rs := settings.Role(role)
		if !rs.IsConfigured() {
			closeAll()
			return nil, fmt.Errorf("%w: role %q has no provider. Run 'spo settings role %s' to fix",
				domain.ErrLLMUnavailable, role, role)
		}

		key := serviceKey{rs.Provider, rs.Model, rs.BaseURL, rs.APIKey}
		svc, ok := services[key]
		if !ok {
			created, err := CreateLLMService(ctx, &rs)
			if err != nil {
				closeAll()
				return nil, fmt.Errorf("%w: role %q: %w", domain.ErrLLMUnavailable, role, err)
			}
			svc = created
			services[key] = svc
		}

		bindings[role] = Binding{
			Service: svc,
			Options: driven.ChatOptions{
				Temperature: rs.Temperature,
				MaxTokens:   rs.MaxTokens,
			},
		}
	}

	opts := []GatewayOption{WithCallTimeout(settings.Optimizer.CallTimeout)}
	if settings.Optimizer.RequestsPerSecond > 0 {
		opts = append(opts, WithRateLimit(settings.Optimizer.RequestsPerSecond, 1))
	}
	return NewRoleGateway(bindings, opts...), nil
}
