package driven

import "github.com/custodia-labs/spo/internal/core/domain"

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateRole validates a role's configuration by pinging the provider.
	// Returns nil if the configuration is valid or not configured.
	ValidateRole(config *domain.RoleSettings) error
}
