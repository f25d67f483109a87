package ai

import (
	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates role configurations by pinging the provider.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateRole validates a role configuration by pinging its provider.
func (v *ConfigValidator) ValidateRole(config *domain.RoleSettings) error {
	return ValidateRoleConfig(config)
}
