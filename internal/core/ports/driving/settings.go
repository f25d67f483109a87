package driving

import "github.com/custodia-labs/spo/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetRole configures the model bound to a role.
	SetRole(role domain.Role, settings domain.RoleSettings) error

	// SetMaxRounds updates the default round bound.
	SetMaxRounds(n int) error

	// Validate checks every role has a configured provider.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateRoleConfig validates a role's configuration by pinging the provider.
	ValidateRoleConfig(role domain.Role) error
}
