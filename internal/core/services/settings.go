package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
	"github.com/custodia-labs/spo/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage. Role keys are prefixed with the role name,
// e.g. "roles.execute.provider".
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyRolePrefix         = "roles."
	keyRoleProvider       = "provider"
	keyRoleModel          = "model"
	keyRoleBaseURL        = "base_url"
	keyRoleAPIKey         = "api_key"
	keyRoleTemperature    = "temperature"
	keyRoleMaxTokens      = "max_tokens"
	keyOptimizerRounds    = "optimizer.max_rounds"
	keyOptimizerWorkers   = "optimizer.concurrency"
	keyOptimizerRPS       = "optimizer.requests_per_second"
	keyOptimizerTimeout   = "optimizer.call_timeout"
	keyStorageBackend     = "storage.backend"
	keyStorageDataDir     = "storage.data_dir"
	keyServerAddr         = "server.addr"
	defaultOllamaEndpoint = "http://localhost:11434"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Roles: make(map[domain.Role]domain.RoleSettings, len(defaults.Roles)),
		Optimizer: domain.OptimizerSettings{
			MaxRounds:         s.getInt(keyOptimizerRounds, defaults.Optimizer.MaxRounds),
			Concurrency:       s.getInt(keyOptimizerWorkers, defaults.Optimizer.Concurrency),
			RequestsPerSecond: s.getFloat(keyOptimizerRPS, defaults.Optimizer.RequestsPerSecond),
			CallTimeout:       s.getDuration(keyOptimizerTimeout, defaults.Optimizer.CallTimeout),
		},
		Storage: domain.StorageSettings{
			Backend: s.getBackend(defaults.Storage.Backend),
			DataDir: s.configStore.GetString(keyStorageDataDir),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
	}

	for _, role := range domain.AllRoles() {
		def := defaults.Role(role)
		settings.Roles[role] = domain.RoleSettings{
			Provider:    s.getProvider(roleKey(role, keyRoleProvider), def.Provider),
			Model:       s.getString(roleKey(role, keyRoleModel), def.Model),
			BaseURL:     s.configStore.GetString(roleKey(role, keyRoleBaseURL)), // No default - empty is valid for cloud providers
			APIKey:      s.configStore.GetString(roleKey(role, keyRoleAPIKey)),
			Temperature: s.getFloat(roleKey(role, keyRoleTemperature), def.Temperature),
			MaxTokens:   s.getInt(roleKey(role, keyRoleMaxTokens), def.MaxTokens),
		}
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, role := range domain.AllRoles() {
		if err := s.saveRole(role, settings.Role(role)); err != nil {
			return err
		}
	}

	if err := s.configStore.Set(keyOptimizerRounds, settings.Optimizer.MaxRounds); err != nil {
		return fmt.Errorf("save max rounds: %w", err)
	}
	if err := s.configStore.Set(keyOptimizerWorkers, settings.Optimizer.Concurrency); err != nil {
		return fmt.Errorf("save concurrency: %w", err)
	}
	if err := s.configStore.Set(keyOptimizerRPS, settings.Optimizer.RequestsPerSecond); err != nil {
		return fmt.Errorf("save requests per second: %w", err)
	}
	if err := s.configStore.Set(keyOptimizerTimeout, settings.Optimizer.CallTimeout.String()); err != nil {
		return fmt.Errorf("save call timeout: %w", err)
	}

	if err := s.configStore.Set(keyStorageBackend, string(settings.Storage.Backend)); err != nil {
		return fmt.Errorf("save storage backend: %w", err)
	}
	if settings.Storage.DataDir != "" {
		if err := s.configStore.Set(keyStorageDataDir, settings.Storage.DataDir); err != nil {
			return fmt.Errorf("save data dir: %w", err)
		}
	}
	if err := s.configStore.Set(keyServerAddr, settings.Server.Addr); err != nil {
		return fmt.Errorf("save server addr: %w", err)
	}

	return nil
}

func (s *SettingsService) saveRole(role domain.Role, rs domain.RoleSettings) error {
	if err := s.configStore.Set(roleKey(role, keyRoleProvider), rs.Provider.String()); err != nil {
		return fmt.Errorf("save %s provider: %w", role, err)
	}
	if err := s.configStore.Set(roleKey(role, keyRoleModel), rs.Model); err != nil {
		return fmt.Errorf("save %s model: %w", role, err)
	}
	if err := s.configStore.Set(roleKey(role, keyRoleBaseURL), rs.BaseURL); err != nil {
		return fmt.Errorf("save %s base_url: %w", role, err)
	}
	if rs.APIKey != "" {
		if err := s.configStore.Set(roleKey(role, keyRoleAPIKey), rs.APIKey); err != nil {
			return fmt.Errorf("save %s api_key: %w", role, err)
		}
	}
	if err := s.configStore.Set(roleKey(role, keyRoleTemperature), rs.Temperature); err != nil {
		return fmt.Errorf("save %s temperature: %w", role, err)
	}
	if err := s.configStore.Set(roleKey(role, keyRoleMaxTokens), rs.MaxTokens); err != nil {
		return fmt.Errorf("save %s max_tokens: %w", role, err)
	}
	return nil
}

// SetRole configures the model bound to a role.
func (s *SettingsService) SetRole(role domain.Role, rs domain.RoleSettings) error {
	if !role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	if !rs.Provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", rs.Provider)
	}
	if rs.Temperature < 0 || rs.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be between 0 and 2", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	current := settings.Role(role)

	// Keep a previously stored key when switching models on the same provider
	if rs.APIKey == "" && current.Provider == rs.Provider {
		rs.APIKey = current.APIKey
	}
	if rs.Provider.RequiresAPIKey() && rs.APIKey == "" {
		return fmt.Errorf("API key required for %s", rs.Provider)
	}

	if rs.Model == "" {
		if defaultModel, ok := domain.DefaultLLMModels()[rs.Provider]; ok {
			rs.Model = defaultModel
		}
	}
	if rs.Provider.IsLocal() && rs.BaseURL == "" {
		rs.BaseURL = defaultOllamaEndpoint
	}

	settings.Roles[role] = rs
	return s.Save(settings)
}

// SetMaxRounds updates the default round bound.
func (s *SettingsService) SetMaxRounds(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: max rounds must not be negative", domain.ErrInvalidInput)
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Optimizer.MaxRounds = n
	return s.Save(settings)
}

// Validate checks every role has a configured provider.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	for _, role := range domain.AllRoles() {
		if !settings.Role(role).IsConfigured() {
			errs = append(errs, fmt.Errorf("role %q requires an LLM provider to be configured", role))
		}
	}
	if !settings.Storage.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("invalid storage backend: %s", settings.Storage.Backend))
	}
	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateRoleConfig validates a role's configuration by pinging the provider.
func (s *SettingsService) ValidateRoleConfig(role domain.Role) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	rs := settings.Role(role)
	return s.aiValidator.ValidateRole(&rs)
}

// Helper methods for reading config with defaults.

func roleKey(role domain.Role, field string) string {
	return keyRolePrefix + string(role) + "." + field
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
