package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/spo/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/spo/internal/core/domain"
)

type mockAIConfigValidator struct {
	err  error
	seen *domain.RoleSettings
}

func (m *mockAIConfigValidator) ValidateRole(config *domain.RoleSettings) error {
	m.seen = config
	return m.err
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Roles, settings.Roles)
	assert.Equal(t, defaults.Optimizer, settings.Optimizer)
	assert.Equal(t, defaults.Storage.Backend, settings.Storage.Backend)
	assert.Equal(t, defaults.Server.Addr, settings.Server.Addr)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"roles.evaluate.provider":       "anthropic",
		"roles.evaluate.model":          "claude-3-5-haiku-latest",
		"roles.evaluate.api_key":        "sk-ant",
		"roles.evaluate.temperature":    0.1,
		"roles.execute.temperature":     int64(1),
		"optimizer.max_rounds":          int64(6),
		"optimizer.call_timeout":        "30s",
		"optimizer.requests_per_second": 2.5,
		"storage.backend":               "memory",
	})
	service := NewSettingsService(store, nil)

	settings, err := service.Get()
	require.NoError(t, err)

	evaluate := settings.Role(domain.RoleEvaluate)
	assert.Equal(t, domain.AIProviderAnthropic, evaluate.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", evaluate.Model)
	assert.Equal(t, "sk-ant", evaluate.APIKey)
	assert.InDelta(t, 0.1, evaluate.Temperature, 1e-9)
	assert.InDelta(t, 1.0, settings.Role(domain.RoleExecute).Temperature, 1e-9)
	assert.Equal(t, 6, settings.Optimizer.MaxRounds)
	assert.Equal(t, 30*time.Second, settings.Optimizer.CallTimeout)
	assert.InDelta(t, 2.5, settings.Optimizer.RequestsPerSecond, 1e-9)
	assert.Equal(t, domain.StorageMemory, settings.Storage.Backend)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"roles.optimize.provider": "mistral",
		"optimizer.call_timeout":  "soon",
		"storage.backend":         "postgres",
	})
	service := NewSettingsService(store, nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Role(domain.RoleOptimize).Provider, settings.Role(domain.RoleOptimize).Provider)
	assert.Equal(t, defaults.Optimizer.CallTimeout, settings.Optimizer.CallTimeout)
	assert.Equal(t, defaults.Storage.Backend, settings.Storage.Backend)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings := domain.DefaultAppSettings()
	settings.Roles[domain.RoleExecute] = domain.RoleSettings{
		Provider:  domain.AIProviderOpenAI,
		Model:     "gpt-4.1",
		APIKey:    "sk-test",
		MaxTokens: 2048,
	}
	settings.Optimizer.MaxRounds = 5
	settings.Optimizer.CallTimeout = 45 * time.Second
	settings.Storage.DataDir = "/tmp/spo"

	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings.Role(domain.RoleExecute), got.Role(domain.RoleExecute))
	assert.Zero(t, got.Role(domain.RoleExecute).Temperature, "explicit zero temperature survives")
	assert.Equal(t, 5, got.Optimizer.MaxRounds)
	assert.Equal(t, 45*time.Second, got.Optimizer.CallTimeout)
	assert.Equal(t, "/tmp/spo", got.Storage.DataDir)
}

func TestSettingsService_SetRole(t *testing.T) {
	t.Run("ollama gets default model and endpoint", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)
		require.NoError(t, service.SetRole(domain.RoleExecute, domain.RoleSettings{Provider: domain.AIProviderOllama}))

		got, err := service.Get()
		require.NoError(t, err)
		execute := got.Role(domain.RoleExecute)
		assert.Equal(t, "llama3.2", execute.Model)
		assert.Equal(t, "http://localhost:11434", execute.BaseURL)
	})

	t.Run("cloud provider requires key", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)
		err := service.SetRole(domain.RoleEvaluate, domain.RoleSettings{Provider: domain.AIProviderGemini})
		assert.Error(t, err)
	})

	t.Run("keeps stored key for same provider", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)
		require.NoError(t, service.SetRole(domain.RoleOptimize,
			domain.RoleSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk-1", Temperature: 0.7}))
		require.NoError(t, service.SetRole(domain.RoleOptimize,
			domain.RoleSettings{Provider: domain.AIProviderOpenAI, Model: "gpt-4.1", Temperature: 0.9}))

		got, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "sk-1", got.Role(domain.RoleOptimize).APIKey)
		assert.Equal(t, "gpt-4.1", got.Role(domain.RoleOptimize).Model)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)
		assert.ErrorIs(t, service.SetRole("summarise", domain.RoleSettings{Provider: domain.AIProviderOllama}),
			domain.ErrInvalidInput)
		assert.Error(t, service.SetRole(domain.RoleExecute, domain.RoleSettings{Provider: "mistral"}))
		assert.ErrorIs(t, service.SetRole(domain.RoleExecute,
			domain.RoleSettings{Provider: domain.AIProviderOllama, Temperature: 3}), domain.ErrInvalidInput)
	})
}

func TestSettingsService_SetMaxRounds(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetMaxRounds(0))
	got, err := service.Get()
	require.NoError(t, err)
	assert.Zero(t, got.Optimizer.MaxRounds)

	assert.ErrorIs(t, service.SetMaxRounds(-1), domain.ErrInvalidInput)
}

func TestSettingsService_Validate(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)
	err := service.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `role "execute"`)

	for _, role := range domain.AllRoles() {
		require.NoError(t, service.SetRole(role, domain.RoleSettings{Provider: domain.AIProviderOllama}))
	}
	assert.NoError(t, service.Validate())
}

func TestSettingsService_ValidateRoleConfig(t *testing.T) {
	t.Run("nil validator", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)
		assert.NoError(t, service.ValidateRoleConfig(domain.RoleExecute))
	})

	t.Run("passes role settings to validator", func(t *testing.T) {
		validator := &mockAIConfigValidator{err: errors.New("unreachable")}
		service := NewSettingsService(memory.NewConfigStore(), validator)
		require.NoError(t, service.SetRole(domain.RoleEvaluate, domain.RoleSettings{Provider: domain.AIProviderOllama}))

		err := service.ValidateRoleConfig(domain.RoleEvaluate)
		assert.EqualError(t, err, "unreachable")
		require.NotNil(t, validator.seen)
		assert.Equal(t, domain.AIProviderOllama, validator.seen.Provider)
	})
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}
