package cli

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/spo/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestReadPassword_FallsBackToLine(t *testing.T) {
	in := strings.NewReader("  sk-secret \n")
	assert.Equal(t, "sk-secret", readPassword(in, bufio.NewReader(in)))
}

func TestSettingsShow(t *testing.T) {
	settings := newFakeSettings()
	settings.settings.Roles[domain.RoleExecute] = domain.RoleSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-1234567890abcdef",
	}
	settings.validateErr = errors.New(`role "optimize" requires an LLM provider to be configured`)
	defer setupTestServices(&fakeOptimizer{}, settings)()

	stdout, _, err := run([]string{"settings", "show"}, "")

	require.NoError(t, err)
	assert.Contains(t, stdout, "[Role: optimize]")
	assert.Contains(t, stdout, "Temperature: 0.70")
	assert.Contains(t, stdout, "API Key: sk-1...cdef")
	assert.Contains(t, stdout, "Status: not configured")
	assert.Contains(t, stdout, "Max rounds: 3")
	assert.Contains(t, stdout, "Concurrency: unbounded")
	assert.Contains(t, stdout, "Call timeout: 2m0s")
	assert.Contains(t, stdout, "Address: :8004")
	assert.Contains(t, stdout, "Warning:")
	assert.Contains(t, stdout, "spo settings role")
}

func TestSettingsRole_WithFlags(t *testing.T) {
	settings := newFakeSettings()
	defer setupTestServices(&fakeOptimizer{}, settings)()

	stdout, _, err := run([]string{"settings", "role", "evaluate",
		"--provider", "ollama", "--model", "qwen2.5", "--max-tokens", "512"}, "")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Validating configuration... OK")
	assert.Contains(t, stdout, "Role evaluate configured: Ollama (local) (qwen2.5)")

	rs := settings.settings.Roles[domain.RoleEvaluate]
	assert.Equal(t, domain.AIProviderOllama, rs.Provider)
	assert.Equal(t, "qwen2.5", rs.Model)
	assert.Equal(t, 512, rs.MaxTokens)
	assert.InDelta(t, 0.3, rs.Temperature, 1e-9, "role temperature is kept")
}

func TestSettingsRole_PromptsForProviderAndKey(t *testing.T) {
	settings := newFakeSettings()
	defer setupTestServices(&fakeOptimizer{}, settings)()

	// choice 2 is OpenAI, followed by the API key
	stdout, _, err := run([]string{"settings", "role", "optimize", "--temperature", "0.9", "--skip-validate"},
		"2\nsk-test-key-123\n")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Select LLM Provider")
	assert.Contains(t, stdout, "Enter API key:")
	assert.NotContains(t, stdout, "Validating")

	rs := settings.settings.Roles[domain.RoleOptimize]
	assert.Equal(t, domain.AIProviderOpenAI, rs.Provider)
	assert.Equal(t, "sk-test-key-123", rs.APIKey)
	assert.InDelta(t, 0.9, rs.Temperature, 1e-9)
	assert.Equal(t, "gpt-4o-mini", rs.Model)
}

func TestSettingsRole_KeepsKeyForSameProvider(t *testing.T) {
	settings := newFakeSettings()
	settings.settings.Roles[domain.RoleExecute] = domain.RoleSettings{
		Provider: domain.AIProviderAnthropic, Model: "old", APIKey: "stored-key-0000",
	}
	defer setupTestServices(&fakeOptimizer{}, settings)()

	stdout, _, err := run([]string{"settings", "role", "execute", "--provider", "anthropic", "--model", "new"}, "")

	require.NoError(t, err)
	assert.NotContains(t, stdout, "Enter API key")
	assert.Equal(t, "new", settings.settings.Roles[domain.RoleExecute].Model)
}

func TestSettingsRole_Errors(t *testing.T) {
	t.Run("unknown role", func(t *testing.T) {
		defer setupTestServices(&fakeOptimizer{}, newFakeSettings())()
		_, _, err := run([]string{"settings", "role", "judge", "--provider", "ollama"}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown role")
	})

	t.Run("unknown provider", func(t *testing.T) {
		defer setupTestServices(&fakeOptimizer{}, newFakeSettings())()
		_, _, err := run([]string{"settings", "role", "execute", "--provider", "acme"}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown provider")
	})

	t.Run("missing key", func(t *testing.T) {
		defer setupTestServices(&fakeOptimizer{}, newFakeSettings())()
		_, _, err := run([]string{"settings", "role", "execute", "--provider", "gemini"}, "\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key is required")
	})

	t.Run("ping fails", func(t *testing.T) {
		settings := newFakeSettings()
		settings.pingErr = errors.New("connection refused")
		defer setupTestServices(&fakeOptimizer{}, settings)()
		stdout, _, err := run([]string{"settings", "role", "execute", "--provider", "ollama"}, "")
		require.Error(t, err)
		assert.Contains(t, stdout, "FAILED: connection refused")
	})
}

func TestSettingsRounds(t *testing.T) {
	settings := newFakeSettings()
	defer setupTestServices(&fakeOptimizer{}, settings)()

	stdout, _, err := run([]string{"settings", "rounds", "10"}, "")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Default round budget set to 10")
	assert.Equal(t, 10, settings.settings.Optimizer.MaxRounds)

	_, _, err = run([]string{"settings", "rounds", "ten"}, "")
	assert.Error(t, err)

	_, _, err = run([]string{"settings", "rounds", "-1"}, "")
	assert.Error(t, err)
}

func TestSettingsValidate(t *testing.T) {
	t.Run("all roles reachable", func(t *testing.T) {
		defer setupTestServices(&fakeOptimizer{}, newFakeSettings())()
		stdout, _, err := run([]string{"settings", "validate"}, "")
		require.NoError(t, err)
		assert.Equal(t, 3, strings.Count(stdout, "OK"))
	})

	t.Run("unreachable provider", func(t *testing.T) {
		settings := newFakeSettings()
		settings.pingErr = errors.New("timeout")
		defer setupTestServices(&fakeOptimizer{}, settings)()
		_, _, err := run([]string{"settings", "validate"}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "execute: timeout")
	})

	t.Run("unconfigured", func(t *testing.T) {
		settings := newFakeSettings()
		settings.validateErr = errors.New("role not configured")
		defer setupTestServices(&fakeOptimizer{}, settings)()
		_, _, err := run([]string{"settings", "validate"}, "")
		assert.EqualError(t, err, "role not configured")
	})
}
