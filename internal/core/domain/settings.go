package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an LLM service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API, or any compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// RoleSettings binds one model role to a provider.
type RoleSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// MaxTokens caps the response length. Zero uses the provider default.
	MaxTokens int
}

// IsConfigured returns true if the role's provider is set up.
func (r RoleSettings) IsConfigured() bool {
	if !r.Provider.IsValid() {
		return false
	}
	if r.Provider.RequiresAPIKey() && r.APIKey == "" {
		return false
	}
	return true
}

// OptimizerSettings holds search loop configuration.
type OptimizerSettings struct {
	// MaxRounds is used when a task does not set its own bound.
	MaxRounds int

	// Concurrency bounds in-flight exemplar executions. Zero means unbounded.
	Concurrency int

	// RequestsPerSecond throttles all model calls. Zero disables throttling.
	RequestsPerSecond float64

	// CallTimeout bounds each individual model call. Zero disables the bound.
	CallTimeout time.Duration
}

// StorageBackend selects where session history is kept.
type StorageBackend string

// Available storage backends.
const (
	StorageMemory StorageBackend = "memory"
	StorageSQLite StorageBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageMemory || b == StorageSQLite
}

// StorageSettings holds session history storage configuration.
type StorageSettings struct {
	Backend StorageBackend

	// DataDir holds the sqlite database. Empty uses ~/.spo/data.
	DataDir string
}

// ServerSettings holds HTTP API configuration.
type ServerSettings struct {
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Roles binds each model role to a provider.
	Roles map[Role]RoleSettings

	// Optimizer holds search loop settings.
	Optimizer OptimizerSettings

	// Storage holds session history settings.
	Storage StorageSettings

	// Server holds HTTP API settings.
	Server ServerSettings
}

// Role returns the settings for a role, or the zero value if unset.
func (s AppSettings) Role(role Role) RoleSettings {
	if s.Roles == nil {
		return RoleSettings{}
	}
	return s.Roles[role]
}

// DefaultRoleTemperatures returns the temperature used by each role:
// creative for proposals, conservative for judging and deterministic
// for execution.
func DefaultRoleTemperatures() map[Role]float64 {
	return map[Role]float64{
		RoleOptimize: 0.7,
		RoleEvaluate: 0.3,
		RoleExecute:  0,
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// Providers are left unconfigured; users must set them before optimising.
func DefaultAppSettings() AppSettings {
	temps := DefaultRoleTemperatures()
	roles := make(map[Role]RoleSettings, len(temps))
	for _, role := range AllRoles() {
		roles[role] = RoleSettings{Temperature: temps[role]}
	}
	return AppSettings{
		Roles: roles,
		Optimizer: OptimizerSettings{
			MaxRounds:   3,
			CallTimeout: 2 * time.Minute,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
		Server: ServerSettings{
			Addr: ":8004",
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.0-flash",
	}
}
