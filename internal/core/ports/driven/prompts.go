package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptExecute wraps a candidate instruction and one exemplar question.
	// Placeholders: {{instruction}}, {{question}}.
	PromptExecute = "execute"

	// PromptEvaluate asks the judge to choose between two answer sets.
	// Placeholders: {{requirement}}, {{sample_a}}, {{sample_b}}, {{golden}}.
	// The reply must carry the choice in <choose>A</choose> or <choose>B</choose>.
	PromptEvaluate = "evaluate"

	// PromptOptimize asks for an improved instruction.
	// Placeholders: {{instruction}}, {{requirement}}, {{trace}}.
	// The reply must carry the instruction in <prompt>...</prompt>.
	PromptOptimize = "optimize"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
