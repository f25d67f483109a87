package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
	"github.com/custodia-labs/spo/internal/logger"
)

// defaultExecutePrompt is the fallback execute template when no PromptStore is configured.
const defaultExecutePrompt = `{{instruction}}

{{question}}`

// defaultEvaluatePrompt is the fallback evaluate template when no PromptStore is configured.
const defaultEvaluatePrompt = `Based on the original requirements, evaluate the two responses, A and B, and determine which one better meets the requirements. If a reference answer is provided, strictly follow the format/content of the reference answer.

# Requirement
{{requirement}}

# A
{{sample_a}}

# B
{{sample_b}}

# Golden answer
{{golden}}

Provide your analysis and the choice you believe is better, using XML tags to encapsulate your response.

<analyse>Some analysis</analyse>
<choose>A/B (the better answer in your opinion)</choose>`

// defaultOptimizePrompt is the fallback optimize template when no PromptStore is configured.
const defaultOptimizePrompt = `You are building a prompt to address user requirements. Based on the given prompt, please reconstruct and optimize it. You can add, modify, or delete prompts. Please include a single modification in XML tags in your reply. During the optimization, you can incorporate any thinking models.
This is a prompt that performed excellently in a previous iteration. You must make further optimizations and improvements based on this prompt. The modified prompt must differ from the provided example.

# Requirements
{{requirement}}

# Reference prompt
{{instruction}}

# Execution results of the reference prompt
{{trace}}

Identify the most important shortcoming of the reference prompt against the requirements and fix it. Keep what already works.

Provide your analysis, the modification and the complete new prompt using XML tags:

<analyse>What is missing or wrong in the results</analyse>
<modification>One sentence describing the change</modification>
<prompt>The complete optimized prompt</prompt>`

// DefaultPrompts returns the built-in template for every prompt name.
// File-backed prompt stores seed user-editable copies from this set.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptExecute:  defaultExecutePrompt,
		driven.PromptEvaluate: defaultEvaluatePrompt,
		driven.PromptOptimize: defaultOptimizePrompt,
	}
}

// promptLoader resolves a template from an optional store, falling back to defaults.
type promptLoader struct {
	store driven.PromptStore
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (l *promptLoader) SetPromptStore(store driven.PromptStore) {
	l.store = store
}

func (l *promptLoader) load(name string) string {
	fallback := DefaultPrompts()[name]
	if l.store == nil {
		return fallback
	}
	prompt, err := l.store.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		logger.Debug("Using built-in %s prompt: %v", name, err)
		return fallback
	}
	return prompt
}

// render substitutes {{key}} placeholders in a single pass.
func render(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// formatOutputs renders a set of outputs as numbered question/answer blocks.
func formatOutputs(outputs []domain.Output) string {
	var b strings.Builder
	for i, o := range outputs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## Question %d\n%s\n## Answer %d\n%s\n", i+1, o.Exemplar.Question, i+1, o.Produced)
	}
	return b.String()
}

// formatGolden renders the exemplar set as reference answers.
func formatGolden(exemplars []domain.Exemplar) string {
	var b strings.Builder
	for i, ex := range exemplars {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## Question %d\n%s\n## Reference answer %d\n%s\n", i+1, ex.Question, i+1, ex.Answer)
	}
	return b.String()
}

// formatTrace renders produced outputs next to their golden answers.
func formatTrace(outputs []domain.Output) string {
	var b strings.Builder
	for i, o := range outputs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## Question %d\n%s\n## Produced answer\n%s\n## Reference answer\n%s\n",
			i+1, o.Exemplar.Question, o.Produced, o.Exemplar.Answer)
	}
	return b.String()
}
