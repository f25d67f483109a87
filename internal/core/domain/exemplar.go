package domain

import (
	"fmt"
	"strings"
)

// Exemplar is one question with its golden answer.
type Exemplar struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TaskContext is supplied once per session and is read-only afterwards.
type TaskContext struct {
	// SeedInstruction is the instruction evaluated in round 0.
	SeedInstruction string `json:"seed_instruction"`

	// Requirement describes what a good output looks like.
	// It is shown to both the judge and the candidate generator.
	Requirement string `json:"requirement"`

	// Exemplars is the fixed set every candidate is executed against.
	Exemplars []Exemplar `json:"exemplars"`

	// MaxRounds bounds the number of rounds including the seed round.
	MaxRounds int `json:"max_rounds"`
}

// Validate checks the task can start a session.
func (t TaskContext) Validate() error {
	if strings.TrimSpace(t.SeedInstruction) == "" {
		return fmt.Errorf("%w: seed instruction is required", ErrInvalidInput)
	}
	if strings.TrimSpace(t.Requirement) == "" {
		return fmt.Errorf("%w: requirement is required", ErrInvalidInput)
	}
	if len(t.Exemplars) == 0 {
		return fmt.Errorf("%w: at least one exemplar is required", ErrInvalidInput)
	}
	for i, ex := range t.Exemplars {
		if strings.TrimSpace(ex.Question) == "" {
			return fmt.Errorf("%w: exemplar %d has no question", ErrInvalidInput, i)
		}
	}
	if t.MaxRounds < 0 {
		return fmt.Errorf("%w: max rounds must not be negative", ErrInvalidInput)
	}
	return nil
}

// CloneExemplars returns a copy of the exemplar set so callers cannot
// mutate the session's view.
func (t TaskContext) CloneExemplars() []Exemplar {
	out := make([]Exemplar, len(t.Exemplars))
	copy(out, t.Exemplars)
	return out
}
