package domain

// Candidate is the instruction proposed in one round.
type Candidate struct {
	Instruction string `json:"instruction"`
	Round       int    `json:"round"`
}

// Output is what a candidate produced for a single exemplar.
type Output struct {
	Exemplar Exemplar `json:"exemplar"`

	// Produced is the model response, or the error text when the call failed.
	Produced string `json:"produced"`

	// Failed is set when Produced holds substituted error text.
	Failed bool `json:"failed,omitempty"`
}

// ExecutionResult holds one output per exemplar, in exemplar order.
type ExecutionResult struct {
	Candidate Candidate `json:"candidate"`
	Outputs   []Output  `json:"outputs"`
}

// FailedCount returns how many exemplar executions failed.
func (r ExecutionResult) FailedCount() int {
	n := 0
	for _, o := range r.Outputs {
		if o.Failed {
			n++
		}
	}
	return n
}

// AllFailed reports whether no exemplar produced a real response.
func (r ExecutionResult) AllFailed() bool {
	return len(r.Outputs) > 0 && r.FailedCount() == len(r.Outputs)
}

// Judgment is the verdict of a pairwise comparison.
type Judgment string

// Possible judgments.
const (
	// JudgmentFirstBetter prefers the first result passed to the judge.
	JudgmentFirstBetter Judgment = "first_better"

	// JudgmentSecondBetter prefers the second result passed to the judge.
	JudgmentSecondBetter Judgment = "second_better"

	// JudgmentAbstain means no usable verdict. It never changes acceptance.
	JudgmentAbstain Judgment = "abstain"
)

// Invert swaps the preferred side. Abstain stays Abstain.
func (j Judgment) Invert() Judgment {
	switch j {
	case JudgmentFirstBetter:
		return JudgmentSecondBetter
	case JudgmentSecondBetter:
		return JudgmentFirstBetter
	default:
		return JudgmentAbstain
	}
}

// IsDecided reports whether the judgment prefers a side.
func (j Judgment) IsDecided() bool {
	return j == JudgmentFirstBetter || j == JudgmentSecondBetter
}

// String returns the string representation.
func (j Judgment) String() string {
	return string(j)
}
