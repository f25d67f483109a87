package domain

import "time"

// Round is one appended entry of the optimisation history.
// Rounds are never mutated once recorded.
type Round struct {
	SessionID string          `json:"session_id"`
	Index     int             `json:"index"`
	Candidate Candidate       `json:"candidate"`
	Execution ExecutionResult `json:"execution"`
	Accepted  bool            `json:"accepted"`

	// Score orders accepted rounds. The seed scores 0 and every accepted
	// challenger scores one more than the incumbent it beat.
	Score int `json:"score"`

	// Judgment is the verdict against the incumbent. Empty for the seed
	// and for rounds that failed before evaluation.
	Judgment Judgment `json:"judgment,omitempty"`

	// Failure holds the error text of a round that failed before evaluation.
	Failure string `json:"failure,omitempty"`

	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// Failed reports whether the round aborted before it could be judged.
func (r Round) Failed() bool {
	return r.Failure != ""
}

// Status returns a short label for display.
func (r Round) Status() string {
	switch {
	case r.Failed():
		return "failed"
	case r.Accepted:
		return "accepted"
	default:
		return "rejected"
	}
}
