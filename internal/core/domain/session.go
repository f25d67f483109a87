package domain

import "time"

// SessionStatus tracks the lifecycle of an optimisation session.
type SessionStatus string

// Session lifecycle states.
const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Session is the audit envelope around one optimisation run.
type Session struct {
	ID          string        `json:"id"`
	Name        string        `json:"name,omitempty"`
	Task        TaskContext   `json:"task"`
	Status      SessionStatus `json:"status"`
	BestRound   int           `json:"best_round"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt time.Time     `json:"completed_at,omitempty"`
}

// Result is what a finished optimisation returns.
type Result struct {
	SessionID string  `json:"session_id"`
	Best      Round   `json:"best"`
	History   []Round `json:"history"`
}

// BestInstruction returns the winning instruction text.
func (r *Result) BestInstruction() string {
	return r.Best.Candidate.Instruction
}
