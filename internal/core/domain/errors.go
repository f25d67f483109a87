package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or storage backend.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrUnknownRole indicates a model call was made for a role with no bound model.
	ErrUnknownRole = errors.New("unknown model role")

	// ErrParse indicates a model response did not contain the expected tagged field.
	ErrParse = errors.New("unparseable model response")

	// Optimisation Errors.

	// ErrSessionFatal indicates the session cannot produce a result.
	// Raised only when the seed round cannot be established.
	ErrSessionFatal = errors.New("session fatal")

	// ErrRoundFailed indicates a non-seed round could not complete.
	// The round is recorded as rejected and the search continues.
	ErrRoundFailed = errors.New("round failed")

	// ErrExemplarFailed indicates a single exemplar execution failed.
	// The error text is substituted as that exemplar's output.
	ErrExemplarFailed = errors.New("exemplar execution failed")

	// ErrRoundOutOfOrder indicates a round index did not follow the previous one.
	ErrRoundOutOfOrder = errors.New("round index out of order")

	// ErrCandidateNotDistinct indicates a generated instruction repeated the previous round's.
	ErrCandidateNotDistinct = errors.New("candidate identical to previous round")
)

// Stages of a round, used to attribute failures.
const (
	StageInit     = "init"
	StageGenerate = "generate"
	StageExecute  = "execute"
	StageEvaluate = "evaluate"
	StageRecord   = "record"
)

// SessionFatalError reports the stage at which a session became unrecoverable.
type SessionFatalError struct {
	Stage string
	Err   error
}

func (e *SessionFatalError) Error() string {
	return fmt.Sprintf("session fatal at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SessionFatalError) Unwrap() error { return e.Err }

// Is reports ErrSessionFatal as a match so callers can use errors.Is.
func (e *SessionFatalError) Is(target error) bool { return target == ErrSessionFatal }

// RoundFailure reports why a round was rejected without a judgment.
type RoundFailure struct {
	Round int
	Stage string
	Err   error
}

func (e *RoundFailure) Error() string {
	return fmt.Sprintf("round %d failed at %s: %v", e.Round, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RoundFailure) Unwrap() error { return e.Err }

// Is reports ErrRoundFailed as a match so callers can use errors.Is.
func (e *RoundFailure) Is(target error) bool { return target == ErrRoundFailed }
