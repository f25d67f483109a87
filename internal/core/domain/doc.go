// Package domain defines the core business entities for spo.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Exemplar: A question/answer pair the candidate is measured against
//   - TaskContext: The seed instruction, requirement and exemplar set of a session
//   - Candidate: One instruction proposed in one round
//   - ExecutionResult: The outputs a candidate produced for every exemplar
//   - Judgment: The pairwise verdict between two execution results
//   - Round: One appended entry of the optimisation history
//   - Session: The audit envelope around one optimisation run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
