// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The optimisation core lives here:
//
//   - Executor: runs one candidate against every exemplar concurrently
//   - Judge: compares two execution results with randomised presentation order
//   - History: the append-only round ledger of one session
//   - Generator: asks the optimize model for the next candidate
//   - OptimizerService: the search loop tying them together
//
// Services are pure Go with no CGO dependencies.
package services
