// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ModelGateway: Routes a model call to the model bound to a role
//   - SessionStore: Session and round persistence
//   - PromptStore: Prompt templates for each role
//   - ConfigStore: Application configuration
//
// # Provider Interfaces
//
//   - LLMService: One language model provider. The gateway owns one per role.
//   - CandidateGenerator: Proposes the next instruction from the current best.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
