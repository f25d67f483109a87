package domain

// Role names the purpose of a model call. Each role can be bound to a
// different provider, model and temperature.
type Role string

// Model roles.
const (
	// RoleOptimize proposes new candidate instructions.
	RoleOptimize Role = "optimize"

	// RoleEvaluate judges pairs of execution results.
	RoleEvaluate Role = "evaluate"

	// RoleExecute runs a candidate instruction against an exemplar.
	RoleExecute Role = "execute"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	switch r {
	case RoleOptimize, RoleEvaluate, RoleExecute:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// AllRoles returns every model role in a stable order.
func AllRoles() []Role {
	return []Role{RoleOptimize, RoleEvaluate, RoleExecute}
}
