// Package tui provides a terminal view of a running optimisation session.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/spo/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Optimizer runs the session being displayed.
	Optimizer driving.Optimizer
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Optimizer == nil {
		return ErrMissingOptimizer
	}
	return nil
}
