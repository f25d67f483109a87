package mcp

import (
	"github.com/custodia-labs/spo/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Optimizer runs sessions and exposes their history.
	Optimizer driving.Optimizer

	// MaxRounds applies when a tool call does not set max_rounds.
	MaxRounds int
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Optimizer == nil {
		return ErrMissingOptimizer
	}
	return nil
}
