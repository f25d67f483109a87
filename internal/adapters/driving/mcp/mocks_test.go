package mcp

import (
	"context"
	"fmt"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driving"
)

// mockOptimizer is a mock implementation of driving.Optimizer.
type mockOptimizer struct {
	task     domain.TaskContext
	opts     driving.OptimizeOptions
	result   *domain.Result
	sessions []domain.Session
	rounds   []domain.Round
	err      error
}

func (m *mockOptimizer) Optimize(
	_ context.Context,
	task domain.TaskContext,
	opts driving.OptimizeOptions,
) (*domain.Result, error) {
	m.task = task
	m.opts = opts
	return m.result, m.err
}

func (m *mockOptimizer) Session(_ context.Context, id string) (*domain.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			return &m.sessions[i], nil
		}
	}
	return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
}

func (m *mockOptimizer) Sessions(_ context.Context) ([]domain.Session, error) {
	return m.sessions, m.err
}

func (m *mockOptimizer) Rounds(_ context.Context, _ string) ([]domain.Round, error) {
	return m.rounds, m.err
}
