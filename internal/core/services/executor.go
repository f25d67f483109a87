package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
	"github.com/custodia-labs/spo/internal/logger"
)

// Ensure Executor can have its prompts customised.
var _ driven.PromptStoreAware = (*Executor)(nil)

// Executor runs a candidate instruction against every exemplar.
type Executor struct {
	promptLoader
	gateway     driven.ModelGateway
	concurrency int
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithConcurrency bounds the number of in-flight exemplar calls.
// Zero or negative means one call per exemplar, all at once.
func WithConcurrency(n int) ExecutorOption {
	return func(e *Executor) {
		e.concurrency = n
	}
}

// NewExecutor creates an executor that calls the execute role through gateway.
func NewExecutor(gateway driven.ModelGateway, opts ...ExecutorOption) *Executor {
	e := &Executor{gateway: gateway}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute issues one execute-role call per exemplar and joins the results.
// Outputs are in exemplar order regardless of completion order. A failed call
// does not abort the execution: its error text becomes that exemplar's output.
func (e *Executor) Execute(
	ctx context.Context,
	candidate domain.Candidate,
	exemplars []domain.Exemplar,
) (domain.ExecutionResult, error) {
	if len(exemplars) == 0 {
		return domain.ExecutionResult{}, fmt.Errorf("execute: %w: empty exemplar set", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("execute: %w", err)
	}

	template := e.load(driven.PromptExecute)
	outputs := make([]domain.Output, len(exemplars))

	var eg errgroup.Group
	if e.concurrency > 0 {
		eg.SetLimit(e.concurrency)
	}
	for i, ex := range exemplars {
		eg.Go(func() error {
			outputs[i] = e.run(ctx, template, candidate, i, ex)
			return nil
		})
	}
	_ = eg.Wait() // workers never return errors

	result := domain.ExecutionResult{Candidate: candidate, Outputs: outputs}
	if failed := result.FailedCount(); failed > 0 {
		logger.Warn("Round %d: %d of %d exemplar calls failed", candidate.Round, failed, len(outputs))
	}
	return result, nil
}

func (e *Executor) run(
	ctx context.Context,
	template string,
	candidate domain.Candidate,
	i int,
	ex domain.Exemplar,
) domain.Output {
	msg := render(template, map[string]string{
		"instruction": candidate.Instruction,
		"question":    ex.Question,
	})
	text, err := e.gateway.Invoke(ctx, domain.RoleExecute, driven.UserMessage(msg))
	if err != nil {
		logger.Debug("Exemplar %d: %v: %v", i, domain.ErrExemplarFailed, err)
		return domain.Output{
			Exemplar: ex,
			Produced: err.Error(),
			Failed:   true,
		}
	}
	return domain.Output{Exemplar: ex, Produced: text}
}
