package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driving"
)

// ExemplarInput is one question with its golden answer.
type ExemplarInput struct {
	Question string `json:"question" jsonschema:"input the instruction is applied to"`
	Answer   string `json:"answer,omitempty" jsonschema:"reference answer showing the desired output"`
}

// OptimizeInput is the input schema for the optimize_prompt tool.
type OptimizeInput struct {
	Name            string          `json:"name,omitempty" jsonschema:"optional label for the session"`
	SeedInstruction string          `json:"seed_instruction" jsonschema:"the instruction to improve"`
	Requirement     string          `json:"requirement" jsonschema:"what a good output must satisfy"`
	Exemplars       []ExemplarInput `json:"exemplars" jsonschema:"questions every candidate instruction is run against"`
	MaxRounds       *int            `json:"max_rounds,omitempty" jsonschema:"round budget including the seed round"`
}

// OptimizeOutput is the output schema for the optimize_prompt tool.
type OptimizeOutput struct {
	SessionID       string         `json:"session_id"`
	BestInstruction string         `json:"best_instruction"`
	BestRound       int            `json:"best_round"`
	Rounds          []RoundSummary `json:"rounds"`
}

// RoundSummary is a compact view of one recorded round.
type RoundSummary struct {
	Index    int    `json:"index"`
	Status   string `json:"status"`
	Score    int    `json:"score"`
	Judgment string `json:"judgment,omitempty"`
	Failure  string `json:"failure,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "optimize_prompt",
		Description: "Iteratively improve an instruction by running candidate rewrites " +
			"against example questions and keeping whichever a judge model prefers",
	}, s.handleOptimize)
}

// handleOptimize runs a full optimisation session.
func (s *Server) handleOptimize(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input OptimizeInput,
) (*mcp.CallToolResult, OptimizeOutput, error) {
	task := domain.TaskContext{
		SeedInstruction: strings.TrimSpace(input.SeedInstruction),
		Requirement:     strings.TrimSpace(input.Requirement),
		Exemplars:       make([]domain.Exemplar, len(input.Exemplars)),
		MaxRounds:       s.ports.MaxRounds,
	}
	for i, ex := range input.Exemplars {
		task.Exemplars[i] = domain.Exemplar{Question: ex.Question, Answer: ex.Answer}
	}
	if input.MaxRounds != nil {
		task.MaxRounds = *input.MaxRounds
	}

	result, err := s.ports.Optimizer.Optimize(ctx, task, driving.OptimizeOptions{Name: input.Name})
	if err != nil {
		return nil, OptimizeOutput{}, fmt.Errorf("optimize_prompt: %w", err)
	}

	return nil, summarise(result), nil
}

func summarise(result *domain.Result) OptimizeOutput {
	out := OptimizeOutput{
		SessionID:       result.SessionID,
		BestInstruction: result.BestInstruction(),
		BestRound:       result.Best.Index,
		Rounds:          make([]RoundSummary, len(result.History)),
	}
	for i, r := range result.History {
		out.Rounds[i] = RoundSummary{
			Index:    r.Index,
			Status:   r.Status(),
			Score:    r.Score,
			Judgment: r.Judgment.String(),
			Failure:  r.Failure,
		}
	}
	return out
}
