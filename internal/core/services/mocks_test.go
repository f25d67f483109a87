package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
)

// roleHandler answers a single model call.
type roleHandler func(ctx context.Context, prompt string) (string, error)

// mockGateway routes calls to per-role handlers and records every prompt.
type mockGateway struct {
	mu       sync.Mutex
	handlers map[domain.Role]roleHandler
	calls    map[domain.Role][]string
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		handlers: make(map[domain.Role]roleHandler),
		calls:    make(map[domain.Role][]string),
	}
}

func (m *mockGateway) on(role domain.Role, h roleHandler) *mockGateway {
	m.handlers[role] = h
	return m
}

func (m *mockGateway) Invoke(ctx context.Context, role domain.Role, messages []driven.ChatMessage) (string, error) {
	prompt := messages[len(messages)-1].Content
	m.mu.Lock()
	m.calls[role] = append(m.calls[role], prompt)
	h, ok := m.handlers[role]
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownRole, role)
	}
	return h(ctx, prompt)
}

func (m *mockGateway) callCount(role domain.Role) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls[role])
}

func (m *mockGateway) lastCall(role domain.Role) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := m.calls[role]
	if len(calls) == 0 {
		return ""
	}
	return calls[len(calls)-1]
}

// echoExecute answers an execute call with the full rendered prompt,
// so the produced output reveals which instruction ran.
func echoExecute(_ context.Context, prompt string) (string, error) {
	return "ANSWER[" + prompt + "]", nil
}

// samples splits a rendered default evaluate prompt into its A and B sections.
func samples(prompt string) (a, b string) {
	_, rest, _ := strings.Cut(prompt, "# A\n")
	a, rest, _ = strings.Cut(rest, "# B\n")
	b, _, _ = strings.Cut(rest, "# Golden answer")
	return a, b
}

// preferContaining builds an evaluate handler that picks the sample containing
// marker, and abstains with garbage when both or neither do.
func preferContaining(marker string) roleHandler {
	return func(_ context.Context, prompt string) (string, error) {
		a, b := samples(prompt)
		inA, inB := strings.Contains(a, marker), strings.Contains(b, marker)
		switch {
		case inA && !inB:
			return "<analyse>A covers it</analyse><choose>A</choose>", nil
		case inB && !inA:
			return "<analyse>B covers it</analyse><choose> b </choose>", nil
		default:
			return "<choose>tie</choose>", nil
		}
	}
}

func failWith(msg string) roleHandler {
	return func(context.Context, string) (string, error) {
		return "", errors.New(msg)
	}
}

func reply(text string) roleHandler {
	return func(context.Context, string) (string, error) {
		return text, nil
	}
}

// mockPromptStore serves fixed templates.
type mockPromptStore struct {
	prompts map[string]string
	err     error
	reloads int
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() { m.reloads++ }

func exemplars(n int) []domain.Exemplar {
	out := make([]domain.Exemplar, n)
	for i := range out {
		out[i] = domain.Exemplar{
			Question: fmt.Sprintf("question-%d", i),
			Answer:   fmt.Sprintf("answer-%d", i),
		}
	}
	return out
}
