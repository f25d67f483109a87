package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
)

func questionIndex(t *testing.T, prompt string) int {
	t.Helper()
	var i int
	_, after, ok := strings.Cut(prompt, "question-")
	require.True(t, ok, "prompt has no question: %q", prompt)
	_, err := fmt.Sscanf(after, "%d", &i)
	require.NoError(t, err)
	return i
}

func TestExecutor_PreservesOrderWhenCompletionIsReversed(t *testing.T) {
	defer goleak.VerifyNone(t)

	const n = 5
	done := make([]chan struct{}, n)
	for i := range done {
		done[i] = make(chan struct{})
	}
	var (
		mu         sync.Mutex
		completion []int
	)

	gw := newMockGateway().on(domain.RoleExecute, func(_ context.Context, prompt string) (string, error) {
		i := questionIndex(t, prompt)
		if i < n-1 {
			<-done[i+1]
		}
		mu.Lock()
		completion = append(completion, i)
		mu.Unlock()
		close(done[i])
		return fmt.Sprintf("out-%d", i), nil
	})

	result, err := NewExecutor(gw).Execute(context.Background(),
		domain.Candidate{Instruction: "solve", Round: 0}, exemplars(n))
	require.NoError(t, err)

	assert.Equal(t, []int{4, 3, 2, 1, 0}, completion)
	require.Len(t, result.Outputs, n)
	for i, o := range result.Outputs {
		assert.Equal(t, fmt.Sprintf("out-%d", i), o.Produced)
		assert.Equal(t, fmt.Sprintf("question-%d", i), o.Exemplar.Question)
		assert.False(t, o.Failed)
	}
	assert.Equal(t, "solve", result.Candidate.Instruction)
}

func TestExecutor_SubstitutesErrorTextForFailedExemplar(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := newMockGateway().on(domain.RoleExecute, func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "question-1") {
			return "", fmt.Errorf("rate limit exceeded")
		}
		return "ok", nil
	})

	result, err := NewExecutor(gw).Execute(context.Background(), domain.Candidate{Instruction: "x"}, exemplars(3))
	require.NoError(t, err)

	require.Len(t, result.Outputs, 3)
	assert.Equal(t, "ok", result.Outputs[0].Produced)
	assert.Equal(t, "rate limit exceeded", result.Outputs[1].Produced)
	assert.True(t, result.Outputs[1].Failed)
	assert.Equal(t, "ok", result.Outputs[2].Produced)
	assert.Equal(t, 1, result.FailedCount())
}

func TestExecutor_AllCallsFailStillReturnsOutputs(t *testing.T) {
	gw := newMockGateway().on(domain.RoleExecute, failWith("offline"))

	result, err := NewExecutor(gw).Execute(context.Background(), domain.Candidate{Instruction: "x"}, exemplars(2))
	require.NoError(t, err)
	assert.Equal(t, 2, result.FailedCount())
}

func TestExecutor_MessageCombinesInstructionAndQuestion(t *testing.T) {
	gw := newMockGateway().on(domain.RoleExecute, reply("fine"))

	_, err := NewExecutor(gw).Execute(context.Background(),
		domain.Candidate{Instruction: "Answer briefly."}, exemplars(1))
	require.NoError(t, err)

	assert.Equal(t, "Answer briefly.\n\nquestion-0", gw.lastCall(domain.RoleExecute))
}

func TestExecutor_UsesCustomPromptTemplate(t *testing.T) {
	gw := newMockGateway().on(domain.RoleExecute, reply("fine"))
	exec := NewExecutor(gw)
	exec.SetPromptStore(&mockPromptStore{prompts: map[string]string{
		driven.PromptExecute: "Q: {{question}}\nRULES: {{instruction}}",
	}})

	_, err := exec.Execute(context.Background(), domain.Candidate{Instruction: "be kind"}, exemplars(1))
	require.NoError(t, err)
	assert.Equal(t, "Q: question-0\nRULES: be kind", gw.lastCall(domain.RoleExecute))
}

func TestExecutor_ConcurrencyLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{}, 10)

	gw := newMockGateway().on(domain.RoleExecute, func(context.Context, string) (string, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		started <- struct{}{}
		<-release
		inFlight.Add(-1)
		return "ok", nil
	})

	errCh := make(chan error, 1)
	go func() {
		_, err := NewExecutor(gw, WithConcurrency(2)).Execute(context.Background(),
			domain.Candidate{Instruction: "x"}, exemplars(6))
		errCh <- err
	}()

	<-started
	<-started
	close(release)
	require.NoError(t, <-errCh)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 6, gw.callCount(domain.RoleExecute))
}

func TestExecutor_EmptyExemplarSet(t *testing.T) {
	_, err := NewExecutor(newMockGateway()).Execute(context.Background(), domain.Candidate{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExecutor_CancelledBeforeFanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gw := newMockGateway().on(domain.RoleExecute, reply("never"))

	_, err := NewExecutor(gw).Execute(ctx, domain.Candidate{Instruction: "x"}, exemplars(2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, gw.callCount(domain.RoleExecute))
}
