package services

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
	"github.com/custodia-labs/spo/internal/logger"
)

// Ensure Judge can have its prompts customised.
var _ driven.PromptStoreAware = (*Judge)(nil)

// Coin decides whether a pair is presented swapped. It must be safe for
// concurrent use and return true about half the time.
type Coin func() bool

// FairCoin flips using the global random source.
func FairCoin() bool {
	return rand.IntN(2) == 1
}

// SeededCoin returns a reproducible coin for a given seed.
func SeededCoin(seed uint64) Coin {
	var mu sync.Mutex
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func() bool {
		mu.Lock()
		defer mu.Unlock()
		return r.IntN(2) == 1
	}
}

// Judge compares two execution results with a model under randomised order.
type Judge struct {
	promptLoader
	gateway driven.ModelGateway
	coin    Coin
}

// JudgeOption configures a Judge.
type JudgeOption func(*Judge)

// WithCoin replaces the presentation-order coin.
func WithCoin(c Coin) JudgeOption {
	return func(j *Judge) {
		j.coin = c
	}
}

// NewJudge creates a judge that calls the evaluate role through gateway.
func NewJudge(gateway driven.ModelGateway, opts ...JudgeOption) *Judge {
	j := &Judge{gateway: gateway, coin: FairCoin}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// pair is two execution results in presentation order.
type pair struct {
	first, second domain.ExecutionResult
}

// present decides presentation order. The returned unswap maps a verdict
// about the presented pair back onto the original pair.
func (j *Judge) present(p pair) (pair, func(domain.Judgment) domain.Judgment) {
	if j.coin() {
		return pair{first: p.second, second: p.first}, domain.Judgment.Invert
	}
	return p, func(v domain.Judgment) domain.Judgment { return v }
}

// Compare reports whether first or second better meets the requirement.
// It never fails: an unusable reply or a transport error yields JudgmentAbstain.
func (j *Judge) Compare(
	ctx context.Context,
	first, second domain.ExecutionResult,
	requirement string,
	exemplars []domain.Exemplar,
) domain.Judgment {
	presented, unswap := j.present(pair{first: first, second: second})

	msg := render(j.load(driven.PromptEvaluate), map[string]string{
		"requirement": requirement,
		"sample_a":    formatOutputs(presented.first.Outputs),
		"sample_b":    formatOutputs(presented.second.Outputs),
		"golden":      formatGolden(exemplars),
	})

	reply, err := j.gateway.Invoke(ctx, domain.RoleEvaluate, driven.UserMessage(msg))
	if err != nil {
		logger.Warn("Judge call failed, abstaining: %v", err)
		return domain.JudgmentAbstain
	}

	parsed := ParseChoice(reply)
	if !parsed.OK() {
		logger.Warn("Judge reply unusable, abstaining: %v", parsed.Err)
		logger.Debug("Raw judge reply: %s", parsed.Raw)
		return domain.JudgmentAbstain
	}

	verdict := domain.JudgmentFirstBetter
	if parsed.Value == ChoiceB {
		verdict = domain.JudgmentSecondBetter
	}
	return unswap(verdict)
}
