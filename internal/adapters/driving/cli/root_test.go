package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driving"
)

// fakeOptimizer returns a canned result and records the last task.
type fakeOptimizer struct {
	mu       sync.Mutex
	task     domain.TaskContext
	opts     driving.OptimizeOptions
	result   *domain.Result
	err      error
	sessions []domain.Session
	rounds   map[string][]domain.Round
}

func (f *fakeOptimizer) Optimize(
	_ context.Context,
	task domain.TaskContext,
	opts driving.OptimizeOptions,
) (*domain.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.task = task
	f.opts = opts
	if f.result != nil && opts.Observer != nil {
		for _, r := range f.result.History {
			opts.Observer(r)
		}
	}
	return f.result, f.err
}

func (f *fakeOptimizer) Session(_ context.Context, id string) (*domain.Session, error) {
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			return &f.sessions[i], nil
		}
	}
	return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
}

func (f *fakeOptimizer) Sessions(_ context.Context) ([]domain.Session, error) {
	return f.sessions, nil
}

func (f *fakeOptimizer) Rounds(_ context.Context, id string) ([]domain.Round, error) {
	return f.rounds[id], nil
}

// fakeSettings keeps settings in memory.
type fakeSettings struct {
	settings    domain.AppSettings
	validateErr error
	pingErr     error
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{settings: domain.DefaultAppSettings()}
}

func (f *fakeSettings) Get() (*domain.AppSettings, error) {
	s := f.settings
	s.Roles = make(map[domain.Role]domain.RoleSettings, len(f.settings.Roles))
	for k, v := range f.settings.Roles {
		s.Roles[k] = v
	}
	return &s, nil
}

func (f *fakeSettings) Save(s *domain.AppSettings) error {
	f.settings = *s
	return nil
}

func (f *fakeSettings) SetRole(role domain.Role, rs domain.RoleSettings) error {
	if rs.Model == "" {
		rs.Model = domain.DefaultLLMModels()[rs.Provider]
	}
	f.settings.Roles[role] = rs
	return nil
}

func (f *fakeSettings) SetMaxRounds(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: max rounds must not be negative", domain.ErrInvalidInput)
	}
	f.settings.Optimizer.MaxRounds = n
	return nil
}

func (f *fakeSettings) Validate() error { return f.validateErr }

func (f *fakeSettings) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (f *fakeSettings) ValidateRoleConfig(domain.Role) error { return f.pingErr }

// setupTestServices installs fakes and returns a cleanup function.
func setupTestServices(opt *fakeOptimizer, settings *fakeSettings) func() {
	prevOpt, prevSettings, prevErr := optimizer, settingsService, modelsErr
	SetServices(opt, settings)
	SetModelsError(nil)
	return func() {
		optimizer, settingsService, modelsErr = prevOpt, prevSettings, prevErr
	}
}

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the root command with args and returns stdout and stderr.
func run(args []string, stdin string) (stdout, stderr string, err error) {
	resetFlags(rootCmd)
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err = Execute(context.Background())
	return out.String(), errOut.String(), err
}

func sampleResult() *domain.Result {
	seed := domain.Round{Index: 0, Accepted: true,
		Candidate: domain.Candidate{Instruction: "Extract entities."},
		Execution: domain.ExecutionResult{Outputs: []domain.Output{{Produced: "Ann"}}}}
	rejected := domain.Round{Index: 1, Judgment: domain.JudgmentFirstBetter,
		Candidate: domain.Candidate{Instruction: "List all.", Round: 1}}
	failed := domain.Round{Index: 2, Failure: "round 2 failed at generate: timeout"}
	best := domain.Round{Index: 3, Accepted: true, Score: 1, Judgment: domain.JudgmentSecondBetter,
		Candidate: domain.Candidate{Instruction: "List people only.", Round: 3}}
	return &domain.Result{
		SessionID: "s-1",
		Best:      best,
		History:   []domain.Round{seed, rejected, failed, best},
	}
}

func sampleSession() domain.Session {
	return domain.Session{
		ID:        "s-1",
		Name:      "entities",
		Status:    domain.SessionCompleted,
		BestRound: 3,
		Task: domain.TaskContext{
			MaxRounds: 4,
			Exemplars: []domain.Exemplar{{Question: "Ann met Bob."}},
		},
		CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}
