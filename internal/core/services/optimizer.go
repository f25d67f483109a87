package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
	"github.com/custodia-labs/spo/internal/core/ports/driving"
	"github.com/custodia-labs/spo/internal/logger"
)

// Ensure OptimizerService implements the interface.
var _ driving.Optimizer = (*OptimizerService)(nil)

// OptimizerService runs the search loop:
//
//	INIT -> (GENERATE -> EXECUTE -> EVALUATE -> ACCEPT|REJECT)* -> DONE
//
// Only a failure to establish the seed round ends a session early.
type OptimizerService struct {
	store     driven.SessionStore
	executor  *Executor
	judge     *Judge
	generator driven.CandidateGenerator
}

// NewOptimizerService creates a new optimizer service.
func NewOptimizerService(
	store driven.SessionStore,
	executor *Executor,
	judge *Judge,
	generator driven.CandidateGenerator,
) *OptimizerService {
	return &OptimizerService{
		store:     store,
		executor:  executor,
		judge:     judge,
		generator: generator,
	}
}

// Optimize runs a full session for the task.
func (s *OptimizerService) Optimize(
	ctx context.Context,
	task domain.TaskContext,
	opts driving.OptimizeOptions,
) (*domain.Result, error) {
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	task.Exemplars = task.CloneExemplars()

	session := &domain.Session{
		ID:        uuid.NewString(),
		Name:      opts.Name,
		Task:      task,
		Status:    domain.SessionRunning,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("optimize: %w", &domain.SessionFatalError{Stage: domain.StageInit, Err: err})
	}

	run := &sessionRun{
		svc:      s,
		session:  session,
		task:     task,
		history:  NewHistory(s.store, session.ID),
		observer: opts.Observer,
		log:      logger.With("session", session.ID),
	}
	return run.execute(ctx)
}

// Session retrieves a session by ID.
func (s *OptimizerService) Session(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return session, nil
}

// Sessions lists all sessions, newest first.
func (s *OptimizerService) Sessions(ctx context.Context) ([]domain.Session, error) {
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Rounds returns a session's full round history in order.
func (s *OptimizerService) Rounds(ctx context.Context, sessionID string) ([]domain.Round, error) {
	rounds, err := s.store.ListRounds(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list rounds %s: %w", sessionID, err)
	}
	return rounds, nil
}

// sessionRun holds the state of one optimisation session.
// best and previous are written once per round by the loop goroutine only.
type sessionRun struct {
	svc      *OptimizerService
	session  *domain.Session
	task     domain.TaskContext
	history  *History
	observer driving.RoundObserver
	log      *zap.SugaredLogger

	best     domain.Round
	previous string
}

func (r *sessionRun) execute(ctx context.Context) (*domain.Result, error) {
	r.log.Infow("Session started", "rounds", r.task.MaxRounds, "exemplars", len(r.task.Exemplars))

	if err := r.seed(ctx); err != nil {
		fatal := &domain.SessionFatalError{Stage: domain.StageInit, Err: err}
		r.finish(ctx, fatal)
		return nil, fmt.Errorf("optimize: %w", fatal)
	}

	for index := 1; index < r.task.MaxRounds; index++ {
		if err := ctx.Err(); err != nil {
			r.finish(ctx, err)
			return r.result(), fmt.Errorf("optimize: stopped before round %d: %w", index, err)
		}

		round := r.challenge(ctx, index)
		if err := r.record(ctx, round); err != nil {
			fatal := &domain.SessionFatalError{Stage: domain.StageRecord, Err: err}
			r.finish(ctx, fatal)
			return r.result(), fmt.Errorf("optimize: %w", fatal)
		}
		if round.Candidate.Instruction != "" {
			r.previous = round.Candidate.Instruction
		}
		if round.Accepted {
			r.best = round
		}
	}

	r.finish(ctx, nil)
	return r.result(), nil
}

// seed executes and records round 0 as the initial best.
func (r *sessionRun) seed(ctx context.Context) error {
	candidate := domain.Candidate{Instruction: r.task.SeedInstruction, Round: 0}
	started := time.Now()

	exec, err := r.svc.executor.Execute(ctx, candidate, r.task.Exemplars)
	if err != nil {
		return err
	}
	if exec.AllFailed() {
		return fmt.Errorf("seed: all %d exemplars: %w: %s",
			len(exec.Outputs), domain.ErrExemplarFailed, exec.Outputs[0].Produced)
	}

	round := domain.Round{
		Index:     0,
		Candidate: candidate,
		Execution: exec,
		Accepted:  true,
		Score:     0,
		StartedAt: started,
		EndedAt:   time.Now(),
	}
	if err := r.record(ctx, round); err != nil {
		return err
	}
	r.best = round
	r.previous = candidate.Instruction
	return nil
}

// challenge runs one GENERATE -> EXECUTE -> EVALUATE step against the current best.
// Failures are folded into a rejected round.
func (r *sessionRun) challenge(ctx context.Context, index int) domain.Round {
	round := domain.Round{
		Index:     index,
		Candidate: domain.Candidate{Round: index},
		Score:     r.best.Score,
		StartedAt: time.Now(),
	}
	fail := func(stage string, err error) domain.Round {
		failure := &domain.RoundFailure{Round: index, Stage: stage, Err: err}
		r.log.Warnw("Round rejected", "round", index, "error", failure.Error())
		round.Failure = failure.Error()
		round.EndedAt = time.Now()
		return round
	}

	instruction, err := r.svc.generator.Generate(ctx, driven.GenerateRequest{
		Best:        r.best,
		Previous:    r.previous,
		Requirement: r.task.Requirement,
		Exemplars:   r.task.Exemplars,
	})
	if err != nil {
		return fail(domain.StageGenerate, err)
	}
	if !distinct(instruction, r.previous) {
		return fail(domain.StageGenerate, domain.ErrCandidateNotDistinct)
	}
	round.Candidate = domain.Candidate{Instruction: instruction, Round: index}

	exec, err := r.svc.executor.Execute(ctx, round.Candidate, r.task.Exemplars)
	if err != nil {
		return fail(domain.StageExecute, err)
	}
	round.Execution = exec
	if exec.AllFailed() {
		return fail(domain.StageExecute, fmt.Errorf("all %d exemplars: %w: %s",
			len(exec.Outputs), domain.ErrExemplarFailed, exec.Outputs[0].Produced))
	}

	round.Judgment = r.svc.judge.Compare(ctx, r.best.Execution, exec, r.task.Requirement, r.task.Exemplars)
	if round.Judgment == domain.JudgmentSecondBetter {
		round.Accepted = true
		round.Score = r.best.Score + 1
	}
	round.EndedAt = time.Now()

	r.log.Infow("Round judged",
		"round", index,
		"judgment", round.Judgment.String(),
		"accepted", round.Accepted,
		"failed_exemplars", exec.FailedCount())
	return round
}

func (r *sessionRun) record(ctx context.Context, round domain.Round) error {
	if err := r.history.Record(ctx, round); err != nil {
		return err
	}
	if r.observer != nil {
		round.SessionID = r.session.ID
		r.observer(round)
	}
	return nil
}

// finish persists the session's final state. It runs even when ctx is
// cancelled so the audit trail reflects how the session ended.
func (r *sessionRun) finish(ctx context.Context, cause error) {
	ctx = context.WithoutCancel(ctx)

	r.session.CompletedAt = time.Now()
	r.session.BestRound = r.best.Index
	if cause == nil {
		r.session.Status = domain.SessionCompleted
		r.log.Infow("Session completed", "best_round", r.best.Index, "rounds", r.history.Len())
	} else {
		r.session.Status = domain.SessionFailed
		r.session.Error = cause.Error()
		if errors.Is(cause, domain.ErrSessionFatal) {
			r.log.Errorw("Session failed", "error", cause.Error())
		} else {
			r.log.Warnw("Session stopped", "error", cause.Error())
		}
	}

	if err := r.svc.store.UpdateSession(ctx, r.session); err != nil {
		r.log.Warnw("Failed to persist session state", "error", err.Error())
	}
}

func (r *sessionRun) result() *domain.Result {
	best, ok := r.history.Best()
	if !ok {
		best = r.best
	}
	return &domain.Result{
		SessionID: r.session.ID,
		Best:      best,
		History:   r.history.All(),
	}
}

// distinct reports whether two instructions differ once surrounding whitespace is ignored.
func distinct(a, b string) bool {
	return strings.TrimSpace(a) != strings.TrimSpace(b)
}
