package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driving"
)

// fakeOptimizer records the last task and returns canned results.
type fakeOptimizer struct {
	mu       sync.Mutex
	task     domain.TaskContext
	opts     driving.OptimizeOptions
	result   *domain.Result
	err      error
	sessions map[string]domain.Session
	rounds   map[string][]domain.Round
}

func newFakeOptimizer() *fakeOptimizer {
	return &fakeOptimizer{
		sessions: make(map[string]domain.Session),
		rounds:   make(map[string][]domain.Round),
	}
}

func (f *fakeOptimizer) Optimize(_ context.Context, task domain.TaskContext, opts driving.OptimizeOptions) (*domain.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.task = task
	f.opts = opts
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return f.result, f.err
}

func (f *fakeOptimizer) Session(_ context.Context, id string) (*domain.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return &s, nil
}

func (f *fakeOptimizer) Sessions(_ context.Context) ([]domain.Session, error) {
	var out []domain.Session
	for _, s := range f.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeOptimizer) Rounds(_ context.Context, id string) ([]domain.Round, error) {
	return f.rounds[id], nil
}

func (f *fakeOptimizer) lastTask() domain.TaskContext {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.task
}

func winning(instruction string) *domain.Result {
	best := domain.Round{SessionID: "s-1", Index: 2, Accepted: true, Score: 1,
		Candidate: domain.Candidate{Instruction: instruction, Round: 2}}
	return &domain.Result{SessionID: "s-1", Best: best, History: []domain.Round{best}}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestOptimizeArticle_Success(t *testing.T) {
	opt := newFakeOptimizer()
	opt.result = winning("  Write precisely.  ")
	h := NewRouter(opt, Config{MaxRounds: 3})

	rec := do(t, h, http.MethodPost, "/optimize", `{
		"prompt": " Write an article. ",
		"article_text": "  The article.  ",
		"style": "formal",
		"fact_info": "  fact one  ",
		"image": "  img.png "
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[articleResponse](t, rec)
	assert.Equal(t, retCodeOK, resp.RetCode)
	assert.Equal(t, "Write precisely.", resp.BestPrompt)
	assert.Equal(t, "s-1", resp.SessionID)

	task := opt.lastTask()
	assert.Equal(t, "Write an article.", task.SeedInstruction)
	assert.Equal(t, articleRequirement, task.Requirement)
	assert.True(t, strings.HasPrefix(task.Requirement, "1. 结合事实：100%覆盖输入的事实信息的核心实体"))
	assert.True(t, strings.HasSuffix(task.Requirement, "4. 输出约束：仅输出结果，不添加额外分析或解释。"))
	assert.Equal(t, 3, task.MaxRounds)
	require.Len(t, task.Exemplars, 1)
	assert.Equal(t,
		"请根据以下要求撰写文章：风格要求: formal; 必须包含的事实: fact one; 图片库信息: img.png",
		task.Exemplars[0].Question)
	assert.Equal(t, "The article.", task.Exemplars[0].Answer)
	assert.Equal(t, articleSessionName, opt.opts.Name)
}

func TestOptimizeArticle_OptionalPartsOmitted(t *testing.T) {
	req := articleRequest{Prompt: "p", ArticleText: "a", FactInfo: "f", Image: "   "}
	assert.Equal(t,
		"请根据以下要求撰写文章：必须包含的事实: f",
		req.exemplar().Question)
}

func TestOptimizeArticle_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing prompt", `{"article_text":"a","fact_info":"f"}`, "(prompt)"},
		{"blank article", `{"prompt":"p","article_text":"  ","fact_info":"f"}`, "(article_text)"},
		{"missing facts", `{"prompt":"p","article_text":"a"}`, "(fact_info)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := newFakeOptimizer()
			rec := do(t, NewRouter(opt, Config{MaxRounds: 3}), http.MethodPost, "/optimize", tt.body)

			require.Equal(t, http.StatusOK, rec.Code)
			resp := decode[articleResponse](t, rec)
			assert.Equal(t, retCodeError, resp.RetCode)
			assert.Empty(t, resp.BestPrompt)
			assert.Contains(t, resp.Msg, "required field missing or invalid")
			assert.Contains(t, resp.Msg, tt.field)
			assert.Empty(t, opt.lastTask().SeedInstruction)
		})
	}
}

func TestOptimizeArticle_BadJSON(t *testing.T) {
	rec := do(t, NewRouter(newFakeOptimizer(), Config{}), http.MethodPost, "/optimize", `{"prompt":`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[articleResponse](t, rec)
	assert.Equal(t, retCodeError, resp.RetCode)
	assert.Contains(t, resp.Msg, "invalid JSON body")
}

func TestOptimizeArticle_OptimizerError(t *testing.T) {
	opt := newFakeOptimizer()
	opt.err = &domain.SessionFatalError{Stage: domain.StageExecute, Err: errors.New("model down")}
	rec := do(t, NewRouter(opt, Config{MaxRounds: 3}), http.MethodPost, "/optimize",
		`{"prompt":"p","article_text":"a","fact_info":"f"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[articleResponse](t, rec)
	assert.Equal(t, retCodeError, resp.RetCode)
	assert.Empty(t, resp.BestPrompt)
	assert.Contains(t, resp.Msg, "model down")
}

func TestSessionCreate(t *testing.T) {
	opt := newFakeOptimizer()
	opt.result = winning("better")
	h := NewRouter(opt, Config{MaxRounds: 10})

	rec := do(t, h, http.MethodPost, "/v1/sessions", `{
		"name": "entities",
		"seed_instruction": "Extract entities.",
		"requirement": "List people.",
		"exemplars": [{"question": "Ann met Bob.", "answer": "Ann, Bob"}],
		"max_rounds": 0
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[domain.Result](t, rec)
	assert.Equal(t, "better", resp.BestInstruction())
	assert.Equal(t, 0, opt.lastTask().MaxRounds)
	assert.Equal(t, "entities", opt.opts.Name)
}

func TestSessionCreate_DefaultsMaxRounds(t *testing.T) {
	opt := newFakeOptimizer()
	opt.result = winning("x")
	rec := do(t, NewRouter(opt, Config{MaxRounds: 7}), http.MethodPost, "/v1/sessions",
		`{"seed_instruction":"s","requirement":"r","exemplars":[{"question":"q","answer":"a"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, opt.lastTask().MaxRounds)
}

func TestSessionCreate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"unknown field", `{"seed":"s"}`, nil, http.StatusBadRequest, errorCodeInvalidRequest},
		{"invalid task", `{"seed_instruction":"s","requirement":"r"}`, nil, http.StatusBadRequest, errorCodeInvalidRequest},
		{
			"session fatal",
			`{"seed_instruction":"s","requirement":"r","exemplars":[{"question":"q"}]}`,
			&domain.SessionFatalError{Stage: domain.StageInit, Err: errors.New("boom")},
			http.StatusBadGateway, errorCodeSessionFatal,
		},
		{
			"cancelled",
			`{"seed_instruction":"s","requirement":"r","exemplars":[{"question":"q"}]}`,
			context.Canceled,
			http.StatusServiceUnavailable, errorCodeCancelled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := newFakeOptimizer()
			opt.err = tt.err
			rec := do(t, NewRouter(opt, Config{MaxRounds: 3}), http.MethodPost, "/v1/sessions", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			resp := decode[apiErrorResponse](t, rec)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestSessionList_Empty(t *testing.T) {
	rec := do(t, NewRouter(newFakeOptimizer(), Config{}), http.MethodGet, "/v1/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessions":[]}`, rec.Body.String())
}

func TestSessionGet(t *testing.T) {
	opt := newFakeOptimizer()
	opt.sessions["s-1"] = domain.Session{ID: "s-1", Status: domain.SessionCompleted}
	opt.rounds["s-1"] = []domain.Round{{SessionID: "s-1", Index: 0, Accepted: true}}
	h := NewRouter(opt, Config{})

	rec := do(t, h, http.MethodGet, "/v1/sessions/s-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[sessionDetailResponse](t, rec)
	require.NotNil(t, resp.Session)
	assert.Equal(t, domain.SessionCompleted, resp.Session.Status)
	assert.Len(t, resp.Rounds, 1)

	rec = do(t, h, http.MethodGet, "/v1/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	rec := do(t, NewRouter(newFakeOptimizer(), Config{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, NewRouter(newFakeOptimizer(), Config{}), http.MethodGet, "/optimize", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer("127.0.0.1:0", NewRouter(newFakeOptimizer(), Config{}))
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, time.Second) }()
	cancel()
	assert.NoError(t, <-done)
}
