package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/custodia-labs/spo/internal/core/ports/driving"
	"github.com/custodia-labs/spo/internal/logger"
)

// Config holds HTTP API settings.
type Config struct {
	// MaxRounds bounds sessions started through /optimize and sessions that
	// do not set their own max_rounds.
	MaxRounds int
}

type handlers struct {
	optimizer driving.Optimizer
	cfg       Config
}

// NewRouter returns the API handler.
func NewRouter(optimizer driving.Optimizer, cfg Config) http.Handler {
	h := &handlers{optimizer: optimizer, cfg: cfg}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /optimize", h.handleOptimizeArticle)
	mux.HandleFunc("POST /v1/sessions", h.handleSessionCreate)
	mux.HandleFunc("GET /v1/sessions", h.handleSessionList)
	mux.HandleFunc("GET /v1/sessions/{session_id}", h.handleSessionGet)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	return logRequests(mux)
}

func (h *handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusRecorder captures the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.L().Infow("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start).Round(time.Millisecond).String())
	})
}

// Server runs the API until its context is cancelled.
type Server struct {
	srv *http.Server
}

// NewServer creates a server for handler on addr.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Run serves until ctx is cancelled, then shuts down gracefully. Sessions
// in flight are given shutdownGrace to finish.
func (s *Server) Run(ctx context.Context, shutdownGrace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	return nil
}
