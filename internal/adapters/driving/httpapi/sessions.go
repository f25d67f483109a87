package httpapi

import (
	"net/http"
	"strings"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driving"
)

type sessionCreateRequest struct {
	Name            string            `json:"name"`
	SeedInstruction string            `json:"seed_instruction"`
	Requirement     string            `json:"requirement"`
	Exemplars       []domain.Exemplar `json:"exemplars"`
	MaxRounds       *int              `json:"max_rounds"`
}

type sessionListResponse struct {
	Sessions []domain.Session `json:"sessions"`
}

type sessionDetailResponse struct {
	Session *domain.Session `json:"session"`
	Rounds  []domain.Round  `json:"rounds"`
}

func (h *handlers) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req sessionCreateRequest
	if err := decodeJSONBody(r, &req, true); err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}

	task := domain.TaskContext{
		SeedInstruction: strings.TrimSpace(req.SeedInstruction),
		Requirement:     strings.TrimSpace(req.Requirement),
		Exemplars:       req.Exemplars,
		MaxRounds:       h.cfg.MaxRounds,
	}
	if req.MaxRounds != nil {
		task.MaxRounds = *req.MaxRounds
	}

	result, err := h.optimizer.Optimize(r.Context(), task, driving.OptimizeOptions{Name: req.Name})
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) handleSessionList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.optimizer.Sessions(r.Context())
	if err != nil {
		writeMappedError(w, err)
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	writeJSON(w, http.StatusOK, sessionListResponse{Sessions: sessions})
}

func (h *handlers) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("session_id"))
	if id == "" {
		writeInvalidRequest(w, "session_id is required")
		return
	}

	session, err := h.optimizer.Session(r.Context(), id)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	rounds, err := h.optimizer.Rounds(r.Context(), id)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionDetailResponse{Session: session, Rounds: rounds})
}
