// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/edupulse/edupulse/internal/domain/model"
)

// attemptRequest mirrors the OpenAPI schema for POST /attempts.
type attemptRequest struct {
	AttemptID   string  `json:"attempt_id"`
	OwnerID     string  `json:"owner_id"`
	QuizID      string  `json:"quiz_id"`
	LearnerID   string  `json:"learner_id"`
	Answers     []*int  `json:"answers"`
	Score       float64 `json:"score"`
	MaxScore    float64 `json:"max_score"`
	CreatedAtMs int64   `json:"created_at_ms"`
}

func (a attemptRequest) validate() error {
	switch {
	case strings.TrimSpace(a.OwnerID) == "":
		return errors.New("missing owner_id")
	case strings.TrimSpace(a.QuizID) == "":
		return errors.New("missing quiz_id")
	case strings.TrimSpace(a.LearnerID) == "":
		return errors.New("missing learner_id")
	case a.CreatedAtMs <= 0:
		return errors.New("missing created_at_ms")
	}
	return nil
}

// AttemptsHandler handles quiz-attempt requests.
type AttemptsHandler struct {
	deps Dependencies
}

// NewAttemptsHandler creates a new attempts handler.
func NewAttemptsHandler(deps Dependencies) *AttemptsHandler {
	return &AttemptsHandler{deps: deps}
}

// HandlePostAttempt handles POST /attempts requests.
func (h *AttemptsHandler) HandlePostAttempt(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_attempt"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	id, duplicate, err := h.deps.IngestAttempt(r.Context(), model.QuizAttempt{
		AttemptID:   req.AttemptID,
		OwnerID:     req.OwnerID,
		QuizID:      req.QuizID,
		LearnerID:   req.LearnerID,
		Answers:     req.Answers,
		Score:       req.Score,
		MaxScore:    req.MaxScore,
		CreatedAtMs: req.CreatedAtMs,
	})
	if err != nil {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: id, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: id})
}
