// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/edupulse/edupulse/internal/domain/model"
)

// quizRequest mirrors the OpenAPI schema for PUT /quizzes.
type quizRequest struct {
	QuizID    string            `json:"quiz_id"`
	OwnerID   string            `json:"owner_id"`
	Questions []questionRequest `json:"questions"`
}

type questionRequest struct {
	QuestionID     string   `json:"question_id"`
	Prompt         string   `json:"prompt"`
	Options        []string `json:"options"`
	CorrectOptions []int    `json:"correct_options"`
}

func (q quizRequest) validate() error {
	if strings.TrimSpace(q.OwnerID) == "" {
		return errors.New("missing owner_id")
	}
	for _, question := range q.Questions {
		for _, correct := range question.CorrectOptions {
			if correct < 0 || correct >= len(question.Options) {
				return errors.New("correct option out of range in question " + question.QuestionID)
			}
		}
	}
	return nil
}

// QuizzesHandler handles quiz definition upserts.
type QuizzesHandler struct {
	deps Dependencies
}

// NewQuizzesHandler creates a new quizzes handler.
func NewQuizzesHandler(deps Dependencies) *QuizzesHandler {
	return &QuizzesHandler{deps: deps}
}

// HandlePutQuiz handles PUT and POST /quizzes requests.
func (h *QuizzesHandler) HandlePutQuiz(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_quiz"
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	questions := make([]model.QuestionDef, len(req.Questions))
	for i, q := range req.Questions {
		questions[i] = model.QuestionDef{
			QuestionID:     q.QuestionID,
			Prompt:         q.Prompt,
			Options:        q.Options,
			CorrectOptions: q.CorrectOptions,
		}
	}

	id, err := h.deps.IngestBank(r.Context(), model.QuizBank{
		QuizID:    req.QuizID,
		OwnerID:   req.OwnerID,
		Questions: questions,
	})
	if err != nil {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: id})
}
