// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/edupulse/edupulse/internal/domain/model"
)

// eventRequest mirrors the OpenAPI schema for POST /events.
type eventRequest struct {
	EventID         string  `json:"event_id"`
	OwnerID         string  `json:"owner_id"`
	LearnerID       string  `json:"learner_id"`
	CourseID        string  `json:"course_id"`
	ChapterID       string  `json:"chapter_id"`
	WatchedSeconds  float64 `json:"watched_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
	OccurredAtMs    int64   `json:"occurred_at_ms"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.OwnerID) == "":
		return errors.New("missing owner_id")
	case strings.TrimSpace(e.LearnerID) == "":
		return errors.New("missing learner_id")
	case strings.TrimSpace(e.CourseID) == "":
		return errors.New("missing course_id")
	case strings.TrimSpace(e.ChapterID) == "":
		return errors.New("missing chapter_id")
	case e.OccurredAtMs <= 0:
		return errors.New("missing occurred_at_ms")
	}
	return nil
}

// EventsHandler handles watch-event requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	id, duplicate, err := h.deps.IngestProgress(r.Context(), model.ProgressEvent{
		EventID:         req.EventID,
		OwnerID:         req.OwnerID,
		LearnerID:       req.LearnerID,
		CourseID:        req.CourseID,
		ChapterID:       req.ChapterID,
		WatchedSeconds:  req.WatchedSeconds,
		DurationSeconds: req.DurationSeconds,
		OccurredAtMs:    req.OccurredAtMs,
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
