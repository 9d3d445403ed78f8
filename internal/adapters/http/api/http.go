// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/edupulse/edupulse/internal/domain/model"
	"github.com/edupulse/edupulse/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Ingest operations accept records for async persistence. The returned
	// bool reports whether the id was a replay.
	IngestProgress(ctx context.Context, ev model.ProgressEvent) (string, bool, error)
	IngestAttempt(ctx context.Context, at model.QuizAttempt) (string, bool, error)
	IngestBank(ctx context.Context, bank model.QuizBank) (string, error)

	// Read operations expose computed snapshots.
	Dashboard(ctx context.Context, ownerID string, days int) (types.Snapshot, error)
	LearnerSummary(ctx context.Context, learnerID string, days int) (types.LearnerSummary, error)
	AtRisk(ctx context.Context, ownerID string, days int) ([]types.AtRiskEntry, error)
	WeakQuestions(ctx context.Context, ownerID string, days int) ([]types.WeakQuestionEntry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	eventsHandler    *EventsHandler
	attemptsHandler  *AttemptsHandler
	quizzesHandler   *QuizzesHandler
	dashboardHandler *DashboardHandler
	summaryHandler   *SummaryHandler
	pageHandler      *pageHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		eventsHandler:    NewEventsHandler(deps),
		attemptsHandler:  NewAttemptsHandler(deps),
		quizzesHandler:   NewQuizzesHandler(deps),
		dashboardHandler: NewDashboardHandler(deps),
		summaryHandler:   NewSummaryHandler(deps),
		pageHandler:      newPageHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/attempts", MetricsMiddleware(s.attemptsHandler.HandlePostAttempt, "attempts"))
	mux.HandleFunc("/quizzes", MetricsMiddleware(s.quizzesHandler.HandlePutQuiz, "quizzes"))
	mux.HandleFunc("/dashboard", s.pageHandler.HandlePage)
	mux.HandleFunc("/dashboard/", MetricsMiddleware(s.dashboardHandler.HandleGetDashboard, "dashboard"))
	mux.HandleFunc("/atrisk/", MetricsMiddleware(s.dashboardHandler.HandleGetAtRisk, "atrisk"))
	mux.HandleFunc("/weakquestions/", MetricsMiddleware(s.dashboardHandler.HandleGetWeakQuestions, "weakquestions"))
	mux.HandleFunc("/learners/", MetricsMiddleware(s.summaryHandler.HandleGetSummary, "learner_summary"))
}

type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// daysParam parses the optional ?days= query value. Zero means "use the
// configured default"; the service clamps the upper bound.
func daysParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrBadRequest
	}
	return days, nil
}

// limitParam parses the optional ?limit= query value. Zero means "no cap
// beyond the configured policy limit".
func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, ErrBadRequest
	}
	return limit, nil
}
