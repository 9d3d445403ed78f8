// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// DashboardHandler serves the owner-scoped read endpoints.
type DashboardHandler struct {
	deps Dependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps Dependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

// HandleGetDashboard handles GET /dashboard/{owner_id} requests.
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	ownerID, days, ok := h.ownerRequest(w, r, "/dashboard/")
	if !ok {
		return
	}
	snap, err := h.deps.Dashboard(r.Context(), ownerID, days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleGetAtRisk handles GET /atrisk/{owner_id} requests.
func (h *DashboardHandler) HandleGetAtRisk(w http.ResponseWriter, r *http.Request) {
	ownerID, days, ok := h.ownerRequest(w, r, "/atrisk/")
	if !ok {
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	entries, err := h.deps.AtRisk(r.Context(), ownerID, days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, capEntries(entries, limit))
}

// HandleGetWeakQuestions handles GET /weakquestions/{owner_id} requests.
func (h *DashboardHandler) HandleGetWeakQuestions(w http.ResponseWriter, r *http.Request) {
	ownerID, days, ok := h.ownerRequest(w, r, "/weakquestions/")
	if !ok {
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	entries, err := h.deps.WeakQuestions(r.Context(), ownerID, days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, capEntries(entries, limit))
}

// capEntries truncates a list to limit entries; zero means no extra cap
// beyond the configured policy limit.
func capEntries[T any](entries []T, limit int) []T {
	if limit > 0 && limit < len(entries) {
		return entries[:limit]
	}
	return entries
}

// ownerRequest extracts the owner id path segment and days query value
// shared by the owner-scoped endpoints. It writes the error response itself
// and reports success through ok.
func (h *DashboardHandler) ownerRequest(w http.ResponseWriter, r *http.Request, prefix string) (string, int, bool) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return "", 0, false
	}
	ownerID := strings.TrimPrefix(r.URL.Path, prefix)
	if ownerID == "" || strings.Contains(ownerID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return "", 0, false
	}
	days, err := daysParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return "", 0, false
	}
	return ownerID, days, true
}
