// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"io"
	"net/http"
)

// pageHandler serves the embedded dashboard page.
type pageHandler struct{}

func newPageHandler() *pageHandler {
	return &pageHandler{}
}

// HandlePage handles GET /dashboard requests.
// Returns an HTML page with JavaScript that fetches a dashboard snapshot
// and renders the KPI tiles, tables and daily timeline.
func (h *pageHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	// Equivalent of http.ServeFileFS (Go 1.22+), kept compatible with Go 1.21.
	f, err := dashboardFS.Open("dashboard.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}
	rs, ok := f.(io.ReadSeeker)
	if !ok {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, "dashboard.html", fi.ModTime(), rs)
}
