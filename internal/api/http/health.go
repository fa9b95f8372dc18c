package http

import (
	"net/http"

	"github.com/mwort/grass/internal/api/respond"
)

// HealthReporter exposes the cached service health flag.
type HealthReporter interface {
	IsHealthy() bool
}

// HealthHandler handles the health check endpoint.
type HealthHandler struct {
	reporter HealthReporter
}

// NewHealthHandler creates a health handler over a reporter. A nil reporter
// always reports healthy; useful for tests and single-process tools.
func NewHealthHandler(reporter HealthReporter) *HealthHandler {
	return &HealthHandler{reporter: reporter}
}

// Health GET /v0/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.reporter != nil && !h.reporter.IsHealthy() {
		respond.WriteError(w, http.StatusServiceUnavailable, "service unhealthy")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
