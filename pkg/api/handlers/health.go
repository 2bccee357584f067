package handlers

import (
	"net/http"
	"time"

	"github.com/sigil/sigil/pkg/api/response"
	"github.com/sigil/sigil/pkg/version"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	started time.Time
	ready   func() bool
}

// NewHealthHandler creates a health handler. ready, when non-nil, is
// consulted by the readiness probe.
func NewHealthHandler(ready func() bool) *HealthHandler {
	return &HealthHandler{started: time.Now(), ready: ready}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready() {
		response.JSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
		})
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}
