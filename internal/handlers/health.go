package handlers

import (
	"net/http"
	"time"

	"github.com/aroma-notes/api/internal/platform/httpx"
)

var startTime = time.Now()

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	ready func() bool
}

// NewHealthHandlers builds the probe handlers. ready may be nil, in which
// case readiness always passes.
func NewHealthHandlers(ready func() bool) *HealthHandlers {
	return &HealthHandlers{ready: ready}
}

func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(startTime).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready() {
		httpx.WriteError(w, r, http.StatusServiceUnavailable, "not_ready", "dependencies are not ready")
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, map[string]any{"status": "ready"})
}
