package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports backend reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers exposes the liveness endpoint.
type HealthHandlers struct {
	pinger  Pinger
	started time.Time
}

// NewHealthHandlers constructs health handlers; pinger may be nil.
func NewHealthHandlers(pinger Pinger) *HealthHandlers {
	return &HealthHandlers{pinger: pinger, started: time.Now()}
}

// Healthz reports process liveness and, when configured, store reachability.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status":    "ok",
		"uptime":    time.Since(h.started).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			payload["status"] = "degraded"
			payload["store"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	writeJSONResponse(w, status, payload)
}
