// Package handler provides HTTP request handlers for LinkGate.
package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/linkgate-go/internal/infra/buildinfo"
)

// handleHealth handles GET /health.
//
// @design DS-0301
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, h.health("healthy"))
}

// handleReady handles GET /ready. The service is ready when the
// resource directory can be listed.
//
// @design DS-0301
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := h.health("ready")

	if h.resources != nil {
		list, err := h.resources.List()
		if err != nil {
			h.logger.WarnContext(r.Context(), "resource directory unavailable", "error", err)
			resp.Status = "not_ready"
			resp.Checks = append(resp.Checks, "resource_dir")
		}
		resp.Resources = len(list)
	}

	status := http.StatusOK
	if len(resp.Checks) > 0 {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, r, status, resp)
}

func (h *Handler) health(status string) HealthResponse {
	now := h.now()
	stats := h.gate.StoreStats()

	resp := HealthResponse{
		Status:        status,
		Version:       buildinfo.Get().Version,
		UptimeSeconds: int64(now.Sub(h.startedAt) / time.Second),
		LiveLinks:     stats.Live,
		SweptTotal:    stats.Swept,
		Time:          now.UTC(),
	}
	if stats.LastSweep > 0 {
		resp.LastSweepAt = time.UnixMilli(stats.LastSweep).UTC()
	}
	return resp
}
