// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/credguard/internal/models"
)

// readinessPingTimeout bounds the event store ping of the readiness probe.
const readinessPingTimeout = 2 * time.Second

// Root is the service banner kept for clients of the original service.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.MessageResponse{Message: "Detection Service Running"})
}

// HealthLive handles liveness probe requests.
// Returns 200 OK if the process is alive, regardless of external dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Time{})
}

// HealthReady handles readiness probe requests.
// Returns 200 OK only if the event store answers a ping; otherwise 503.
// The monitor's last cycle, checkpoint and websocket counts are reported
// either way.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:     "ready",
		Version:    h.version,
		EventStore: "connected",
		Uptime:     time.Since(h.startTime).Seconds(),
	}

	storeOK := h.store != nil
	if storeOK {
		ctx, cancel := context.WithTimeout(r.Context(), readinessPingTimeout)
		storeOK = h.store.Ping(ctx) == nil
		cancel()
	}
	if !storeOK {
		resp.Status = "not_ready"
		resp.EventStore = "unreachable"
	}

	if h.monitor != nil {
		st := h.monitor.Status()
		resp.MonitorRunning = st.Running
		resp.LastCycle = timePtr(st.LastCycle)
		resp.LastCycleError = st.LastError
		resp.Checkpoint = timePtr(st.Checkpoint)
	}
	if h.wsHub != nil {
		resp.WebSocketGroups = h.wsHub.GroupCount()
		resp.WebSocketConns = h.wsHub.GetClientCount()
	}

	status := http.StatusOK
	if !storeOK {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, &models.APIResponse{
		Status:   resp.Status,
		Data:     resp,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
