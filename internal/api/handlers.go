// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/credguard/internal/config"
	"github.com/tomtom215/credguard/internal/detection"
	"github.com/tomtom215/credguard/internal/ingest"
	"github.com/tomtom215/credguard/internal/logging"
	ws "github.com/tomtom215/credguard/internal/websocket"
)

// Detector runs on-demand detection for one tenant.
type Detector interface {
	Detect(ctx context.Context, tenantKey string, w detection.Window) (*detection.Result, error)
}

// Ingester stores reported login attempts.
type Ingester interface {
	Record(ctx context.Context, attempt ingest.Attempt) (*detection.LoginEvent, error)
}

// Pinger reports whether the event store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MonitorStatusProvider exposes the continuous monitor state for health
// reporting.
type MonitorStatusProvider interface {
	Status() detection.MonitorStatus
}

// Dependencies are the collaborators served over HTTP. Monitor may be nil
// in tests and deployments that only ingest.
type Dependencies struct {
	Config   *config.Config
	Detector Detector
	Ingester Ingester
	Store    Pinger
	Monitor  MonitorStatusProvider
	Hub      *ws.Hub
	Version  string
}

// Handler handles all HTTP requests.
type Handler struct {
	config    *config.Config
	detector  Detector
	ingester  Ingester
	store     Pinger
	monitor   MonitorStatusProvider
	wsHub     *ws.Hub
	version   string
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a new Handler instance.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		config:    deps.Config,
		detector:  deps.Detector,
		ingester:  deps.Ingester,
		store:     deps.Store,
		monitor:   deps.Monitor,
		wsHub:     deps.Hub,
		version:   deps.Version,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// defaultWindow is the on-demand window used when a request has no dates.
func (h *Handler) defaultWindow() time.Duration {
	if h.config != nil && h.config.Detection.DefaultWindow > 0 {
		return h.config.Detection.DefaultWindow
	}
	return 24 * time.Hour
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins against the
// configured CORS origins. Requests without an Origin header come from
// non-browser clients and are only accepted when "*" is configured.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	if h.config == nil {
		return true
	}

	origin := r.Header.Get("Origin")
	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || (origin != "" && allowed == origin) {
			return true
		}
	}

	logging.Warn().
		Str("origin", logging.SanitizeLogValue(origin)).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}
