// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/credguard/internal/api"
	"github.com/tomtom215/credguard/internal/cache"
	"github.com/tomtom215/credguard/internal/config"
	"github.com/tomtom215/credguard/internal/database"
	"github.com/tomtom215/credguard/internal/geoip"
	"github.com/tomtom215/credguard/internal/ingest"
	"github.com/tomtom215/credguard/internal/logging"
	"github.com/tomtom215/credguard/internal/supervisor"
	"github.com/tomtom215/credguard/internal/supervisor/services"
	ws "github.com/tomtom215/credguard/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("driver", cfg.Database.Driver).
		Str("checkpoint_backend", cfg.Checkpoint.Backend).
		Str("dedup_backend", cfg.Dedup.Backend).
		Msg("Starting CredGuard with supervisor tree")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// === STORAGE ===

	store, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open login event store")
	}
	defer closeLogged("login event store", store)

	checkpoints, err := database.OpenCheckpointStore(cfg.Checkpoint, store)
	if err != nil {
		closeLogged("login event store", store)
		logging.Fatal().Err(err).Msg("Failed to open checkpoint store")
	}
	defer closeLogged("checkpoint store", checkpoints)

	dedup, err := cache.OpenDedupStore(ctx, cfg.Dedup, cfg.Detection.AlertCooldown)
	if err != nil {
		closeLogged("checkpoint store", checkpoints)
		closeLogged("login event store", store)
		logging.Fatal().Err(err).Msg("Failed to open alert dedup store")
	}
	defer closeLogged("dedup store", dedup)

	// An unreadable GeoIP database only disables enrichment.
	enricher, err := geoip.Open(cfg.GeoIP)
	if err != nil {
		logging.Warn().Err(err).Msg("GeoIP enrichment disabled")
	} else {
		defer closeLogged("geoip databases", enricher)
	}

	ingester := ingest.NewService(store, enricher)

	// === REAL-TIME DELIVERY ===

	wsHub := ws.NewHub(ws.Config{
		SendBuffer:     cfg.WebSocket.SendBuffer,
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
	})

	// === DETECTION ===

	det, err := initDetection(cfg, store, checkpoints, dedup, wsHub)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize detection")
	}

	// === HTTP ===

	handler := api.NewHandler(api.Dependencies{
		Config:   cfg,
		Detector: det.detector,
		Ingester: ingester,
		Store:    store,
		Monitor:  det.monitor,
		Hub:      wsHub,
		Version:  version,
	})
	router := api.NewRouter(handler, api.NewChiMiddlewareFromSecurity(cfg.Security))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDetectionService(services.NewMonitorService(det.monitor))
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(services.NewAlertPublisherService(det.fanout, det.sinks...))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().
		Str("addr", server.Addr).
		Int("notifiers", len(det.sinks)).
		Msg("Services added to supervisor tree")

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// The channel receives exactly one value and is never closed.
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
		cancel()
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("CredGuard stopped gracefully")
}

func closeLogged(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logging.Error().Err(err).Str("resource", name).Msg("Error closing resource")
	}
}
