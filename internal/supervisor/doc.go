// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

/*
Package supervisor runs the service's long-lived components under a suture
v4 supervisor tree.

Layers isolate failures from each other:

	credguard
	├── detection-layer
	│   └── monitor
	├── messaging-layer
	│   ├── websocket-hub
	│   └── alert-publisher
	└── api-layer
	    └── http-server

Crashed services are restarted with suture's decaying failure counter and
backoff. Supervisor events are logged through sutureslog into the zerolog
pipeline (see logging.NewSlogLogger).

Usage in main:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDetectionService(services.NewMonitorService(monitor))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewAlertPublisherService(fanout, kafka, nats))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor stopped with error")
	}
*/
package supervisor
