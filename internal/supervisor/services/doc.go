// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

/*
Package services adapts long-running components to suture.Service.

Each wrapper translates a component lifecycle into Serve(ctx) error and
names itself through String() for supervisor logs:

	monitor          detection.Monitor poll loop
	websocket-hub    websocket.Hub lifetime, closes subscribers on shutdown
	alert-publisher  drains the notifier fan-out, then closes Kafka and NATS
	http-server      http.Server with graceful Shutdown

The wrappers depend on small interfaces rather than the concrete types so
they can be tested with fakes and do not import the packages they run.
*/
package services
