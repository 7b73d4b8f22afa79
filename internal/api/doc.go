// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

/*
Package api provides the HTTP surface of the detection service.

Routes:

	GET  /                       service banner
	POST /detect-cred-stuff      on-demand detection for one tenant
	POST /login-logs             login attempt ingestion
	GET  /ws/{group_key}         live alerts for one tenant over websocket
	GET  /api/v1/health/live     liveness probe
	GET  /api/v1/health/ready    readiness probe (event store ping)
	GET  /metrics                Prometheus metrics

JSON endpoints answer with the models.APIResponse envelope. Errors carry a
machine-readable code:

	VALIDATION_ERROR     malformed body or failed field validation (400)
	INVALID_DATE         unparseable or inverted detection window (400)
	DETECTION_ERROR      event store failure during detection (500)
	INGEST_ERROR         event store failure during ingestion (500)
	RATE_LIMIT_EXCEEDED  per-IP budget exhausted (429)
	METHOD_NOT_ALLOWED   wrong HTTP method for a known route (405)

Routing uses chi with go-chi/cors and go-chi/httprate. Websocket
origins are checked against the same CORS origin list.
*/
package api
