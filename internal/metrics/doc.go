// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto and
exposed at /metrics:

	curl http://localhost:8000/metrics

# Available Metrics

Monitor:
  - credguard_monitor_cycles_total{result}: completed poll cycles by result (success, error)
  - credguard_monitor_cycle_errors_total: failed poll cycles (checkpoint not advanced)
  - credguard_monitor_cycle_duration_seconds: poll cycle duration
  - credguard_monitor_events_scanned_total: events evaluated by the monitor
  - credguard_monitor_checkpoint_lag_seconds: wall clock minus checkpoint after each cycle

Alerts:
  - credguard_alerts_dispatched_total: alerts published to subscribers
  - credguard_alerts_suppressed_total{reason}: risk-qualifying events held back
  - credguard_notifier_failures_total{notifier}: failed deliveries per external sink
  - credguard_detection_incidents_total{status}: incidents produced by on-demand detection

Event store:
  - credguard_event_store_query_duration_seconds{operation}
  - credguard_event_store_query_errors_total{operation}

WebSocket:
  - credguard_websocket_connections: live subscriber connections
  - credguard_websocket_groups: tenant groups with at least one subscriber
  - credguard_websocket_publish_failures_total: per-connection delivery failures

HTTP:
  - api_requests_total{method,endpoint,status_code}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests

Ingestion:
  - credguard_login_events_ingested_total{success}
  - credguard_geoip_lookup_failures_total{database}
*/
package metrics
