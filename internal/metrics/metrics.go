// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Monitor Metrics
	MonitorCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credguard_monitor_cycles_total",
			Help: "Total number of monitor poll cycles by result",
		},
		[]string{"result"},
	)

	MonitorCycleErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credguard_monitor_cycle_errors_total",
			Help: "Total number of monitor poll cycles that failed without advancing the checkpoint",
		},
	)

	MonitorCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "credguard_monitor_cycle_duration_seconds",
			Help:    "Duration of monitor poll cycles in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	MonitorEventsScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credguard_monitor_events_scanned_total",
			Help: "Total number of login events evaluated by the monitor",
		},
	)

	MonitorCheckpointLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "credguard_monitor_checkpoint_lag_seconds",
			Help: "Seconds between the cycle start and the committed checkpoint",
		},
	)

	// Alert Metrics
	AlertsDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credguard_alerts_dispatched_total",
			Help: "Total number of alerts published to websocket subscribers",
		},
	)

	AlertsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credguard_alerts_suppressed_total",
			Help: "Total number of risk-qualifying events not alerted",
		},
		[]string{"reason"},
	)

	NotifierFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credguard_notifier_failures_total",
			Help: "Total number of failed alert deliveries per notifier",
		},
		[]string{"notifier"},
	)

	NotifierDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credguard_notifier_dropped_total",
			Help: "Total number of alerts dropped because a notifier queue was full",
		},
		[]string{"notifier"},
	)

	DetectionIncidents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credguard_detection_incidents_total",
			Help: "Total number of incidents returned by on-demand detection",
		},
		[]string{"status"},
	)

	// Event Store Metrics
	EventStoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "credguard_event_store_query_duration_seconds",
			Help:    "Duration of event store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	EventStoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credguard_event_store_query_errors_total",
			Help: "Total number of event store query errors",
		},
		[]string{"operation"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "credguard_websocket_connections",
			Help: "Current number of websocket subscriber connections",
		},
	)

	WSGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "credguard_websocket_groups",
			Help: "Current number of tenant groups with at least one subscriber",
		},
	)

	WSPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credguard_websocket_publish_failures_total",
			Help: "Total number of per-connection alert delivery failures",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Ingestion Metrics
	LoginEventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credguard_login_events_ingested_total",
			Help: "Total number of login events ingested",
		},
		[]string{"success"},
	)

	GeoIPLookupFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credguard_geoip_lookup_failures_total",
			Help: "Total number of failed GeoIP lookups by database",
		},
		[]string{"database"},
	)
)

// RecordMonitorCycle records the outcome of one monitor poll cycle.
func RecordMonitorCycle(duration time.Duration, eventsScanned int, err error) {
	MonitorCycleDuration.Observe(duration.Seconds())
	if err != nil {
		MonitorCycles.WithLabelValues("error").Inc()
		MonitorCycleErrors.Inc()
		return
	}
	MonitorCycles.WithLabelValues("success").Inc()
	MonitorEventsScanned.Add(float64(eventsScanned))
}

// RecordEventStoreQuery records an event store query metric
func RecordEventStoreQuery(operation string, duration time.Duration, err error) {
	EventStoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		EventStoreQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordLoginEventIngested counts an ingested login event.
func RecordLoginEventIngested(success bool) {
	LoginEventsIngested.WithLabelValues(strconv.FormatBool(success)).Inc()
}
