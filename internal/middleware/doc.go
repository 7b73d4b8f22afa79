// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

/*
Package middleware provides chi-compatible HTTP middleware.

  - RequestID: X-Request-ID propagation and logging context
  - PrometheusMetrics: request counters and latency histograms labelled by
    chi route pattern; websocket hijacks pass through
  - Compression: gzip for clients that send Accept-Encoding: gzip

Every middleware has the func(http.Handler) http.Handler shape:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.With(middleware.Compression).Post("/detect-cred-stuff", h.DetectCredStuff)

Handlers read the request ID with GetRequestID or log through
logging.Ctx(r.Context()), which already carries it.
*/
package middleware
