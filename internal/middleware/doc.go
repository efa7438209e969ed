// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

/*
Package middleware provides the chi-compatible HTTP middleware that is not
tied to the API handlers: request id propagation and Prometheus request
instrumentation.

Both have the func(http.Handler) http.Handler shape and are installed by
internal/api:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)

RequestID must run first so every later log line carries request_id and
correlation_id. PrometheusMetrics labels by route pattern, so it has to be
installed on a chi router.
*/
package middleware
