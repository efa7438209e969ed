// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

/*
Package api serves the HTTP surface: REST endpoints for conversations,
notifications, posts and follows, the WebSocket upgrade, health checks and
the Prometheus scrape endpoint.

Every JSON response uses one envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}, "meta": {...}}

Domain errors from internal/models map to statuses in writeDomainError:
validation 400, authentication 401, forbidden 403, not found 404, conflict
409, store and anything unclassified 500. Messages of 500 responses never
carry internal detail.

Routes under /api/v1 (except health and the socket) pass through
auth.Middleware.RequireAuth, which provisions the caller's user record from
the token claims.
*/
package api
