// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/socialrelay/internal/logging"
)

const readinessTimeout = 2 * time.Second

// HealthStatus is the payload of the health endpoints.
type HealthStatus struct {
	Status      string  `json:"status"`
	Store       string  `json:"store,omitempty"`
	Connections int     `json:"connections"`
	Rooms       int     `json:"rooms"`
	Uptime      float64 `json:"uptime_seconds"`
}

// HealthLive answers 200 while the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, HealthStatus{
		Status:      "alive",
		Connections: h.hub.ClientCount(),
		Rooms:       h.hub.RoomCount(),
		Uptime:      time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 200 when the store accepts reads and 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
		NewResponseWriter(w, r).ServiceUnavailable("store unavailable")
		return
	}
	WriteSuccess(w, r, HealthStatus{
		Status:      "ready",
		Store:       "ok",
		Connections: h.hub.ClientCount(),
		Rooms:       h.hub.RoomCount(),
		Uptime:      time.Since(h.startTime).Seconds(),
	})
}
