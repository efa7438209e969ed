// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package api

import (
	"net/http"
	"strings"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/websocket"
)

func (h *Handler) upgrader() gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkWebSocketOrigin,
	}
}

func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if h.middleware.allowsOrigin(origin) {
		return true
	}
	logging.Ctx(r.Context()).Warn().
		Str("origin", sanitizeLogValue(origin)).
		Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// WebSocket authenticates the caller and upgrades the connection. The token
// travels in the Authorization header or the token query parameter, since
// browsers cannot set headers on WebSocket handshakes. Authentication
// happens before the upgrade so a bad token gets a regular 401 envelope.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	id, err := h.auth.Authenticate(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if h.users != nil {
		if err := h.users.EnsureUser(r.Context(), id.User()); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, id.UserID, h.dispatcher, websocket.ClientOptions{
		SendBuffer:      h.cfg.WebSocket.SendBuffer,
		EventsPerSecond: h.cfg.WebSocket.EventsPerSecond,
		EventBurst:      h.cfg.WebSocket.EventBurst,
	})
	if err := client.Start(logging.ContextWithUserID(r.Context(), id.UserID)); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket client rejected")
		_ = conn.WriteControl(gorillaws.CloseMessage,
			gorillaws.FormatCloseMessage(gorillaws.CloseTryAgainLater, "shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

// sanitizeLogValue strips control characters and bounds the length of
// caller-supplied values before they reach the logs.
func sanitizeLogValue(s string) string {
	const maxLen = 200
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}
