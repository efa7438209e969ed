// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/socialrelay/internal/middleware"
)

// SetupChi builds the HTTP routes.
func (h *Handler) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(h.middleware.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusNotFound, ErrCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeBadRequest, "method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	// The socket authenticates itself so a bad token gets a 401 before the
	// upgrade. Rate limiting applies to handshakes only.
	r.With(h.middleware.RateLimit()).Get("/api/v1/ws", h.WebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.middleware.RateLimit())
		r.Use(chimiddleware.Compress(5, "application/json"))
		r.Use(h.auth.RequireAuth)

		r.Route("/chat/conversations", func(r chi.Router) {
			r.Get("/", h.ListConversations)
			r.Post("/", h.CreateConversation)
			r.Get("/{conversationID}/messages", h.ListMessages)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Put("/read-all", h.MarkAllNotificationsRead)
			r.Put("/{notificationID}/read", h.MarkNotificationRead)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", h.CreatePost)
			r.Get("/{postID}", h.GetPost)
			r.Post("/{postID}/like", h.ToggleLike)
			r.Post("/{postID}/bookmark", h.ToggleBookmark)
			r.Post("/{postID}/comment", h.AddComment)
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Post("/follow", h.Follow)
			r.Post("/unfollow", h.Unfollow)
		})
	})

	return r
}

// AuthErrorWriter renders authentication failures in the response envelope.
// It is passed to auth.NewMiddleware.
func AuthErrorWriter(w http.ResponseWriter, r *http.Request, err error) {
	writeDomainError(w, r, err)
}
