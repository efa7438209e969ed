// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/socialrelay/internal/auth"
	"github.com/tomtom215/socialrelay/internal/chat"
	"github.com/tomtom215/socialrelay/internal/config"
	"github.com/tomtom215/socialrelay/internal/models"
	"github.com/tomtom215/socialrelay/internal/social"
	"github.com/tomtom215/socialrelay/internal/validation"
	"github.com/tomtom215/socialrelay/internal/websocket"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 * 1024

// ChatService is the chat engine as used by the HTTP and socket surfaces.
// *chat.Engine implements it.
type ChatService interface {
	websocket.ChatService
	CreateConversation(ctx context.Context, requesterID, otherID string) (*models.ConversationView, error)
	ListConversations(ctx context.Context, userID string) (*chat.ConversationList, error)
	ListMessages(ctx context.Context, requesterID, conversationID string, page int) (*chat.MessagePage, error)
}

// NotificationService lists and marks notifications. *notify.Fanout
// implements it.
type NotificationService interface {
	List(ctx context.Context, recipient string, limit int) ([]models.NotificationView, error)
	MarkRead(ctx context.Context, recipient, id string) (*models.NotificationView, error)
	MarkAllRead(ctx context.Context, recipient string) (int, error)
}

// SocialService implements post and follow actions. *social.Service
// implements it.
type SocialService interface {
	CreatePost(ctx context.Context, authorID string, req social.CreatePostRequest) (*models.Post, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	ToggleLike(ctx context.Context, userID, postID string) ([]string, error)
	ToggleBookmark(ctx context.Context, userID, postID string) ([]string, error)
	AddComment(ctx context.Context, userID, postID, text string) (*models.CommentView, error)
	Follow(ctx context.Context, userID, targetID string) error
	Unfollow(ctx context.Context, userID, targetID string) error
}

// HealthChecker reports store health. *store.Store implements it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators of Handler.
type Dependencies struct {
	Config        *config.Config
	Store         HealthChecker
	Hub           *websocket.Hub
	Chat          ChatService
	Notifications NotificationService
	Social        SocialService
	Auth          *auth.Middleware
	Users         auth.UserProvisioner
}

// Handler serves the HTTP API.
type Handler struct {
	cfg           *config.Config
	store         HealthChecker
	hub           *websocket.Hub
	dispatcher    *websocket.Dispatcher
	chat          ChatService
	notifications NotificationService
	social        SocialService
	auth          *auth.Middleware
	users         auth.UserProvisioner
	middleware    *ChiMiddleware
	startTime     time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		cfg:           deps.Config,
		store:         deps.Store,
		hub:           deps.Hub,
		dispatcher:    websocket.NewDispatcher(deps.Hub, deps.Chat),
		chat:          deps.Chat,
		notifications: deps.Notifications,
		social:        deps.Social,
		auth:          deps.Auth,
		users:         deps.Users,
		middleware:    NewChiMiddleware(ChiMiddlewareConfigFromSecurity(&deps.Config.Security)),
		startTime:     time.Now(),
	}
}

// identity returns the caller stored by auth.RequireAuth. Routes without
// the middleware have no identity, which is a wiring bug.
func identity(r *http.Request) (auth.Identity, error) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return auth.Identity{}, fmt.Errorf("%w: no identity in request context", models.ErrAuthentication)
	}
	return id, nil
}

// decodeJSON decodes a bounded JSON body into dst and validates it.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", models.ErrValidation, err)
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("%w: request body too large", models.ErrValidation)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", models.ErrValidation)
	}
	return validation.Struct(dst)
}

// intQuery parses an optional integer query parameter.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", models.ErrValidation, name)
	}
	return v, nil
}

// pathParam returns a required chi URL parameter.
func pathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", models.ErrValidation, name)
	}
	return v, nil
}
