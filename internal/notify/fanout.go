// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

// Package notify persists activity notifications and pushes them to the
// recipient's notification room.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/tomtom215/socialrelay/internal/config"
	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/metrics"
	"github.com/tomtom215/socialrelay/internal/models"
	"github.com/tomtom215/socialrelay/internal/websocket"
)

// DefaultListLimit is both the default and the maximum page of List.
const DefaultListLimit = 50

// Store is the persistence Fanout needs. *store.Store implements it.
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, recipient string, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, recipient, id string) (*models.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, recipient string) (int, error)
	UserSummaries(ctx context.Context, ids ...string) (map[string]models.UserSummary, error)
	PostRefs(ctx context.Context, ids ...string) (map[string]models.PostRef, error)
}

// Router delivers events to rooms. *websocket.Hub implements it.
type Router interface {
	Deliver(room string, evt websocket.Event) int
}

// Config holds fan-out settings.
type Config struct {
	ListLimit    int
	StoreTimeout time.Duration
}

// ConfigFromConfig extracts fan-out settings from the service configuration.
func ConfigFromConfig(cfg *config.Config) Config {
	return Config{
		ListLimit:    cfg.Notifications.ListLimit,
		StoreTimeout: cfg.Store.Timeout,
	}
}

// Fanout creates, lists and marks notifications.
type Fanout struct {
	store  Store
	router Router
	cfg    Config
	now    func() time.Time
}

// NewFanout creates a Fanout.
func NewFanout(store Store, router Router, cfg Config) *Fanout {
	if cfg.ListLimit <= 0 || cfg.ListLimit > DefaultListLimit {
		cfg.ListLimit = DefaultListLimit
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	return &Fanout{
		store:  store,
		router: router,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Notify persists a notification for recipient and then pushes it to
// notifications_<recipient>. Acting on your own content notifies nobody:
// recipient == actor returns (nil, nil). postID may be empty.
func (f *Fanout) Notify(ctx context.Context, recipient, actor string, kind models.NotificationKind, message, postID string) (*models.NotificationView, error) {
	if recipient == actor {
		return nil, nil
	}
	message = strings.TrimSpace(message)
	switch {
	case recipient == "" || actor == "":
		return nil, fmt.Errorf("%w: recipient and sender are required", models.ErrValidation)
	case !kind.Valid():
		return nil, fmt.Errorf("%w: unknown notification type %q", models.ErrValidation, kind)
	case message == "":
		return nil, fmt.Errorf("%w: message is required", models.ErrValidation)
	}

	n := &models.Notification{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Sender:    actor,
		Kind:      kind,
		Message:   message,
		PostID:    postID,
		CreatedAt: f.now(),
	}

	sctx, cancel := context.WithTimeout(ctx, f.cfg.StoreTimeout)
	defer cancel()
	if err := f.store.CreateNotification(sctx, n); err != nil {
		return nil, err
	}
	metrics.NotificationsCreated.WithLabelValues(string(kind)).Inc()

	views := f.enrich(sctx, []models.Notification{*n})
	f.router.Deliver(websocket.NotificationRoom(recipient), websocket.Event{
		Type: websocket.EventNewNotification,
		Data: views[0],
	})
	return &views[0], nil
}

// List returns the newest notifications of recipient. limit is clamped to
// (0, DefaultListLimit]; zero or negative means the configured default.
func (f *Fanout) List(ctx context.Context, recipient string, limit int) ([]models.NotificationView, error) {
	if limit <= 0 || limit > f.cfg.ListLimit {
		limit = f.cfg.ListLimit
	}

	sctx, cancel := context.WithTimeout(ctx, f.cfg.StoreTimeout)
	defer cancel()
	list, err := f.store.ListNotifications(sctx, recipient, limit)
	if err != nil {
		return nil, err
	}
	return f.enrich(sctx, list), nil
}

// MarkRead marks one notification of recipient as read. It is idempotent;
// a notification owned by someone else is reported as not found.
func (f *Fanout) MarkRead(ctx context.Context, recipient, id string) (*models.NotificationView, error) {
	sctx, cancel := context.WithTimeout(ctx, f.cfg.StoreTimeout)
	defer cancel()
	n, err := f.store.MarkNotificationRead(sctx, recipient, id)
	if err != nil {
		return nil, err
	}
	views := f.enrich(sctx, []models.Notification{*n})
	return &views[0], nil
}

// MarkAllRead marks every notification of recipient as read and returns how
// many changed.
func (f *Fanout) MarkAllRead(ctx context.Context, recipient string) (int, error) {
	sctx, cancel := context.WithTimeout(ctx, f.cfg.StoreTimeout)
	defer cancel()
	return f.store.MarkAllNotificationsRead(sctx, recipient)
}

// enrich attaches sender summaries and post references. Lookup failures
// degrade to bare ids.
func (f *Fanout) enrich(ctx context.Context, list []models.Notification) []models.NotificationView {
	senderIDs := lo.Uniq(lo.Map(list, func(n models.Notification, _ int) string { return n.Sender }))
	senders, err := f.store.UserSummaries(ctx, senderIDs...)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("notification sender enrichment failed")
		senders = map[string]models.UserSummary{}
	}

	postIDs := lo.Uniq(lo.Compact(lo.Map(list, func(n models.Notification, _ int) string { return n.PostID })))
	posts := map[string]models.PostRef{}
	if len(postIDs) > 0 {
		if posts, err = f.store.PostRefs(ctx, postIDs...); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("notification post enrichment failed")
			posts = map[string]models.PostRef{}
		}
	}

	views := make([]models.NotificationView, len(list))
	for i := range list {
		n := &list[i]
		sender, ok := senders[n.Sender]
		if !ok {
			sender = models.UnknownUser(n.Sender)
		}
		var post *models.PostRef
		if n.PostID != "" {
			ref, ok := posts[n.PostID]
			if !ok {
				ref = models.PostRef{ID: n.PostID}
			}
			post = &ref
		}
		views[i] = models.NewNotificationView(n, sender, post)
	}
	return views
}
