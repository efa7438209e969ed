// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package chat

import (
	"context"
	"time"

	"github.com/tomtom215/socialrelay/internal/cache"
	"github.com/tomtom215/socialrelay/internal/config"
	"github.com/tomtom215/socialrelay/internal/eventprocessor"
	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/models"
	"github.com/tomtom215/socialrelay/internal/websocket"
)

// Store is the persistence the engine needs. *store.Store implements it.
type Store interface {
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	CreateOrGetConversation(ctx context.Context, a, b string) (*models.Conversation, bool, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, msg *models.Message) (*models.Conversation, error)
	ListMessages(ctx context.Context, convID string, offset, limit int) ([]models.Message, error)
	GetMessages(ctx context.Context, ids ...string) (map[string]models.Message, error)
	MarkMessageRead(ctx context.Context, convID, msgID, reader string, at time.Time) (bool, error)
	MarkConversationRead(ctx context.Context, convID, reader string, at time.Time) (int, error)
	ReconcileUnread(ctx context.Context, convID, userID string) (int, error)
	UserSummaries(ctx context.Context, ids ...string) (map[string]models.UserSummary, error)
}

// Router delivers events to rooms. *websocket.Hub implements it.
type Router interface {
	Deliver(room string, evt websocket.Event) int
	DeliverExcept(room string, evt websocket.Event, exclude uint64) int
}

// Config holds engine settings.
type Config struct {
	PageSize         int
	MaxContentLength int
	StoreTimeout     time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		PageSize:         50,
		MaxContentLength: 5000,
		StoreTimeout:     5 * time.Second,
	}
}

// ConfigFromConfig extracts engine settings from the service configuration.
func ConfigFromConfig(cfg *config.Config) Config {
	c := DefaultConfig()
	if cfg.Chat.PageSize > 0 {
		c.PageSize = cfg.Chat.PageSize
	}
	if cfg.Chat.MaxContentLength > 0 {
		c.MaxContentLength = cfg.Chat.MaxContentLength
	}
	if cfg.Store.Timeout > 0 {
		c.StoreTimeout = cfg.Store.Timeout
	}
	return c
}

const (
	pingedCapacity = 10000
	pingedTTL      = 10 * time.Minute
)

// Engine implements conversations, messages and read state.
type Engine struct {
	store   Store
	router  Router
	pub     eventprocessor.Publisher
	breaker *eventprocessor.Breaker
	cfg     Config
	now     func() time.Time

	// pinged remembers message/participant pairs already pinged so a
	// retried or redelivered effect does not ping them again.
	pinged *cache.LRU[string, struct{}]
}

// NewEngine creates a chat engine. Background effects are published on pub
// and handled once RegisterHandlers has wired them to a processor.
func NewEngine(store Store, router Router, pub eventprocessor.Publisher, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.MaxContentLength <= 0 {
		cfg.MaxContentLength = def.MaxContentLength
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = def.StoreTimeout
	}
	return &Engine{
		store:   store,
		router:  router,
		pub:     pub,
		breaker: eventprocessor.NewCircuitBreaker(eventprocessor.DefaultCircuitBreakerConfig("chat-effects")),
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
		pinged:  cache.New[string, struct{}](pingedCapacity, pingedTTL),
	}
}

// WithBreaker replaces the circuit breaker guarding background store access.
func (e *Engine) WithBreaker(cb *eventprocessor.Breaker) *Engine {
	e.breaker = cb
	return e
}

func (e *Engine) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.cfg.StoreTimeout)
}

// summaries resolves sender and participant summaries. Enrichment is
// cosmetic, so a failed lookup falls back to bare ids.
func (e *Engine) summaries(ctx context.Context, ids ...string) map[string]models.UserSummary {
	out, err := e.store.UserSummaries(ctx, ids...)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("user enrichment failed")
		out = make(map[string]models.UserSummary, len(ids))
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = models.UnknownUser(id)
		}
	}
	return out
}
