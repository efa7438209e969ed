// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package websocket

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB

	defaultSendBuffer = 256
)

// clientIDCounter hands out monotonically increasing ids so clients sort in
// connection order. Zero is never assigned.
var clientIDCounter atomic.Uint64

// Handler processes inbound client events. It runs on the client's read
// goroutine, so a slow handler only delays that client.
type Handler interface {
	HandleEvent(ctx context.Context, c *Client, evt InboundEvent)
}

// ClientOptions configures a client.
type ClientOptions struct {
	// SendBuffer is the outbound queue length. A client whose queue is full
	// when a room delivery arrives is disconnected.
	SendBuffer int

	// EventsPerSecond and EventBurst limit inbound events. Zero disables
	// the limit.
	EventsPerSecond float64
	EventBurst      int
}

// Client is one authenticated WebSocket connection.
type Client struct {
	id      uint64
	userID  string
	hub     *Hub
	conn    *websocket.Conn
	send    chan Event
	handler Handler
	limiter *rate.Limiter

	// rooms is guarded by hub.mu.
	rooms map[string]struct{}
}

// NewClient creates a client for an upgraded connection of userID.
func NewClient(hub *Hub, conn *websocket.Conn, userID string, handler Handler, opts ClientOptions) *Client {
	buffer := opts.SendBuffer
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}

	var limiter *rate.Limiter
	if opts.EventsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.EventsPerSecond), max(opts.EventBurst, 1))
	}

	return &Client{
		id:      clientIDCounter.Add(1),
		userID:  userID,
		hub:     hub,
		conn:    conn,
		send:    make(chan Event, buffer),
		handler: handler,
		limiter: limiter,
		rooms:   make(map[string]struct{}),
	}
}

// ID returns the connection id.
func (c *Client) ID() uint64 {
	return c.id
}

// UserID returns the authenticated user of the connection.
func (c *Client) UserID() string {
	return c.userID
}

// Start registers the client with its hub and starts the read and write
// pumps. ctx carries request-scoped values only; the pumps stop when the
// connection closes.
func (c *Client) Start(ctx context.Context) error {
	if err := c.hub.Register(c); err != nil {
		return err
	}
	ctx = logging.ContextWithUserID(context.WithoutCancel(ctx), c.userID)
	go c.writePump()
	go c.readPump(ctx)
	return nil
}

// Reply queues evt for this connection only.
func (c *Client) Reply(evt Event) bool {
	return c.hub.Send(c, evt)
}

// ReplyError queues an error event naming the inbound event that failed.
func (c *Client) ReplyError(event, message string) bool {
	return c.Reply(NewErrorEvent(event, message))
}

// readPump decodes inbound events and hands them to the handler.
func (c *Client) readPump(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Ctx(ctx).Warn().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close error")
			}
			return
		}

		var evt InboundEvent
		if err := json.Unmarshal(data, &evt); err != nil || evt.Type == "" {
			c.ReplyError("", "invalid event payload")
			continue
		}

		if c.limiter != nil && !c.limiter.Allow() {
			metrics.WSEventsDropped.WithLabelValues("rate_limited").Inc()
			c.ReplyError(evt.Type, "rate limit exceeded")
			continue
		}

		c.handler.HandleEvent(logging.ContextWithNewCorrelationID(ctx), c, evt)
	}
}

// writePump serializes queued events onto the connection and keeps it alive
// with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload, err := json.Marshal(evt)
			if err != nil {
				logging.Error().Err(err).Str("event", evt.Type).Msg("failed to marshal websocket event")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("failed to write websocket event")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
