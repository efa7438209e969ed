// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package websocket

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during
	// shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// statsInterval is how often RunWithContext logs connection statistics.
const statsInterval = time.Minute

// ErrHubClosed is returned by Register after the hub has shut down.
var ErrHubClosed = errors.New("websocket hub is closed")

// Hub is the connection registry and room router.
//
// Every mutation takes the write lock; Deliver takes the read lock. A
// client's send channel is closed only under the write lock, so Deliver can
// never send on a closed channel, and once Unregister returns no delivery
// reaches that client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	closed  bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// Register adds c to the hub and joins its personal room.
func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	h.clients[c] = struct{}{}
	h.joinLocked(c, PersonalRoom(c.userID))
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnectionsActive.Set(float64(total))
	logging.Debug().
		Uint64("client_id", c.id).
		Str("user_id", c.userID).
		Int("total_clients", total).
		Msg("websocket client connected")
	return nil
}

// Unregister removes c from every room and closes its send channel. It is
// safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	removed := h.removeLocked(c)
	total := len(h.clients)
	h.mu.Unlock()

	if removed {
		metrics.WSConnectionsActive.Set(float64(total))
		logging.Debug().
			Uint64("client_id", c.id).
			Str("user_id", c.userID).
			Int("total_clients", total).
			Msg("websocket client disconnected")
	}
}

// Join adds c to room. Rooms are created on first join. It reports false
// when c is not registered.
func (h *Hub) Join(c *Client, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	h.joinLocked(c, room)
	return true
}

// Leave removes c from room. Empty rooms are deleted.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

// Deliver sends evt to every current member of room and returns how many
// accepted it. Delivery is best effort: members whose send buffer is full
// are disconnected.
func (h *Hub) Deliver(room string, evt Event) int {
	return h.deliver(room, evt, 0)
}

// DeliverExcept is Deliver without the client whose id is exclude.
func (h *Hub) DeliverExcept(room string, evt Event, exclude uint64) int {
	return h.deliver(room, evt, exclude)
}

func (h *Hub) deliver(room string, evt Event, exclude uint64) int {
	h.mu.RLock()
	members := sortedClients(h.rooms[room])
	delivered := 0
	var slow []*Client
	for _, c := range members {
		if exclude != 0 && c.id == exclude {
			continue
		}
		select {
		case c.send <- evt:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if delivered > 0 {
		metrics.WSEventsDelivered.WithLabelValues(evt.Type).Add(float64(delivered))
	}
	if len(slow) > 0 {
		h.dropSlow(slow, evt.Type)
	}
	return delivered
}

// Send queues evt for c alone. It reports false when c is gone or its
// buffer is full; a full buffer does not disconnect the client.
func (h *Hub) Send(c *Client, evt Event) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- evt:
		return true
	default:
		metrics.WSEventsDropped.WithLabelValues("buffer_full").Inc()
		return false
	}
}

func (h *Hub) dropSlow(slow []*Client, eventType string) {
	h.mu.Lock()
	dropped := 0
	for _, c := range slow {
		if h.removeLocked(c) {
			dropped++
		}
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSEventsDropped.WithLabelValues("slow_consumer").Add(float64(len(slow)))
	if dropped > 0 {
		metrics.WSConnectionsActive.Set(float64(total))
		logging.Warn().
			Int("clients_dropped", dropped).
			Str("event", eventType).
			Msg("dropped slow websocket clients")
	}
}

// RunWithContext runs the hub until ctx is canceled. On cancel every client
// is closed and ctx.Err() is returned, so a supervisor can restart the hub
// without leaving orphaned connections.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.mu.Lock()
	h.closed = false
	h.mu.Unlock()

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case <-ticker.C:
			logging.Debug().
				Int("clients", h.ClientCount()).
				Int("rooms", h.RoomCount()).
				Msg("websocket hub stats")
		}
	}
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	closed := h.closeAllClients()
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", closed).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// closeAllClients closes every client in id order and refuses new ones
// until the hub runs again.
func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	clients := sortedClients(h.clients)
	for _, c := range clients {
		h.removeLocked(c)
	}
	metrics.WSConnectionsActive.Set(0)
	return len(clients)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of non-empty rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// RoomSize returns the number of members of room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// InRoom reports whether c is a member of room.
func (h *Hub) InRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[room][c]
	return ok
}

func (h *Hub) joinLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
		metrics.WSRoomsActive.Set(float64(len(h.rooms)))
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	delete(c.rooms, room)
	if len(members) == 0 {
		delete(h.rooms, room)
		metrics.WSRoomsActive.Set(float64(len(h.rooms)))
	}
}

// removeLocked detaches c from the hub and closes its send channel. It
// reports false when c was already gone.
func (h *Hub) removeLocked(c *Client) bool {
	if _, ok := h.clients[c]; !ok {
		return false
	}
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	delete(h.clients, c)
	close(c.send)
	return true
}

// sortedClients returns the members of set in id order so deliveries and
// shutdowns happen in a reproducible order.
func sortedClients(set map[*Client]struct{}) []*Client {
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Client) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return out
}
