// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package websocket

import (
	"context"
	"errors"

	"github.com/goccy/go-json"

	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/models"
)

// ChatService is the part of the chat engine reachable from a socket.
type ChatService interface {
	// SendMessage persists and broadcasts a message.
	SendMessage(ctx context.Context, senderID, conversationID, content string, contentType models.ContentType) (*models.MessageView, error)

	// QueueMarkRead schedules a read receipt. The resulting message_read
	// echo skips the connection identified by originClientID.
	QueueMarkRead(ctx context.Context, readerID, messageID, conversationID string, originClientID uint64) error

	// IsParticipant reports whether userID takes part in the conversation.
	IsParticipant(ctx context.Context, userID, conversationID string) (bool, error)
}

// Dispatcher routes inbound events to room membership changes and the chat
// engine.
type Dispatcher struct {
	hub  *Hub
	chat ChatService
}

// NewDispatcher creates a dispatcher over hub and chat.
func NewDispatcher(hub *Hub, chat ChatService) *Dispatcher {
	return &Dispatcher{hub: hub, chat: chat}
}

// HandleEvent implements Handler.
func (d *Dispatcher) HandleEvent(ctx context.Context, c *Client, evt InboundEvent) {
	switch evt.Type {
	case EventJoinConversation:
		d.joinConversation(ctx, c, evt)
	case EventLeaveConversation:
		if id, ok := decodeRoomID(evt.Data, "conversationId"); ok {
			d.hub.Leave(c, ConversationRoom(id))
		}
	case EventJoinPost:
		id, ok := decodeRoomID(evt.Data, "postId")
		if !ok {
			c.ReplyError(evt.Type, "postId is required")
			return
		}
		d.hub.Join(c, PostRoom(id))
	case EventLeavePost:
		if id, ok := decodeRoomID(evt.Data, "postId"); ok {
			d.hub.Leave(c, PostRoom(id))
		}
	case EventJoinNotifications:
		d.hub.Join(c, NotificationRoom(c.userID))
	case EventSendMessage:
		d.sendMessage(ctx, c, evt)
	case EventMessageRead:
		d.messageRead(ctx, c, evt)
	case EventPing:
		c.Reply(Event{Type: EventPong})
	default:
		c.ReplyError(evt.Type, "unknown event type")
	}
}

func (d *Dispatcher) joinConversation(ctx context.Context, c *Client, evt InboundEvent) {
	id, ok := decodeRoomID(evt.Data, "conversationId")
	if !ok {
		c.ReplyError(evt.Type, "conversationId is required")
		return
	}

	member, err := d.chat.IsParticipant(ctx, c.userID, id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		logging.Ctx(ctx).Error().Err(err).Str("conversation_id", id).Msg("participant check failed")
		c.ReplyError(evt.Type, models.ClientMessage(err))
		return
	}
	if !member {
		c.ReplyError(evt.Type, "conversation not found")
		return
	}
	d.hub.Join(c, ConversationRoom(id))
}

func (d *Dispatcher) sendMessage(ctx context.Context, c *Client, evt InboundEvent) {
	var data SendMessageData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		c.ReplyError(evt.Type, "invalid send_message payload")
		return
	}

	_, err := d.chat.SendMessage(ctx, c.userID, data.ConversationID, data.Content, models.ContentType(data.Type))
	if err != nil {
		// The sender is the only one told; nothing was broadcast.
		logging.Ctx(ctx).Debug().Err(err).Str("conversation_id", data.ConversationID).Msg("send_message rejected")
		c.ReplyError(evt.Type, models.ClientMessage(err))
	}
}

func (d *Dispatcher) messageRead(ctx context.Context, c *Client, evt InboundEvent) {
	var data MessageReadData
	if err := json.Unmarshal(evt.Data, &data); err != nil || data.MessageID == "" || data.ConversationID == "" {
		c.ReplyError(evt.Type, "messageId and conversationId are required")
		return
	}

	if err := d.chat.QueueMarkRead(ctx, c.userID, data.MessageID, data.ConversationID, c.id); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("message_id", data.MessageID).
			Str("conversation_id", data.ConversationID).
			Msg("failed to queue read receipt")
	}
}
