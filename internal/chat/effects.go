// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/socialrelay/internal/eventprocessor"
	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/models"
	"github.com/tomtom215/socialrelay/internal/websocket"
)

// Bus topics for chat background effects.
const (
	TopicMessageSent = "chat.message_sent"
	TopicMessageRead = "chat.message_read"
)

// MessageSent is published after a message is persisted and broadcast.
type MessageSent struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	SenderID       string `json:"senderId"`
}

// MessageRead is published when a socket reports a read message.
type MessageRead struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	ReaderID       string `json:"readerId"`
	OriginClientID uint64 `json:"originClientId"`
}

// HandlerRegistry is where background handlers are attached.
// *eventprocessor.Processor implements it.
type HandlerRegistry interface {
	AddHandler(name, topic string, fn eventprocessor.HandlerFunc)
}

// RegisterHandlers attaches the engine's background effects.
func (e *Engine) RegisterHandlers(r HandlerRegistry) {
	r.AddHandler("unread-ping", TopicMessageSent, e.HandleMessageSent)
	r.AddHandler("message-read", TopicMessageRead, e.HandleMessageRead)
}

// HandleMessageSent recounts the unread counter of every participant other
// than the sender and pings their personal rooms. Recounting is idempotent,
// so the handler is safe to retry. A participant is pinged at most once per
// message; a retry only covers the participants that failed before. A
// conversation that vanished in the meantime ends the effect without pings.
func (e *Engine) HandleMessageSent(ctx context.Context, payload []byte) error {
	var evt MessageSent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: decode message sent: %v", models.ErrValidation, err)
	}

	var conv *models.Conversation
	err := eventprocessor.ExecuteWithBreaker(e.breaker, func() error {
		sctx, cancel := e.storeContext(ctx)
		defer cancel()
		var err error
		conv, err = e.store.GetConversation(sctx, evt.ConversationID)
		return err
	})
	if err != nil {
		return err
	}

	var errs []error
	for _, participant := range conv.Participants {
		if participant == evt.SenderID {
			continue
		}
		key := evt.MessageID + "/" + participant
		if _, done := e.pinged.Get(key); done {
			continue
		}
		err := eventprocessor.ExecuteWithBreaker(e.breaker, func() error {
			sctx, cancel := e.storeContext(ctx)
			defer cancel()
			_, err := e.store.ReconcileUnread(sctx, evt.ConversationID, participant)
			return err
		})
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("conversation_id", evt.ConversationID).
				Str("participant", participant).
				Msg("unread recount failed")
			errs = append(errs, err)
			continue
		}

		e.router.Deliver(websocket.PersonalRoom(participant), websocket.Event{
			Type: websocket.EventUnreadMessage,
			Data: websocket.UnreadPing{ConversationID: evt.ConversationID, MessageID: evt.MessageID},
		})
		e.pinged.Add(key, struct{}{})
	}
	return errors.Join(errs...)
}

// HandleMessageRead applies a read reported over a socket.
func (e *Engine) HandleMessageRead(ctx context.Context, payload []byte) error {
	var evt MessageRead
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: decode message read: %v", models.ErrValidation, err)
	}
	ctx = logging.ContextWithUserID(ctx, evt.ReaderID)
	return e.MarkRead(ctx, evt.ReaderID, evt.MessageID, evt.ConversationID, evt.OriginClientID)
}
