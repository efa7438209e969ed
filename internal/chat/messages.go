// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/tomtom215/socialrelay/internal/eventprocessor"
	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/metrics"
	"github.com/tomtom215/socialrelay/internal/models"
	"github.com/tomtom215/socialrelay/internal/validation"
	"github.com/tomtom215/socialrelay/internal/websocket"
)

type sendRequest struct {
	ConversationID string             `json:"conversationId" validate:"required"`
	Content        string             `json:"content" validate:"notblank"`
	Type           models.ContentType `json:"type" validate:"contenttype"`
}

// MessagePage is one page of a conversation, oldest message first.
type MessagePage struct {
	Messages []models.MessageView `json:"messages"`
	HasMore  bool                 `json:"hasMore"`
}

// SendMessage validates, persists and broadcasts a message. The message and
// the conversation's lastMessage pointer are written in one transaction
// before new_message goes out, so a recipient that refetches the
// conversation sees the message it was just told about. Unread pings to
// the other participants are published as a background effect.
func (e *Engine) SendMessage(ctx context.Context, senderID, conversationID, content string, contentType models.ContentType) (*models.MessageView, error) {
	if contentType == "" {
		contentType = models.ContentText
	}
	req := sendRequest{
		ConversationID: conversationID,
		Content:        strings.TrimSpace(content),
		Type:           contentType,
	}
	if err := e.validateSend(&req); err != nil {
		metrics.ChatSendFailures.WithLabelValues("validation").Inc()
		return nil, err
	}

	msg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: req.ConversationID,
		Sender:         senderID,
		Content:        req.Content,
		Type:           req.Type,
		ReadBy:         []models.ReadReceipt{},
		CreatedAt:      e.now(),
	}

	sctx, cancel := e.storeContext(ctx)
	defer cancel()
	if _, err := e.store.AppendMessage(sctx, msg); err != nil {
		metrics.ChatSendFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	metrics.ChatMessagesSent.WithLabelValues(string(msg.Type)).Inc()

	view := models.NewMessageView(msg, e.summaries(sctx, senderID)[senderID])
	e.router.Deliver(websocket.ConversationRoom(msg.ConversationID), websocket.Event{
		Type: websocket.EventNewMessage,
		Data: view,
	})

	sent := MessageSent{ConversationID: msg.ConversationID, MessageID: msg.ID, SenderID: senderID}
	if err := e.pub.Publish(ctx, TopicMessageSent, sent); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("conversation_id", msg.ConversationID).
			Msg("unread ping not scheduled")
	}
	return &view, nil
}

func (e *Engine) validateSend(req *sendRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	if utf8.RuneCountInString(req.Content) > e.cfg.MaxContentLength {
		return fmt.Errorf("%w: content must be at most %d characters", models.ErrValidation, e.cfg.MaxContentLength)
	}
	if req.Type.IsMedia() {
		return validation.Var("content", req.Content, "url")
	}
	return nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrValidation):
		return "validation"
	default:
		return "store"
	}
}

// MarkRead records that reader has seen a message and, if the receipt is
// new, lowers reader's unread counter and tells the conversation room. The
// connection identified by exclude is skipped; zero excludes nobody.
// Repeated calls and reads of one's own messages change nothing.
func (e *Engine) MarkRead(ctx context.Context, readerID, messageID, conversationID string, exclude uint64) error {
	if messageID == "" || conversationID == "" {
		return fmt.Errorf("%w: messageId and conversationId are required", models.ErrValidation)
	}

	var added bool
	err := eventprocessor.ExecuteWithBreaker(e.breaker, func() error {
		sctx, cancel := e.storeContext(ctx)
		defer cancel()
		var err error
		added, err = e.store.MarkMessageRead(sctx, conversationID, messageID, readerID, e.now())
		return err
	})
	if err != nil || !added {
		return err
	}

	e.router.DeliverExcept(websocket.ConversationRoom(conversationID), websocket.Event{
		Type: websocket.EventMessageRead,
		Data: websocket.MessageReadUpdate{MessageID: messageID, UserID: readerID},
	}, exclude)
	return nil
}

// QueueMarkRead schedules MarkRead as a background effect. Only a failure
// to enqueue is returned.
func (e *Engine) QueueMarkRead(ctx context.Context, readerID, messageID, conversationID string, originClientID uint64) error {
	return e.pub.Publish(ctx, TopicMessageRead, MessageRead{
		ConversationID: conversationID,
		MessageID:      messageID,
		ReaderID:       readerID,
		OriginClientID: originClientID,
	})
}

// ListMessages returns a 1-based page of the conversation, oldest message
// first. Fetching is the authoritative read: every message on the
// conversation not sent by the requester gets a receipt and the requester's
// unread counter is reset. A failure of that reset is logged and does not
// fail the listing.
func (e *Engine) ListMessages(ctx context.Context, requesterID, conversationID string, page int) (*MessagePage, error) {
	if page < 1 {
		page = 1
	}

	sctx, cancel := e.storeContext(ctx)
	defer cancel()

	conv, err := e.store.GetConversation(sctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(requesterID) {
		return nil, fmt.Errorf("%w: conversation %s", models.ErrNotFound, conversationID)
	}

	msgs, err := e.store.ListMessages(sctx, conversationID, (page-1)*e.cfg.PageSize, e.cfg.PageSize)
	if err != nil {
		return nil, err
	}
	hasMore := len(msgs) == e.cfg.PageSize
	slices.Reverse(msgs)

	at := e.now()
	if _, err := e.store.MarkConversationRead(sctx, conversationID, requesterID, at); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("conversation_id", conversationID).
			Msg("read reset on fetch failed")
	} else {
		// Reflect the receipts just written in the returned page.
		for i := range msgs {
			if msgs[i].Sender != requesterID {
				msgs[i].AddReceipt(requesterID, at)
			}
		}
	}

	senders := e.summaries(sctx, lo.Uniq(lo.Map(msgs, func(m models.Message, _ int) string { return m.Sender }))...)
	views := make([]models.MessageView, len(msgs))
	for i := range msgs {
		views[i] = models.NewMessageView(&msgs[i], senders[msgs[i].Sender])
	}
	return &MessagePage{Messages: views, HasMore: hasMore}, nil
}
