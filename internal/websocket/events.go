// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package websocket

import (
	"strings"

	"github.com/goccy/go-json"
)

// Inbound event types sent by clients.
const (
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventJoinPost          = "join_post"
	EventLeavePost         = "leave_post"
	EventJoinNotifications = "join_notifications"
	EventSendMessage       = "send_message"
	EventMessageRead       = "message_read"
	EventPing              = "ping"
)

// Outbound event types pushed to clients. EventMessageRead is used in both
// directions.
const (
	EventNewMessage         = "new_message"
	EventUnreadMessage      = "unread_message"
	EventPostLikeUpdate     = "post_like_update"
	EventPostCommentUpdate  = "post_comment_update"
	EventPostBookmarkUpdate = "post_bookmark_update"
	EventNewNotification    = "new_notification"
	EventError              = "error"
	EventPong               = "pong"
)

// Event is an outbound message.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// InboundEvent is a message received from a client. Data is decoded by the
// handler of the event type.
type InboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ErrorData is the payload of an error event. Event names the inbound event
// that failed, when there was one.
type ErrorData struct {
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}

// NewErrorEvent builds an error event for the failed inbound event type.
func NewErrorEvent(event, message string) Event {
	return Event{Type: EventError, Data: ErrorData{Message: message, Event: event}}
}

// ConversationRef is the payload of join_conversation and leave_conversation.
type ConversationRef struct {
	ConversationID string `json:"conversationId"`
}

// PostRoomRef is the payload of join_post and leave_post.
type PostRoomRef struct {
	PostID string `json:"postId"`
}

// SendMessageData is the payload of send_message.
type SendMessageData struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
	Type           string `json:"type,omitempty"`
}

// MessageReadData is the inbound payload of message_read.
type MessageReadData struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}

// MessageReadUpdate is the outbound payload of message_read.
type MessageReadUpdate struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

// UnreadPing is the payload of unread_message.
type UnreadPing struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

// decodeRoomID reads a room identifier from data. Clients may send the bare
// id as a JSON string or an object carrying it under field.
func decodeRoomID(data json.RawMessage, field string) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		id = strings.TrimSpace(id)
		return id, id != ""
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", false
	}
	id, _ = obj[field].(string)
	id = strings.TrimSpace(id)
	return id, id != ""
}
