// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package models

import "time"

// NotificationKind classifies a notification.
type NotificationKind string

// Notification kinds.
const (
	KindFollow  NotificationKind = "follow"
	KindLike    NotificationKind = "like"
	KindComment NotificationKind = "comment"
	KindMention NotificationKind = "mention"
)

// Valid reports whether k is a known notification kind.
func (k NotificationKind) Valid() bool {
	switch k {
	case KindFollow, KindLike, KindComment, KindMention:
		return true
	}
	return false
}

// Notification is a persisted notice about a social interaction.
type Notification struct {
	ID        string           `json:"id"`
	Recipient string           `json:"recipient"`
	Sender    string           `json:"sender"`
	Kind      NotificationKind `json:"type"`
	Message   string           `json:"message"`
	PostID    string           `json:"post,omitempty"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}

// PostRef is the part of a post shown next to a notification.
type PostRef struct {
	ID       string `json:"id"`
	MediaURL string `json:"mediaUrl,omitempty"`
}

// NotificationView is a notification with the sender and post expanded.
type NotificationView struct {
	ID        string           `json:"id"`
	Recipient string           `json:"recipient"`
	Sender    UserSummary      `json:"sender"`
	Kind      NotificationKind `json:"type"`
	Message   string           `json:"message"`
	Post      *PostRef         `json:"post,omitempty"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NewNotificationView builds the client shape of n. post may be nil.
func NewNotificationView(n *Notification, sender UserSummary, post *PostRef) NotificationView {
	return NotificationView{
		ID:        n.ID,
		Recipient: n.Recipient,
		Sender:    sender,
		Kind:      n.Kind,
		Message:   n.Message,
		Post:      post,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
