// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package models

import (
	"slices"
	"time"
)

// ContentType classifies message content.
type ContentType string

// Message content types. Image and video messages carry a media URL produced
// by the external upload collaborator as their content.
const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	switch t {
	case ContentText, ContentImage, ContentVideo:
		return true
	}
	return false
}

// IsMedia reports whether the content is a media reference.
func (t ContentType) IsMedia() bool {
	return t == ContentImage || t == ContentVideo
}

// Conversation is a two-party chat thread.
type Conversation struct {
	ID           string         `json:"id"`
	Participants []string       `json:"participants"`
	LastMessage  string         `json:"lastMessage,omitempty"`
	UnreadCount  map[string]int `json:"unreadCount"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// HasParticipant reports whether userID takes part in the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	return slices.Contains(c.Participants, userID)
}

// Unread returns the unread counter of userID. A missing key reads as zero.
func (c *Conversation) Unread(userID string) int {
	if c.UnreadCount == nil {
		return 0
	}
	return c.UnreadCount[userID]
}

// SetUnread stores a counter for userID, clamped at zero.
func (c *Conversation) SetUnread(userID string, n int) {
	if c.UnreadCount == nil {
		c.UnreadCount = make(map[string]int, len(c.Participants))
	}
	c.UnreadCount[userID] = max(n, 0)
}

// ReadReceipt records that a user has seen a message.
type ReadReceipt struct {
	UserID string    `json:"userId"`
	ReadAt time.Time `json:"readAt"`
}

// Message is a single chat message. Messages are immutable except for their
// read receipts.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversationId"`
	Sender         string        `json:"sender"`
	Content        string        `json:"content"`
	Type           ContentType   `json:"messageType"`
	ReadBy         []ReadReceipt `json:"readBy"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// ReadByUser reports whether userID already has a receipt on the message.
func (m *Message) ReadByUser(userID string) bool {
	return slices.ContainsFunc(m.ReadBy, func(r ReadReceipt) bool {
		return r.UserID == userID
	})
}

// AddReceipt appends a receipt for userID unless one exists. It reports
// whether a receipt was added.
func (m *Message) AddReceipt(userID string, at time.Time) bool {
	if m.ReadByUser(userID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, ReadReceipt{UserID: userID, ReadAt: at})
	return true
}

// UnreadFor reports whether the message counts towards userID's unread total.
func (m *Message) UnreadFor(userID string) bool {
	return m.Sender != userID && !m.ReadByUser(userID)
}

// MessageView is a message with its sender expanded.
type MessageView struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversationId"`
	Sender         UserSummary   `json:"sender"`
	Content        string        `json:"content"`
	Type           ContentType   `json:"messageType"`
	ReadBy         []ReadReceipt `json:"readBy"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// NewMessageView builds the client shape of m.
func NewMessageView(m *Message, sender UserSummary) MessageView {
	readBy := m.ReadBy
	if readBy == nil {
		readBy = []ReadReceipt{}
	}
	return MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         sender,
		Content:        m.Content,
		Type:           m.Type,
		ReadBy:         readBy,
		CreatedAt:      m.CreatedAt,
	}
}

// ConversationView is a conversation with participants and the last message
// expanded.
type ConversationView struct {
	ID           string         `json:"id"`
	Participants []UserSummary  `json:"participants"`
	LastMessage  *MessageView   `json:"lastMessage,omitempty"`
	UnreadCount  map[string]int `json:"unreadCount"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}
