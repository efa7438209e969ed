// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package api

// CreateConversationRequest is the body of POST /chat/conversations.
type CreateConversationRequest struct {
	ParticipantID string `json:"participantId" validate:"notblank,max=128,excludes=:"`
}

// ListMessagesRequest holds the query of GET .../messages.
type ListMessagesRequest struct {
	Page int `json:"page" validate:"min=1,max=100000"`
}

// ListNotificationsRequest holds the query of GET /notifications.
type ListNotificationsRequest struct {
	Limit int `json:"limit" validate:"min=0,max=1000"`
}

// AddCommentRequest is the body of POST /posts/{postID}/comment.
type AddCommentRequest struct {
	Text string `json:"text" validate:"notblank,max=2000"`
}
