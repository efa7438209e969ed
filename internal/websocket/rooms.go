// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package websocket

// Room names. Every kind has its own prefix so a client-supplied id can
// never name a room of another kind.

// PersonalRoom is joined automatically by every connection of userID.
func PersonalRoom(userID string) string { return "user_" + userID }

// NotificationRoom receives new_notification events for userID.
func NotificationRoom(userID string) string { return "notifications_" + userID }

// ConversationRoom receives new_message and message_read events.
func ConversationRoom(conversationID string) string { return "conversation_" + conversationID }

// PostRoom receives post_* updates for one post.
func PostRoom(postID string) string { return "post_" + postID }
