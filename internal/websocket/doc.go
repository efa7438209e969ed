// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

/*
Package websocket keeps the live client connections and routes events to
rooms.

Key Components:

  - Hub: connection registry and room router. Rooms are created on first
    join and removed when their last member leaves.
  - Client: one authenticated connection with a read and a write goroutine.
  - Dispatcher: turns inbound client events into room changes and chat
    engine calls.

Rooms:

	user_<userId>                  personal room, joined on connect
	notifications_<userId>         new_notification events
	conversation_<conversationId>  new_message and message_read events
	post_<postId>                  post_like_update, post_comment_update,
	                               post_bookmark_update

Room names never leave the server; clients send bare ids.

Wire Format:

Every frame is a JSON object {"type": ..., "data": ...}. Failures of inbound
events are answered with {"type": "error", "data": {"message": ..., "event": ...}}.

Delivery is best effort. Clients that cannot keep up are disconnected rather
than buffered without bound, and nothing is queued for offline users.

Usage Example:

	hub := websocket.NewHub()
	dispatcher := websocket.NewDispatcher(hub, chatEngine)

	client := websocket.NewClient(hub, conn, identity.UserID, dispatcher, opts)
	if err := client.Start(r.Context()); err != nil {
	    conn.Close()
	}

	hub.Deliver(websocket.PostRoom(postID), websocket.Event{Type: websocket.EventPostLikeUpdate, Data: update})
*/
package websocket
