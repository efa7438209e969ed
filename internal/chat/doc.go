// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

/*
Package chat implements two-party conversations, messages and read state.

Engine is called from two places: the REST handlers in internal/api and the
socket dispatcher in internal/websocket (through websocket.ChatService).

# Unread counters

Each conversation keeps one unread counter per participant. The counter is
a cache of "messages not sent by me without my receipt":

  - SendMessage does not touch it. A background effect recounts the other
    participants' counters and pings their personal rooms.
  - MarkRead decrements it, never below zero, only when a receipt is new.
  - ListMessages marks the whole conversation read and resets the counter
    to zero. This is the authoritative reconciliation.

# Background effects

SendMessage and QueueMarkRead publish on an eventprocessor.Publisher. The
handlers registered by RegisterHandlers run on the processor's router,
guarded by a circuit breaker. Their failures are logged and never reach the
caller of the primary operation.
*/
package chat
