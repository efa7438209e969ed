// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

/*
Package models defines the data structures shared across SocialRelay.

The records persisted by the store and the enriched views sent to clients both
live here, so the store, the engines and the HTTP layer agree on one JSON shape.

Key Components:

  - User and UserSummary: identity records provisioned from token claims
  - Conversation and Message: two-party chat state with read receipts
  - Notification: social-interaction notices addressed to one recipient
  - Post and Comment: the social collaborators that trigger notifications

Views:

  - MessageView, ConversationView and NotificationView attach UserSummary
    records in place of bare ids before anything is sent to a client.

Errors:

The sentinel errors in errors.go are the only error classes callers should
branch on. Wrap them with fmt.Errorf("%w: ...") and test with errors.Is.
*/
package models
