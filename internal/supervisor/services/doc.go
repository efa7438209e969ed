// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

/*
Package services adapts long-running components to suture.Service.

  - HTTPServerService: the HTTP server, api layer
  - HubService: the WebSocket connection registry, messaging layer
  - BadgerGCService: periodic value log GC, data layer

The event processor implements suture.Service itself and is added to the
messaging layer directly.

Each wrapper takes a small interface instead of the concrete type so this
package does not import the packages it supervises.
*/
package services
