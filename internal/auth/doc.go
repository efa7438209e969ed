// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

/*
Package auth verifies the bearer tokens issued by the account service.

Signup, login and password handling live in that service. SocialRelay only
checks HS256 signatures and reads the caller's identity from the claims.

Key Components:

  - JWTManager: token verification (and issuing, for tests and tooling)
  - Middleware: RequireAuth for HTTP routes, Authenticate for the WebSocket
    upgrade
  - Identity: the verified caller, stored in the request context

The first authenticated request of a user creates the user record from the
claims (just-in-time provisioning); later requests refresh the profile fields.

Usage Example:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	mw := auth.NewMiddleware(jwtManager, store, writeError)
	r.With(mw.RequireAuth).Get("/api/v1/notifications", h.ListNotifications)
*/
package auth
