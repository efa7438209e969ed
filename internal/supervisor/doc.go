// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

/*
Package supervisor runs the long-lived components of the server under a
thejerf/suture v4 tree.

Layers start in order (data, messaging, api) and stop in reverse, so the
HTTP server stops accepting requests before the hub closes connections and
the event processor drains.

Usage:

	tree := supervisor.NewSupervisorTree(logging.NewComponentSlogLogger("supervisor"),
	    supervisor.TreeConfigFromConfig(cfg))
	tree.AddDataService(services.NewBadgerGCService(st, cfg.Store.GCInterval))
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddMessagingService(processor)
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	errCh := tree.ServeBackground(ctx)

Failing services restart with suture's backoff. Supervisor events are logged
through sutureslog over the zerolog slog adapter.
*/
package supervisor
