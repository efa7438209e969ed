// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

/*
Package eventprocessor runs post-commit side effects off the request path.

The request path commits its write, publishes a small JSON payload on the
in-process Bus, and returns. A Processor consumes the bus with a Watermill
router:

	bus := eventprocessor.NewBus(cfg)
	proc, err := eventprocessor.NewProcessor(cfg, bus.Subscriber())
	proc.AddHandler("unread-ping", chat.TopicMessageSent, tracker.HandleMessageSent)
	go proc.Serve(ctx)

Router middleware, outermost first:

  - dropFailed: acknowledges a message once retries are exhausted and
    records background_effect_failures_total
  - Recoverer: turns handler panics into errors
  - Retry: exponential backoff for store failures and unclassified errors

Validation, not-found and permission errors are final and never retried.
Handlers that touch the store guard it with a gobreaker circuit breaker
built by NewCircuitBreaker, so a failing store is not hammered by retries.
*/
package eventprocessor
