// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

// Package main is the entry point for the SocialRelay server.
//
// SocialRelay delivers direct messages and social notifications (likes,
// comments, follows) to connected clients over WebSocket and serves the
// matching REST API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config file and environment (Koanf v2)
//  2. Store: BadgerDB for users, conversations, messages and notifications
//  3. WebSocket hub and event bus (Watermill GoChannel)
//  4. Chat engine, notification fan-out and social actions
//  5. Authentication: JWT verification with just-in-time user provisioning
//  6. HTTP server: chi router with the REST API and /api/v1/ws
//
// Long-lived components run under a suture supervisor tree.
//
// # Configuration
//
// Configuration is loaded from (highest priority wins):
//   - Environment variables (JWT_SECRET, STORE_PATH, HTTP_PORT, ...)
//   - Config file (CONFIG_PATH or ./config.yaml)
//   - Built-in defaults
//
// JWT_SECRET must be at least 32 characters.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
// in-flight requests, the hub closes every socket and the event processor
// finishes its current message before the store is closed.
//
// # Example Usage
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export STORE_PATH=/var/lib/socialrelay
//	./socialrelay
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/socialrelay/internal/api"
	"github.com/tomtom215/socialrelay/internal/auth"
	"github.com/tomtom215/socialrelay/internal/chat"
	"github.com/tomtom215/socialrelay/internal/config"
	"github.com/tomtom215/socialrelay/internal/eventprocessor"
	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/notify"
	"github.com/tomtom215/socialrelay/internal/social"
	"github.com/tomtom215/socialrelay/internal/store"
	"github.com/tomtom215/socialrelay/internal/supervisor"
	"github.com/tomtom215/socialrelay/internal/supervisor/services"
	ws "github.com/tomtom215/socialrelay/internal/websocket"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("environment", cfg.Server.Environment).
		Bool("store_in_memory", cfg.Store.InMemory).
		Msg("Starting SocialRelay")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
	logging.Info().Msg("Server stopped")
}

func run(cfg *config.Config) error {
	st, err := store.Open(store.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()
	logging.Info().Str("path", cfg.Store.Path).Msg("Store opened")

	hub := ws.NewHub()

	busCfg := eventprocessor.ConfigFromFanout(&cfg.Fanout)
	bus := eventprocessor.NewBus(busCfg)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()
	processor, err := eventprocessor.NewProcessor(busCfg, bus.Subscriber())
	if err != nil {
		return err
	}

	engine := chat.NewEngine(st, hub, bus, chat.ConfigFromConfig(cfg)).
		WithBreaker(eventprocessor.NewCircuitBreaker(eventprocessor.BreakerConfigFromFanout("chat-effects", &cfg.Fanout)))
	engine.RegisterHandlers(processor)

	fanout := notify.NewFanout(st, hub, notify.ConfigFromConfig(cfg))
	socialSvc := social.NewService(st, fanout, hub, cfg.Store.Timeout)

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return err
	}

	handler := api.NewHandler(api.Dependencies{
		Config:        cfg,
		Store:         st,
		Hub:           hub,
		Chat:          engine,
		Notifications: fanout,
		Social:        socialSvc,
		Auth:          auth.NewMiddleware(jwtManager, st, api.AuthErrorWriter),
		Users:         st,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler.SetupChi(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
		// No WriteTimeout: upgraded sockets manage their own deadlines.
	}

	tree := supervisor.NewSupervisorTree(logging.NewComponentSlogLogger("supervisor"), supervisor.TreeConfigFromConfig(cfg))
	tree.AddDataService(services.NewBadgerGCService(st, cfg.Store.GCInterval))
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddMessagingService(processor)
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", srv.Addr).Msg("Supervisor tree starting")
	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
