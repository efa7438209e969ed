// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/tomtom215/socialrelay/internal/logging"
)

const (
	minJWTSecretLength = 32

	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour

	maxPageSize = 200
)

// Validate checks that the configuration is complete and within bounds.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateSecurity,
		c.validateStore,
		c.validateChat,
		c.validateWebSocket,
		c.validateFanout,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production; " +
			"set specific origins such as CORS_ORIGINS=https://app.example.com")
	}
	return c.validateRateLimits()
}

func (c *Config) hasWildcardCORS() bool {
	return slices.Contains(c.Security.CORSOrigins, "*")
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("STORE_PATH is required unless STORE_IN_MEMORY=true")
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if c.Store.TxnRetries < 0 {
		return fmt.Errorf("STORE_TXN_RETRIES must not be negative")
	}
	if c.Store.GCInterval <= 0 {
		return fmt.Errorf("STORE_GC_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateChat() error {
	if c.Chat.PageSize < 1 || c.Chat.PageSize > maxPageSize {
		return fmt.Errorf("CHAT_PAGE_SIZE must be between 1 and %d", maxPageSize)
	}
	if c.Chat.MaxContentLength < 1 {
		return fmt.Errorf("CHAT_MAX_CONTENT must be positive")
	}
	if c.Notifications.ListLimit < 1 || c.Notifications.ListLimit > maxPageSize {
		return fmt.Errorf("NOTIFICATION_LIMIT must be between 1 and %d", maxPageSize)
	}
	return nil
}

func (c *Config) validateWebSocket() error {
	if c.WebSocket.SendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be positive")
	}
	if c.WebSocket.EventsPerSecond <= 0 {
		return fmt.Errorf("WS_EVENTS_PER_SECOND must be positive")
	}
	if c.WebSocket.EventBurst < 1 {
		return fmt.Errorf("WS_EVENT_BURST must be positive")
	}
	return nil
}

func (c *Config) validateFanout() error {
	if c.Fanout.RetryCount < 0 {
		return fmt.Errorf("FANOUT_RETRY_COUNT must not be negative")
	}
	if c.Fanout.RetryInterval <= 0 {
		return fmt.Errorf("FANOUT_RETRY_INTERVAL must be positive")
	}
	if c.Fanout.BreakerFailures < 1 {
		return fmt.Errorf("FANOUT_BREAKER_LIMIT must be positive")
	}
	if c.Fanout.BreakerTimeout <= 0 {
		return fmt.Errorf("FANOUT_BREAKER_WAIT must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic, disabled")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}
