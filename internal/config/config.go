// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

// Package config loads SocialRelay configuration.
//
// Values are layered with koanf: built-in defaults, then an optional YAML
// file, then environment variables. See LoadWithKoanf for the details and
// envTransformFunc for the recognised environment variables.
package config

import "time"

// Config is the complete service configuration.
type Config struct {
	Server        ServerConfig       `koanf:"server"`
	Security      SecurityConfig     `koanf:"security"`
	Store         StoreConfig        `koanf:"store"`
	Chat          ChatConfig         `koanf:"chat"`
	Notifications NotificationConfig `koanf:"notifications"`
	WebSocket     WebSocketConfig    `koanf:"websocket"`
	Fanout        FanoutConfig       `koanf:"fanout"`
	Cache         CacheConfig        `koanf:"cache"`
	Logging       LoggingConfig      `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// SecurityConfig configures token verification and request limits.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// StoreConfig configures the badger store.
type StoreConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`
	SyncWrites bool          `koanf:"sync_writes"`
	Timeout    time.Duration `koanf:"timeout"`
	TxnRetries int           `koanf:"txn_retries"`
	// GCInterval is how often the value log garbage collector runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// ChatConfig configures the chat engine.
type ChatConfig struct {
	PageSize         int `koanf:"page_size"`
	MaxContentLength int `koanf:"max_content_length"`
}

// NotificationConfig configures notification listing.
type NotificationConfig struct {
	ListLimit int `koanf:"list_limit"`
}

// WebSocketConfig configures live connections.
type WebSocketConfig struct {
	SendBuffer      int     `koanf:"send_buffer"`
	EventsPerSecond float64 `koanf:"events_per_second"`
	EventBurst      int     `koanf:"event_burst"`
}

// FanoutConfig configures background side effects.
type FanoutConfig struct {
	RetryCount      int           `koanf:"retry_count"`
	RetryInterval   time.Duration `koanf:"retry_interval"`
	Buffer          int64         `koanf:"buffer"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
	CloseTimeout    time.Duration `koanf:"close_timeout"`
}

// CacheConfig configures the user summary cache.
type CacheConfig struct {
	UserCapacity int           `koanf:"user_capacity"`
	UserTTL      time.Duration `koanf:"user_ttl"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return joinHostPort(c.Host, c.Port)
}
