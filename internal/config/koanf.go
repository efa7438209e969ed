// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/socialrelay/config.yaml",
	"/etc/socialrelay/config.yml",
}

// ConfigPathEnvVar names an explicit config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns the built-in configuration, before any file or
// environment overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			JWTSecret:       "",
			TokenTTL:        24 * time.Hour,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
		Store: StoreConfig{
			Path:       "/data/socialrelay",
			InMemory:   false,
			SyncWrites: false,
			Timeout:    5 * time.Second,
			TxnRetries: 8,
			GCInterval: 10 * time.Minute,
		},
		Chat: ChatConfig{
			PageSize:         50,
			MaxContentLength: 4000,
		},
		Notifications: NotificationConfig{
			ListLimit: 50,
		},
		WebSocket: WebSocketConfig{
			SendBuffer:      256,
			EventsPerSecond: 20,
			EventBurst:      40,
		},
		Fanout: FanoutConfig{
			RetryCount:      3,
			RetryInterval:   100 * time.Millisecond,
			Buffer:          1024,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
			CloseTimeout:    10 * time.Second,
		},
		Cache: CacheConfig{
			UserCapacity: 10000,
			UserTTL:      5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration in three layers, later layers winning:
//
//  1. built-in defaults
//  2. a YAML file (CONFIG_PATH, else the first of DefaultConfigPaths found)
//  3. environment variables mapped by envTransformFunc
//
// Comma-separated strings for slice fields are split before unmarshalling,
// and the result is validated.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields turns "a, b,c" strings from the environment into
// string slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"shutdown_timeout":      "server.shutdown_timeout",
	"environment":           "server.environment",
	"jwt_secret":            "security.jwt_secret",
	"token_ttl":             "security.token_ttl",
	"cors_origins":          "security.cors_origins",
	"rate_limit_requests":   "security.rate_limit_reqs",
	"rate_limit_window":     "security.rate_limit_window",
	"disable_rate_limit":    "security.rate_limit_disabled",
	"store_path":            "store.path",
	"store_in_memory":       "store.in_memory",
	"store_sync_writes":     "store.sync_writes",
	"store_timeout":         "store.timeout",
	"store_txn_retries":     "store.txn_retries",
	"store_gc_interval":     "store.gc_interval",
	"chat_page_size":        "chat.page_size",
	"chat_max_content":      "chat.max_content_length",
	"notification_limit":    "notifications.list_limit",
	"ws_send_buffer":        "websocket.send_buffer",
	"ws_events_per_second":  "websocket.events_per_second",
	"ws_event_burst":        "websocket.event_burst",
	"fanout_retry_count":    "fanout.retry_count",
	"fanout_retry_interval": "fanout.retry_interval",
	"fanout_buffer":         "fanout.buffer",
	"fanout_breaker_limit":  "fanout.breaker_failures",
	"fanout_breaker_wait":   "fanout.breaker_timeout",
	"fanout_close_timeout":  "fanout.close_timeout",
	"user_cache_capacity":   "cache.user_capacity",
	"user_cache_ttl":        "cache.user_ttl",
	"log_level":             "logging.level",
	"log_format":            "logging.format",
	"log_caller":            "logging.caller",
}

// envTransformFunc maps environment variable names to koanf keys. Variables
// not in envMappings are ignored so unrelated environment does not leak
// into the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
