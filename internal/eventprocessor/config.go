// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/tomtom215/socialrelay/internal/config"
)

// Config configures the bus and the processor router.
type Config struct {
	// OutputBuffer is the per-subscriber channel buffer of the in-process
	// pub/sub. Publish blocks only when it is full.
	OutputBuffer int64

	// CloseTimeout bounds how long a stopping router waits for handlers.
	CloseTimeout time.Duration

	// Retry configuration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		OutputBuffer:         1024,
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     2 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// ConfigFromFanout builds Config from the service configuration.
func ConfigFromFanout(cfg *config.FanoutConfig) Config {
	c := DefaultConfig()
	c.RetryMaxRetries = cfg.RetryCount
	if cfg.RetryInterval > 0 {
		c.RetryInitialInterval = cfg.RetryInterval
		c.RetryMaxInterval = max(c.RetryMaxInterval, cfg.RetryInterval)
	}
	if cfg.Buffer > 0 {
		c.OutputBuffer = cfg.Buffer
	}
	if cfg.CloseTimeout > 0 {
		c.CloseTimeout = cfg.CloseTimeout
	}
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.OutputBuffer < 0 {
		return fmt.Errorf("%w: output buffer must not be negative", ErrInvalidConfig)
	}
	if c.RetryMaxRetries < 0 {
		return fmt.Errorf("%w: retry count must not be negative", ErrInvalidConfig)
	}
	if c.RetryMultiplier < 1 {
		return fmt.Errorf("%w: retry multiplier must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Failures before opening
}

// DefaultCircuitBreakerConfig returns production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerConfigFromFanout builds a breaker configuration named name.
func BreakerConfigFromFanout(name string, cfg *config.FanoutConfig) CircuitBreakerConfig {
	c := DefaultCircuitBreakerConfig(name)
	if cfg.BreakerFailures > 0 {
		c.FailureThreshold = cfg.BreakerFailures
	}
	if cfg.BreakerTimeout > 0 {
		c.Timeout = cfg.BreakerTimeout
	}
	return c
}
