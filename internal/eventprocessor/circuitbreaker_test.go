// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package eventprocessor

import (
	"errors"
	"fmt"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/socialrelay/internal/config"
	"github.com/tomtom215/socialrelay/internal/models"
)

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("unread")
	if cfg.Name != "unread" || cfg.FailureThreshold != 5 || cfg.MaxRequests != 3 {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	tuned := BreakerConfigFromFanout("unread", &config.FanoutConfig{BreakerFailures: 2, BreakerTimeout: time.Minute})
	if tuned.FailureThreshold != 2 || tuned.Timeout != time.Minute {
		t.Errorf("fanout settings not applied: %+v", tuned)
	}
}

func TestCircuitBreaker_TripsOnStoreFailures(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("test-trip")
	cfg.FailureThreshold = 3
	cfg.Timeout = time.Hour
	cb := NewCircuitBreaker(cfg)

	storeErr := fmt.Errorf("%w: disk", models.ErrStore)
	for i := 0; i < 3; i++ {
		if err := ExecuteWithBreaker(cb, func() error { return storeErr }); !errors.Is(err, models.ErrStore) {
			t.Fatalf("call %d error = %v", i, err)
		}
	}
	if got := CircuitBreakerState(cb); got != gobreaker.StateOpen.String() {
		t.Fatalf("state = %s, want open", got)
	}

	ran := false
	err := ExecuteWithBreaker(cb, func() error { ran = true; return nil })
	if ran {
		t.Error("open breaker ran the function")
	}
	if !errors.Is(err, models.ErrStore) || !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("open breaker error = %v, want ErrStore and ErrOpenState", err)
	}
}

func TestCircuitBreaker_IgnoresFinalDomainErrors(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("test-domain")
	cfg.FailureThreshold = 2
	cb := NewCircuitBreaker(cfg)

	tests := []error{
		fmt.Errorf("%w: conversation", models.ErrNotFound),
		fmt.Errorf("%w: empty", models.ErrValidation),
		models.ErrForbidden,
		fmt.Errorf("%w: conversation", models.ErrNotFound),
	}
	for _, want := range tests {
		if err := ExecuteWithBreaker(cb, func() error { return want }); !errors.Is(err, want) {
			t.Errorf("error = %v, want %v", err, want)
		}
	}
	if got := CircuitBreakerState(cb); got != gobreaker.StateClosed.String() {
		t.Errorf("state = %s, want closed", got)
	}
}

func TestStateValue(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  float64
	}{
		{gobreaker.StateClosed, 0},
		{gobreaker.StateHalfOpen, 1},
		{gobreaker.StateOpen, 2},
	}
	for _, tt := range tests {
		if got := stateValue(tt.state); got != tt.want {
			t.Errorf("stateValue(%s) = %v, want %v", tt.state, got, tt.want)
		}
	}
}
