package api

import (
	"fmt"

	"resumetailor/internal/config"
	"resumetailor/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// Family groups endpoints that share a circuit breaker
type Family string

const (
	FamilyAnalysis    Family = "analysis"
	FamilyGeneration  Family = "generation"
	FamilyPersistence Family = "persistence"
	FamilyLookup      Family = "lookup"
)

// Families lists every endpoint family
var Families = []Family{FamilyAnalysis, FamilyGeneration, FamilyPersistence, FamilyLookup}

// Breaker wraps calls to one endpoint family with the circuit breaker pattern
type Breaker struct {
	cb *gobreaker.CircuitBreaker[*response]
}

// NewBreaker creates a circuit breaker for an endpoint family. It returns
// nil when breaking is disabled.
func NewBreaker(family Family, cfg *config.CircuitBreakerConfig, logger *errors.Logger) *Breaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("API-%s", family),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		// The service answering with a refusal is healthy
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.IsType(err, errors.ErrorTypeValidation) ||
				errors.IsType(err, errors.ErrorTypeAuth) ||
				errors.IsType(err, errors.ErrorTypeQuota)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"family", family,
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &Breaker{
		cb: gobreaker.NewCircuitBreaker[*response](settings),
	}
}

// Execute runs fn under the breaker. An open breaker fails fast with an
// upstream error.
func (b *Breaker) Execute(fn func() (*response, error)) (*response, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	resp, err := b.cb.Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, errors.NewNetworkError(errors.ErrCodeUpstreamFailed,
			"remote service temporarily unavailable", err).
			WithContext("breaker", b.cb.Name())
	}
	return resp, err
}

// GetStats returns circuit breaker statistics
func (b *Breaker) GetStats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (b *Breaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
