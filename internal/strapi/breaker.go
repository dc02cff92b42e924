package strapi

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrUnavailable is returned while the circuit breaker rejects calls
var ErrUnavailable = errors.New("content API unavailable")

// BreakerConfig configures the circuit breaker around content API calls
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
	MaxRequests      uint32
}

func newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker[any] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "content-api",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// 4xx responses and caller cancellations are not an outage
		IsSuccessful: func(err error) bool {
			if isCallerAbort(err) {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < 500
			}
			return err == nil
		},
	})
}

// isCallerAbort reports whether err came from the caller's context being
// cancelled or expiring. Client timeouts are wrapped in ErrUnavailable by do
// and still count as failures.
func isCallerAbort(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
