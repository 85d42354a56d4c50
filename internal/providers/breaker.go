package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerFetcher short-circuits calls to a provider that keeps failing, so
// searches fall back to demo data without waiting for the fetch timeout.
type BreakerFetcher struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerFetcher wraps next with a circuit breaker that opens after
// failures consecutive errors and probes again after cooldown.
func NewBreakerFetcher(name string, next Fetcher, failures uint32, cooldown time.Duration, logger *slog.Logger) *BreakerFetcher {
	if failures == 0 {
		failures = 5
	}
	return &BreakerFetcher{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			// A caller giving up says nothing about the provider's health.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("provider circuit state changed", "provider", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// Fetch runs the call through the breaker.
func (f *BreakerFetcher) Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error) {
	out, err := f.cb.Execute(func() (interface{}, error) {
		return f.next.Fetch(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return out.(*FetchResponse), nil
}

// State reports the breaker state name.
func (f *BreakerFetcher) State() string {
	return f.cb.State().String()
}
