package providers

import (
	"context"
	"fmt"
	"time"

	cb "github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Guard wraps a MetricProvider with a circuit breaker and a rate limiter so
// a flapping upstream cannot stall or hammer the monitoring loop.
type Guard struct {
	inner   MetricProvider
	breaker *cb.CircuitBreaker
	limiter *rate.Limiter
}

// GuardConfig tunes the provider guard.
type GuardConfig struct {
	Name                string
	RequestsPerSecond   float64
	Burst               int
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// DefaultGuardConfig is conservative enough for public RPC endpoints.
func DefaultGuardConfig(name string) GuardConfig {
	return GuardConfig{
		Name:                name,
		RequestsPerSecond:   5,
		Burst:               10,
		ConsecutiveFailures: 3,
		OpenTimeout:         60 * time.Second,
	}
}

// NewGuard wraps the provider.
func NewGuard(inner MetricProvider, cfg GuardConfig) *Guard {
	settings := cb.Settings{
		Name:     cfg.Name,
		Interval: 60 * time.Second,
		Timeout:  cfg.OpenTimeout,
	}
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 3
	}
	settings.ReadyToTrip = func(counts cb.Counts) bool {
		return counts.ConsecutiveFailures >= failures
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Guard{
		inner:   inner,
		breaker: cb.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// FetchAssetConfig waits for rate-limit headroom, then routes the call
// through the breaker.
func (g *Guard) FetchAssetConfig(ctx context.Context, symbol string) (map[string]interface{}, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait aborted: %w", err)
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.FetchAssetConfig(ctx, symbol)
	})
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", g.breaker.Name(), err)
	}
	return out.(map[string]interface{}), nil
}

// State exposes the breaker state for health reporting.
func (g *Guard) State() cb.State {
	return g.breaker.State()
}
