package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	cb "github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyProvider struct {
	failures int
	calls    int
}

func (p *flakyProvider) FetchAssetConfig(_ context.Context, symbol string) (map[string]interface{}, error) {
	p.calls++
	if p.calls <= p.failures {
		return nil, errors.New("upstream timeout")
	}
	return map[string]interface{}{"asset_symbol": symbol}, nil
}

func fastGuardConfig() GuardConfig {
	cfg := DefaultGuardConfig("test")
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 1000
	return cfg
}

func TestGuardPassesThrough(t *testing.T) {
	inner := NewStaticProvider(map[string]map[string]interface{}{
		"WBTC": {"asset_symbol": "WBTC", "reserve_ratio": 1.02},
	})
	g := NewGuard(inner, fastGuardConfig())

	cfg, err := g.FetchAssetConfig(context.Background(), "WBTC")
	require.NoError(t, err)
	assert.Equal(t, "WBTC", cfg["asset_symbol"])
	assert.Equal(t, cb.StateClosed, g.State())
}

func TestGuardWrapsUnknownAssetError(t *testing.T) {
	g := NewGuard(NewStaticProvider(nil), fastGuardConfig())

	_, err := g.FetchAssetConfig(context.Background(), "MISSING")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAsset)
}

func TestGuardOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyProvider{failures: 100}
	g := NewGuard(inner, fastGuardConfig())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := g.FetchAssetConfig(ctx, "WBTC")
		require.Error(t, err)
	}
	assert.Equal(t, cb.StateOpen, g.State())

	// Open breaker rejects without touching the upstream.
	callsBefore := inner.calls
	_, err := g.FetchAssetConfig(ctx, "WBTC")
	require.Error(t, err)
	assert.ErrorIs(t, err, cb.ErrOpenState)
	assert.Equal(t, callsBefore, inner.calls)
}

func TestGuardStaysClosedOnRecovery(t *testing.T) {
	inner := &flakyProvider{failures: 2}
	g := NewGuard(inner, fastGuardConfig())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := g.FetchAssetConfig(ctx, "WBTC")
		require.Error(t, err)
	}

	// Success before the third consecutive failure resets the count.
	cfg, err := g.FetchAssetConfig(ctx, "WBTC")
	require.NoError(t, err)
	assert.Equal(t, "WBTC", cfg["asset_symbol"])
	assert.Equal(t, cb.StateClosed, g.State())
}

func TestGuardHonorsContextCancellationDuringRateWait(t *testing.T) {
	cfg := fastGuardConfig()
	cfg.RequestsPerSecond = 0.001 // effectively no refill
	cfg.Burst = 1
	g := NewGuard(NewStaticProvider(map[string]map[string]interface{}{
		"WBTC": {"asset_symbol": "WBTC"},
	}), cfg)

	ctx := context.Background()
	_, err := g.FetchAssetConfig(ctx, "WBTC") // consumes the only token
	require.NoError(t, err)

	cancelled, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = g.FetchAssetConfig(cancelled, "WBTC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait aborted")
}
