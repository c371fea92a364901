package monitor

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocolchecker/riskframe/internal/engine"
	"github.com/protocolchecker/riskframe/internal/persistence"
	"github.com/protocolchecker/riskframe/internal/providers"
)

type captureNotifier struct {
	mu     sync.Mutex
	alerts []Alert
}

func (c *captureNotifier) Notify(_ context.Context, alert Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, alert)
	return nil
}

func (c *captureNotifier) captured() []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Alert(nil), c.alerts...)
}

func testConfig() *Config {
	return &Config{
		Assets: []AssetJob{{Symbol: "WBTC", Interval: time.Minute, Enabled: true}},
		Alerts: DefaultAlertThresholds(),
	}
}

func healthyAssetConfig() map[string]interface{} {
	return map[string]interface{}{
		"asset_symbol": "WBTC",
		"audit_data": map[string]interface{}{
			"auditor":    "Trail of Bits",
			"unresolved": map[string]interface{}{"critical": 0.0},
		},
		"custody_model":            "regulated_insured",
		"reserve_ratio":            1.02,
		"utilization_pct":          40.0,
		"oracle_staleness_seconds": 300.0,
	}
}

func TestRunOncePersistsAndSkipsAlertsForHealthyAsset(t *testing.T) {
	repo := persistence.NewMemoryRepo()
	notifier := &captureNotifier{}
	provider := providers.NewStaticProvider(map[string]map[string]interface{}{
		"WBTC": healthyAssetConfig(),
	})

	d := NewDispatcher(testConfig(), engine.New(nil), provider, repo, WithNotifier(notifier))
	d.RunOnce(context.Background(), "WBTC")

	rec, err := repo.Latest(context.Background(), "WBTC")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, engine.StatusScored, rec.Status)
	assert.True(t, rec.Qualified)
	require.NotNil(t, rec.Score)
	assert.Greater(t, *rec.Score, 0.0)
	assert.Empty(t, rec.TriggeredBreakers)

	var stored engine.ScoringResult
	require.NoError(t, json.Unmarshal(rec.ResultJSON, &stored))
	assert.Equal(t, "WBTC", stored.Symbol)

	assert.Empty(t, notifier.captured())
}

func TestRunOnceRaisesAlertsForStressedAsset(t *testing.T) {
	cfg := healthyAssetConfig()
	cfg["asset_symbol"] = "FRAX"
	cfg["reserve_ratio"] = 0.9
	cfg["utilization_pct"] = 95.0

	repo := persistence.NewMemoryRepo()
	notifier := &captureNotifier{}
	provider := providers.NewStaticProvider(map[string]map[string]interface{}{"FRAX": cfg})

	d := NewDispatcher(testConfig(), engine.New(nil), provider, repo, WithNotifier(notifier))
	d.RunOnce(context.Background(), "FRAX")

	alerts := notifier.captured()
	require.Len(t, alerts, 2)
	flags := flagsOf(alerts)
	assert.Contains(t, flags, FlagUndercollateralized)
	assert.Contains(t, flags, FlagHighUtilization)

	// Undercollateralization also trips the scoring breaker.
	rec, err := repo.Latest(context.Background(), "FRAX")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.NotEmpty(t, rec.TriggeredBreakers)
	require.NotNil(t, rec.Score)
	assert.Equal(t, 40.0, *rec.Score)
}

func TestRunOnceFetchFailureDoesNotPersist(t *testing.T) {
	repo := persistence.NewMemoryRepo()
	provider := providers.NewStaticProvider(nil)

	d := NewDispatcher(testConfig(), engine.New(nil), provider, repo)
	d.RunOnce(context.Background(), "MISSING")

	rec, err := repo.Latest(context.Background(), "MISSING")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRunOnceDisqualifiedAssetStillPersisted(t *testing.T) {
	repo := persistence.NewMemoryRepo()
	provider := providers.NewStaticProvider(map[string]map[string]interface{}{
		"NOAUDIT": {"asset_symbol": "NOAUDIT", "reserve_ratio": 1.0},
	})

	d := NewDispatcher(testConfig(), engine.New(nil), provider, repo)
	d.RunOnce(context.Background(), "NOAUDIT")

	rec, err := repo.Latest(context.Background(), "NOAUDIT")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, engine.StatusDisqualified, rec.Status)
	assert.False(t, rec.Qualified)
	assert.Nil(t, rec.Score)
	assert.Nil(t, rec.Grade)
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{Assets: []AssetJob{{Symbol: "WBTC", Interval: time.Minute, Enabled: true}}}
	require.NoError(t, cfg.Validate())

	cfg = &Config{Assets: []AssetJob{{Symbol: "WBTC", Interval: time.Minute, Enabled: false}}}
	assert.ErrorContains(t, cfg.Validate(), "no enabled asset jobs")

	cfg = &Config{Assets: []AssetJob{{Symbol: "", Interval: time.Minute, Enabled: true}}}
	assert.ErrorContains(t, cfg.Validate(), "empty symbol")

	cfg = &Config{Assets: []AssetJob{{Symbol: "WBTC", Interval: 100 * time.Millisecond, Enabled: true}}}
	assert.ErrorContains(t, cfg.Validate(), "below 1s")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	provider := providers.NewStaticProvider(map[string]map[string]interface{}{
		"WBTC": healthyAssetConfig(),
	})
	d := NewDispatcher(testConfig(), engine.New(nil), provider, persistence.NewMemoryRepo())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop after context cancel")
	}
}
