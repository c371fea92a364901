package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/protocolchecker/riskframe/internal/bundle"
)

// AlertFlag identifies one threshold-based alert condition.
type AlertFlag string

const (
	FlagUndercollateralized AlertFlag = "UNDERCOLLATERALIZED"
	FlagHighUtilization     AlertFlag = "HIGH_UTILIZATION"
	FlagOracleStale         AlertFlag = "ORACLE_STALE"
	FlagConcentrationRisk   AlertFlag = "CONCENTRATION_RISK"
)

// AlertThresholds are the monitoring trip points, independent of the scoring
// ladders: these fire alerts, they do not move scores.
type AlertThresholds struct {
	MinBackingRatioPct          float64 `yaml:"min_backing_ratio_pct"`
	MaxUtilizationPct           float64 `yaml:"max_utilization_pct"`
	MaxOracleStalenessSeconds   float64 `yaml:"max_oracle_staleness_seconds"`
	MaxSingleAssetAllocationPct float64 `yaml:"max_single_asset_allocation_pct"`
}

// DefaultAlertThresholds returns the production trip points.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		MinBackingRatioPct:          100,
		MaxUtilizationPct:           80,
		MaxOracleStalenessSeconds:   3600,
		MaxSingleAssetAllocationPct: 70,
	}
}

// Alert is one raised threshold violation.
type Alert struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Flag      AlertFlag `json:"flag"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// EvaluateAlerts inspects the normalized bundle against the thresholds.
// Metrics the bundle does not carry are skipped, not alerted on.
func EvaluateAlerts(b *bundle.AssetMetricBundle, th AlertThresholds) []Alert {
	now := time.Now().UTC()
	var alerts []Alert

	raise := func(flag AlertFlag, msg string, value, threshold float64) {
		alerts = append(alerts, Alert{
			ID:        uuid.NewString(),
			Symbol:    b.Symbol,
			Flag:      flag,
			Message:   msg,
			Value:     value,
			Threshold: threshold,
			Timestamp: now,
		})
	}

	if ratio, ok := b.Value(bundle.MetricReserveRatio); ok {
		backingPct := ratio * 100
		if backingPct < th.MinBackingRatioPct {
			raise(FlagUndercollateralized,
				fmt.Sprintf("backing ratio %.1f%% below %.1f%%", backingPct, th.MinBackingRatioPct),
				backingPct, th.MinBackingRatioPct)
		}
	}

	if util, ok := b.Value(bundle.MetricUtilizationPct); ok && util > th.MaxUtilizationPct {
		raise(FlagHighUtilization,
			fmt.Sprintf("utilization %.1f%% above %.1f%%", util, th.MaxUtilizationPct),
			util, th.MaxUtilizationPct)
	}

	if stale, ok := b.Value(bundle.MetricOracleStalenessSeconds); ok && stale > th.MaxOracleStalenessSeconds {
		raise(FlagOracleStale,
			fmt.Sprintf("oracle update %.0fs old, limit %.0fs", stale, th.MaxOracleStalenessSeconds),
			stale, th.MaxOracleStalenessSeconds)
	}

	if alloc, ok := b.Value(bundle.MetricSingleAssetAllocPct); ok && alloc > th.MaxSingleAssetAllocationPct {
		raise(FlagConcentrationRisk,
			fmt.Sprintf("single-asset allocation %.1f%% above %.1f%%", alloc, th.MaxSingleAssetAllocationPct),
			alloc, th.MaxSingleAssetAllocationPct)
	}

	return alerts
}

// Notifier delivers alerts. Slack/Telegram delivery lives outside this repo;
// the monitoring loop only depends on this interface.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct{}

// Notify logs the alert.
func (LogNotifier) Notify(_ context.Context, alert Alert) error {
	log.Warn().
		Str("alert_id", alert.ID).
		Str("symbol", alert.Symbol).
		Str("flag", string(alert.Flag)).
		Float64("value", alert.Value).
		Float64("threshold", alert.Threshold).
		Msg(alert.Message)
	return nil
}
