package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the monitoring pipeline's Prometheus collectors.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec
	AssetScore        *prometheus.GaugeVec
	BreakersTriggered *prometheus.CounterVec
	AlertsTotal       *prometheus.CounterVec
	RunDuration       prometheus.Histogram
}

// NewMetrics creates and registers the collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskframe_monitor_runs_total",
			Help: "Scoring runs executed by the monitoring dispatcher, by outcome status.",
		}, []string{"symbol", "status"}),
		AssetScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "riskframe_asset_score",
			Help: "Latest overall risk score per asset (absent when disqualified).",
		}, []string{"symbol"}),
		BreakersTriggered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskframe_breakers_triggered_total",
			Help: "Circuit breaker triggers observed during scoring runs.",
		}, []string{"breaker"}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskframe_alerts_total",
			Help: "Threshold alerts raised by the monitoring pipeline.",
		}, []string{"flag"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "riskframe_run_duration_seconds",
			Help:    "Wall time of one asset scoring run including fetch and persistence.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.RunsTotal, m.AssetScore, m.BreakersTriggered, m.AlertsTotal, m.RunDuration)
	return m
}
