// Package monitor runs the scheduled scoring pipeline: per-asset tickers that
// fetch a config through the provider boundary, score it with the engine,
// persist the result, refresh the cache and raise threshold alerts.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/protocolchecker/riskframe/internal/bundle"
	"github.com/protocolchecker/riskframe/internal/cache"
	"github.com/protocolchecker/riskframe/internal/engine"
	"github.com/protocolchecker/riskframe/internal/persistence"
	"github.com/protocolchecker/riskframe/internal/providers"
)

// AssetJob configures monitoring for one asset.
type AssetJob struct {
	Symbol   string        `yaml:"symbol"`
	Interval time.Duration `yaml:"interval"`
	Enabled  bool          `yaml:"enabled"`
}

// Config is the monitoring pipeline configuration.
type Config struct {
	Assets []AssetJob      `yaml:"assets"`
	Alerts AlertThresholds `yaml:"alerts"`
}

// LoadConfig reads the monitor configuration from YAML, filling alert
// thresholds from defaults when omitted.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read monitor config %s: %w", path, err)
	}

	cfg := Config{Alerts: DefaultAlertThresholds()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse monitor config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitor config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects configs with no runnable jobs or nonsensical intervals.
func (c *Config) Validate() error {
	enabled := 0
	for _, job := range c.Assets {
		if job.Symbol == "" {
			return fmt.Errorf("asset job with empty symbol")
		}
		if job.Enabled {
			if job.Interval < time.Second {
				return fmt.Errorf("asset %s: interval %s below 1s", job.Symbol, job.Interval)
			}
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("no enabled asset jobs")
	}
	return nil
}

// Dispatcher drives the monitoring loop.
type Dispatcher struct {
	cfg      *Config
	engine   *engine.Engine
	provider providers.MetricProvider
	repo     persistence.ScoreRepo
	cache    *cache.ResultCache // optional
	notifier Notifier
	metrics  *Metrics // optional
}

// NewDispatcher wires the pipeline. Cache and metrics may be nil; notifier
// defaults to the log notifier.
func NewDispatcher(cfg *Config, eng *engine.Engine, provider providers.MetricProvider, repo persistence.ScoreRepo, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg,
		engine:   eng,
		provider: provider,
		repo:     repo,
		notifier: LogNotifier{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DispatcherOption customizes the dispatcher.
type DispatcherOption func(*Dispatcher)

// WithCache attaches a latest-result cache.
func WithCache(c *cache.ResultCache) DispatcherOption {
	return func(d *Dispatcher) { d.cache = c }
}

// WithNotifier replaces the default log notifier.
func WithNotifier(n Notifier) DispatcherOption {
	return func(d *Dispatcher) { d.notifier = n }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// Run starts one ticker per enabled asset and blocks until the context is
// cancelled. Each asset is scored once immediately on startup.
func (d *Dispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, job := range d.cfg.Assets {
		if !job.Enabled {
			continue
		}
		wg.Add(1)
		go func(job AssetJob) {
			defer wg.Done()
			d.runLoop(ctx, job)
		}(job)
	}

	log.Info().Int("assets", len(d.cfg.Assets)).Msg("Monitoring dispatcher started")
	wg.Wait()
	return ctx.Err()
}

func (d *Dispatcher) runLoop(ctx context.Context, job AssetJob) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	d.RunOnce(ctx, job.Symbol)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.RunOnce(ctx, job.Symbol)
		}
	}
}

// RunOnce executes one full scoring run for a symbol: fetch, score, persist,
// cache, alert. Failures are logged and counted, never fatal to the loop.
func (d *Dispatcher) RunOnce(ctx context.Context, symbol string) {
	start := time.Now()
	defer func() {
		if d.metrics != nil {
			d.metrics.RunDuration.Observe(time.Since(start).Seconds())
		}
	}()

	rawConfig, err := d.provider.FetchAssetConfig(ctx, symbol)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("Asset config fetch failed")
		d.countRun(symbol, "fetch_error")
		return
	}

	result, err := d.engine.CalculateAssetRiskScore(rawConfig)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("Scoring failed")
		d.countRun(symbol, "scoring_error")
		return
	}
	if result.Symbol == "" {
		result.Symbol = symbol
	}

	d.observeResult(result)
	d.persist(ctx, result)

	if d.cache != nil {
		if err := d.cache.Set(ctx, result); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("Result cache update failed")
		}
	}

	for _, alert := range EvaluateAlerts(bundle.Normalize(rawConfig), d.cfg.Alerts) {
		if d.metrics != nil {
			d.metrics.AlertsTotal.WithLabelValues(string(alert.Flag)).Inc()
		}
		if err := d.notifier.Notify(ctx, alert); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Str("flag", string(alert.Flag)).
				Msg("Alert delivery failed")
		}
	}

	event := log.Info().Str("symbol", symbol).Str("status", result.Status)
	if result.Overall != nil {
		event = event.Float64("score", result.Overall.Score).Str("grade", result.Overall.Grade)
	}
	event.Msg("Scoring run completed")
}

func (d *Dispatcher) observeResult(result *engine.ScoringResult) {
	d.countRun(result.Symbol, result.Status)
	if d.metrics == nil {
		return
	}
	if result.Overall != nil {
		d.metrics.AssetScore.WithLabelValues(result.Symbol).Set(result.Overall.Score)
	}
	for _, out := range result.CircuitBreakers.Triggered {
		d.metrics.BreakersTriggered.WithLabelValues(out.Name).Inc()
	}
}

func (d *Dispatcher) countRun(symbol, status string) {
	if d.metrics != nil {
		d.metrics.RunsTotal.WithLabelValues(symbol, status).Inc()
	}
}

func (d *Dispatcher) persist(ctx context.Context, result *engine.ScoringResult) {
	if d.repo == nil {
		return
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Str("symbol", result.Symbol).Msg("Result marshal failed")
		return
	}

	rec := persistence.ScoreRecord{
		ID:         uuid.NewString(),
		Timestamp:  result.Timestamp,
		Symbol:     result.Symbol,
		Qualified:  result.Qualified,
		Status:     result.Status,
		ResultJSON: resultJSON,
	}
	if result.Overall != nil {
		score := result.Overall.Score
		grade := result.Overall.Grade
		rec.Score = &score
		rec.Grade = &grade
	}
	rec.TriggeredBreakers = make([]string, 0, len(result.CircuitBreakers.Triggered))
	for _, out := range result.CircuitBreakers.Triggered {
		rec.TriggeredBreakers = append(rec.TriggeredBreakers, out.Name)
	}

	if err := d.repo.Insert(ctx, rec); err != nil {
		log.Error().Err(err).Str("symbol", result.Symbol).Msg("Score persistence failed")
	}
}
