// Package engine is the two-stage scoring entry point: primary-check gating
// followed by weighted category scoring with circuit breakers and grade
// assignment. It is pure computation over an already-fetched metric bundle;
// it performs no I/O and is safe to call concurrently for different assets.
package engine

import (
	"fmt"
	"time"

	"github.com/protocolchecker/riskframe/internal/breakers"
	"github.com/protocolchecker/riskframe/internal/bundle"
	"github.com/protocolchecker/riskframe/internal/category"
	"github.com/protocolchecker/riskframe/internal/checks"
	"github.com/protocolchecker/riskframe/internal/registry"
)

// Result statuses.
const (
	StatusScored       = "SCORED"
	StatusDisqualified = "DISQUALIFIED"
	StatusForceFailed  = "FORCE_FAILED"
)

// Overall is the final numeric score and its grade.
type Overall struct {
	Score     float64 `json:"score"`
	Grade     string  `json:"grade"`
	RiskLevel string  `json:"risk_level"`
}

// ScoringSettings records how the score was produced, for auditability:
// whether custom weights or breaker toggles were in force and what they were.
type ScoringSettings struct {
	CustomWeightsUsed         bool               `json:"custom_weights_used"`
	CustomWeights             map[string]float64 `json:"custom_weights,omitempty"`
	CircuitBreakersCustomized bool               `json:"circuit_breakers_customized"`
	EnabledBreakers           map[string]bool    `json:"enabled_breakers"`
}

// ScoringResult is the full structured artifact of one scoring run. It is a
// value object: constructed fresh per invocation, never mutated after return.
type ScoringResult struct {
	Symbol          string                            `json:"symbol,omitempty"`
	Timestamp       time.Time                         `json:"timestamp"`
	Qualified       bool                              `json:"qualified"`
	Status          string                            `json:"status"`
	PrimaryChecks   checks.Summary                    `json:"primary_checks"`
	Categories      map[string]category.CategoryScore `json:"categories,omitempty"`
	CircuitBreakers breakers.Result                   `json:"circuit_breakers"`
	Overall         *Overall                          `json:"overall"`
	ScoringSettings ScoringSettings                   `json:"scoring_settings"`
}

// Engine scores assets against a fixed registry.
type Engine struct {
	reg    *registry.Registry
	scorer *category.Scorer
}

// New creates an engine. A nil registry falls back to the built-in defaults.
func New(reg *registry.Registry) *Engine {
	if reg == nil {
		reg = registry.Default()
	}
	return &Engine{reg: reg, scorer: category.NewScorer(reg)}
}

// Options tune one scoring run.
type Options struct {
	CustomWeights  map[string]float64
	BreakerToggles map[string]bool
}

// Option mutates scoring options.
type Option func(*Options)

// WithCustomWeights overrides category weights. Partial overrides are filled
// from registry defaults; the result must still sum to 1.0.
func WithCustomWeights(weights map[string]float64) Option {
	return func(o *Options) { o.CustomWeights = weights }
}

// WithBreakerToggles enables or disables individual circuit breakers.
func WithBreakerToggles(toggles map[string]bool) Option {
	return func(o *Options) { o.BreakerToggles = toggles }
}

// CalculateAssetRiskScore runs the full two-stage pipeline on a raw asset
// config. Disqualification is a normal outcome, not an error; errors are
// reserved for malformed settings (weights that cannot resolve to 1.0,
// unknown breaker names).
func (e *Engine) CalculateAssetRiskScore(rawConfig map[string]interface{}, opts ...Option) (*ScoringResult, error) {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	// Resolve settings before any scoring so a malformed override fails fast
	// instead of producing a misleading score.
	weights, err := e.reg.ResolveWeights(options.CustomWeights)
	if err != nil {
		return nil, fmt.Errorf("invalid custom weights: %w", err)
	}
	enabled, err := e.reg.ResolveBreakers(options.BreakerToggles)
	if err != nil {
		return nil, fmt.Errorf("invalid breaker toggles: %w", err)
	}

	b := bundle.Normalize(rawConfig)

	result := &ScoringResult{
		Symbol:    b.Symbol,
		Timestamp: time.Now().UTC(),
		ScoringSettings: ScoringSettings{
			CustomWeightsUsed:         len(options.CustomWeights) > 0,
			CustomWeights:             copyFloats(options.CustomWeights),
			CircuitBreakersCustomized: len(options.BreakerToggles) > 0,
			EnabledBreakers:           enabled,
		},
	}

	result.PrimaryChecks = checks.Run(b)
	if !result.PrimaryChecks.Qualified {
		result.Status = StatusDisqualified
		result.CircuitBreakers = breakers.Result{Enabled: enabled, Triggered: []breakers.Outcome{}}
		return result, nil
	}
	result.Qualified = true

	scores := e.scorer.ScoreAll(b)
	for cat, cs := range scores {
		cs.Weight = weights[cat]
		scores[cat] = cs
	}
	result.Categories = scores

	result.CircuitBreakers = breakers.Evaluate(b, scores, enabled, e.reg)

	overall, ok := e.aggregate(scores, weights, result.CircuitBreakers.Triggered)
	if !ok {
		result.Status = StatusForceFailed
		return result, nil
	}

	result.Overall = overall
	result.Status = StatusScored
	return result, nil
}

// aggregate computes the weighted overall score, excluding insufficient-data
// categories with weight renormalization, then applies breaker effects and
// assigns the grade. Returns ok=false when a force-fail breaker fired or no
// category had data.
func (e *Engine) aggregate(scores map[string]category.CategoryScore, weights map[string]float64, triggered []breakers.Outcome) (*Overall, bool) {
	effect := breakers.Resolve(triggered)
	if effect.ForceFail {
		return nil, false
	}

	weightedSum := 0.0
	weightTotal := 0.0
	for cat, cs := range scores {
		if cs.InsufficientData {
			continue
		}
		w := weights[cat]
		weightedSum += cs.Score * w
		weightTotal += w
	}
	if weightTotal == 0 {
		return nil, false
	}
	score := weightedSum / weightTotal

	if effect.Cap != nil && score > *effect.Cap {
		score = *effect.Cap
	}

	band := e.reg.GradeFor(score)
	return &Overall{Score: score, Grade: band.Label, RiskLevel: band.RiskLevel}, true
}

func copyFloats(m map[string]float64) map[string]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
