package registry

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Category keys used across the scoring engine.
const (
	CategorySmartContract = "smart_contract"
	CategoryCounterparty  = "counterparty"
	CategoryMarket        = "market"
	CategoryLiquidity     = "liquidity"
	CategoryCollateral    = "collateral"
	CategoryReserveOracle = "reserve_oracle"
)

// AllCategories lists every scoring category in evaluation order.
var AllCategories = []string{
	CategorySmartContract,
	CategoryCounterparty,
	CategoryMarket,
	CategoryLiquidity,
	CategoryCollateral,
	CategoryReserveOracle,
}

// WeightSumTolerance is the allowed deviation from 1.0 for category weights.
const WeightSumTolerance = 0.001

// GradeBand maps a contiguous score range to a letter grade. Ranges are
// half-open [Min,Max) so fractional scores always land in exactly one band;
// the top band additionally includes its Max so 100 grades as A.
type GradeBand struct {
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Label     string  `yaml:"label"`
	RiskLevel string  `yaml:"risk_level"`
}

// CategoryWeight is the default contribution of one category to the overall score.
type CategoryWeight struct {
	Weight        float64 `yaml:"weight"`
	Justification string  `yaml:"justification"`
}

// CustodyScore is the fixed ordinal score for one custody model.
type CustodyScore struct {
	Score         float64 `yaml:"score"`
	Justification string  `yaml:"justification"`
}

// Breaker effect kinds.
const (
	EffectForceFail = "force_fail"
	EffectCap       = "cap"
)

// Breaker severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
)

// BreakerSpec declares one circuit breaker: its severity, its effect on the
// final score and whether it is enabled by default.
type BreakerSpec struct {
	Name     string  `yaml:"name"`
	Severity string  `yaml:"severity"`
	Effect   string  `yaml:"effect"` // force_fail | cap
	Cap      float64 `yaml:"cap"`    // ceiling applied when Effect == cap
	Enabled  bool    `yaml:"enabled"`
}

// Registry is the immutable threshold/weight configuration for a scoring run.
// Construct once via Default or Load; tests can build alternates directly.
type Registry struct {
	GradeScale      []GradeBand               `yaml:"grade_scale"`
	CategoryWeights map[string]CategoryWeight `yaml:"category_weights"`
	Ladders         map[string][]MetricLadder `yaml:"ladders"`
	CustodyScores   map[string]CustodyScore   `yaml:"custody_scores"`
	Breakers        []BreakerSpec             `yaml:"circuit_breakers"`
}

// Load reads a registry from a YAML file and validates it.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file %s: %w", path, err)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry YAML: %w", err)
	}

	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid registry configuration: %w", err)
	}

	return &reg, nil
}

// Validate rejects registries whose weights do not sum to 1.0 or whose grade
// bands leave gaps or overlap within [0,100].
func (r *Registry) Validate() error {
	if len(r.GradeScale) == 0 {
		return fmt.Errorf("grade scale is empty")
	}

	bands := make([]GradeBand, len(r.GradeScale))
	copy(bands, r.GradeScale)
	sort.Slice(bands, func(i, j int) bool { return bands[i].Min < bands[j].Min })

	if bands[0].Min != 0 {
		return fmt.Errorf("grade scale must start at 0, starts at %.1f", bands[0].Min)
	}
	if bands[len(bands)-1].Max != 100 {
		return fmt.Errorf("grade scale must end at 100, ends at %.1f", bands[len(bands)-1].Max)
	}
	for i, band := range bands {
		if band.Max < band.Min {
			return fmt.Errorf("grade band %s has max %.1f below min %.1f", band.Label, band.Max, band.Min)
		}
		if i > 0 && band.Min != bands[i-1].Max {
			return fmt.Errorf("grade bands %s and %s do not form a contiguous cover (%.1f -> %.1f)",
				bands[i-1].Label, band.Label, bands[i-1].Max, band.Min)
		}
	}

	if len(r.CategoryWeights) == 0 {
		return fmt.Errorf("category weights are empty")
	}
	sum := 0.0
	for name, cw := range r.CategoryWeights {
		if cw.Weight < 0 {
			return fmt.Errorf("negative weight for category %s: %.4f", name, cw.Weight)
		}
		sum += cw.Weight
	}
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return fmt.Errorf("category weights sum to %.4f, must sum to 1.0 (±%.3f)", sum, WeightSumTolerance)
	}

	for cat, ladders := range r.Ladders {
		for _, ladder := range ladders {
			if err := ladder.validate(); err != nil {
				return fmt.Errorf("category %s: %w", cat, err)
			}
		}
	}

	for _, spec := range r.Breakers {
		switch spec.Effect {
		case EffectForceFail:
		case EffectCap:
			if spec.Cap < 0 || spec.Cap > 100 {
				return fmt.Errorf("breaker %s has cap %.1f outside [0,100]", spec.Name, spec.Cap)
			}
		default:
			return fmt.Errorf("breaker %s has unknown effect %q", spec.Name, spec.Effect)
		}
	}

	return nil
}

// GradeFor maps a final score to its grade band. Scores are clamped to
// [0,100] before lookup so a capped or rounded score always lands in a band.
func (r *Registry) GradeFor(score float64) GradeBand {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var best GradeBand
	found := false
	for _, band := range r.GradeScale {
		if score >= band.Min && (!found || band.Min > best.Min) {
			best = band
			found = true
		}
	}
	return best
}

// ResolveWeights merges partial custom overrides with the registry defaults,
// filling unspecified categories from defaults, and validates that the
// resulting mapping still sums to 1.0.
func (r *Registry) ResolveWeights(overrides map[string]float64) (map[string]float64, error) {
	resolved := make(map[string]float64, len(r.CategoryWeights))
	for name, cw := range r.CategoryWeights {
		resolved[name] = cw.Weight
	}

	for name, w := range overrides {
		if _, ok := resolved[name]; !ok {
			return nil, fmt.Errorf("unknown category in custom weights: %s", name)
		}
		if w < 0 {
			return nil, fmt.Errorf("negative custom weight for %s: %.4f", name, w)
		}
		resolved[name] = w
	}

	sum := 0.0
	for _, w := range resolved {
		sum += w
	}
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return nil, fmt.Errorf("resolved weights sum to %.4f, must sum to 1.0 (±%.3f)", sum, WeightSumTolerance)
	}

	return resolved, nil
}

// ResolveBreakers merges per-breaker enable/disable overrides with the
// registry defaults. Unknown breaker names are rejected so a typo cannot
// silently leave a breaker in its default state.
func (r *Registry) ResolveBreakers(overrides map[string]bool) (map[string]bool, error) {
	resolved := make(map[string]bool, len(r.Breakers))
	for _, spec := range r.Breakers {
		resolved[spec.Name] = spec.Enabled
	}

	for name, enabled := range overrides {
		if _, ok := resolved[name]; !ok {
			return nil, fmt.Errorf("unknown circuit breaker: %s", name)
		}
		resolved[name] = enabled
	}

	return resolved, nil
}

// BreakerSpecFor returns the declaration for a named breaker.
func (r *Registry) BreakerSpecFor(name string) (BreakerSpec, bool) {
	for _, spec := range r.Breakers {
		if spec.Name == name {
			return spec, true
		}
	}
	return BreakerSpec{}, false
}
