// Package category maps the raw metric bundle into six per-category
// sub-scores using the registry's threshold ladders. Missing sub-metrics are
// skipped with a justification, never treated as zero; a category with no
// resolvable sub-metrics at all is flagged insufficient-data so the
// aggregator can exclude it instead of penalising the asset.
package category

import (
	"fmt"
	"math"

	"github.com/protocolchecker/riskframe/internal/bundle"
	"github.com/protocolchecker/riskframe/internal/registry"
)

// CategoryScore is one category's result.
type CategoryScore struct {
	Category         string   `json:"category"`
	Score            float64  `json:"score"`
	Weight           float64  `json:"weight"`
	InsufficientData bool     `json:"insufficient_data,omitempty"`
	Justifications   []string `json:"justifications"`
}

// Scorer evaluates categories against a fixed registry.
type Scorer struct {
	reg *registry.Registry
}

// NewScorer returns a scorer bound to the given registry.
func NewScorer(reg *registry.Registry) *Scorer {
	return &Scorer{reg: reg}
}

// ScoreAll computes every category score for the bundle.
func (s *Scorer) ScoreAll(b *bundle.AssetMetricBundle) map[string]CategoryScore {
	return s.Score(b, registry.AllCategories)
}

// Score computes scores for the requested categories.
func (s *Scorer) Score(b *bundle.AssetMetricBundle, categories []string) map[string]CategoryScore {
	out := make(map[string]CategoryScore, len(categories))
	for _, cat := range categories {
		out[cat] = s.scoreCategory(b, cat)
	}
	return out
}

func (s *Scorer) scoreCategory(b *bundle.AssetMetricBundle, cat string) CategoryScore {
	cs := CategoryScore{Category: cat}

	var subScores []float64

	for _, ladder := range s.reg.Ladders[cat] {
		value, ok := b.Value(ladder.Metric)
		if !ok {
			cs.Justifications = append(cs.Justifications,
				fmt.Sprintf("%s: not reported, skipped", ladder.Metric))
			continue
		}
		score, why := ladder.Evaluate(value)
		subScores = append(subScores, score)
		cs.Justifications = append(cs.Justifications,
			fmt.Sprintf("%s=%.4g -> %.1f (%s)", ladder.Metric, value, score, why))
	}

	// Special-cased sub-metrics that are not simple ladders.
	switch cat {
	case registry.CategoryCounterparty:
		if score, why, ok := s.custodyScore(b); ok {
			subScores = append(subScores, score)
			cs.Justifications = append(cs.Justifications, why)
		} else {
			cs.Justifications = append(cs.Justifications, "custody_model: not reported, skipped")
		}
	case registry.CategoryReserveOracle:
		if ratio, ok := b.Value(bundle.MetricReserveRatio); ok {
			score, why := ReserveRatioScore(ratio)
			subScores = append(subScores, score)
			cs.Justifications = append(cs.Justifications, why)
		} else {
			cs.Justifications = append(cs.Justifications, "reserve_ratio: not reported, skipped")
		}
	}

	if len(subScores) == 0 {
		cs.InsufficientData = true
		cs.Justifications = append(cs.Justifications, "insufficient data: no sub-metric resolvable")
		return cs
	}

	sum := 0.0
	for _, v := range subScores {
		sum += v
	}
	cs.Score = clamp(sum / float64(len(subScores)))
	return cs
}

// custodyScore looks up the fixed ordinal custody table. An unrecognised
// custody model falls back to the "unknown" row rather than being skipped:
// disclosing a custody model nobody can classify is itself a signal.
func (s *Scorer) custodyScore(b *bundle.AssetMetricBundle) (float64, string, bool) {
	if b.CustodyModel == "" {
		return 0, "", false
	}
	entry, ok := s.reg.CustodyScores[b.CustodyModel]
	if !ok {
		entry, ok = s.reg.CustodyScores["unknown"]
		if !ok {
			return 0, "", false
		}
		return entry.Score, fmt.Sprintf("custody_model=%q unrecognised -> %.1f (%s)",
			b.CustodyModel, entry.Score, entry.Justification), true
	}
	return entry.Score, fmt.Sprintf("custody_model=%s -> %.1f (%s)",
		b.CustodyModel, entry.Score, entry.Justification), true
}

// ReserveRatioScore scores the backing ratio. Modest over-collateralization
// earns a small bonus on top of 95; under-collateralization is punished five
// times more steeply per unit below peg.
func ReserveRatioScore(ratio float64) (float64, string) {
	var score float64
	if ratio >= 1.0 {
		score = 95 + math.Min(5, (ratio-1)*100)
	} else {
		score = math.Max(0, 95-(1-ratio)*500)
	}
	score = clamp(score)
	return score, fmt.Sprintf("reserve_ratio=%.4f -> %.1f", ratio, score)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
