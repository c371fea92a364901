package category

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocolchecker/riskframe/internal/bundle"
	"github.com/protocolchecker/riskframe/internal/registry"
)

func TestReserveRatioScore(t *testing.T) {
	testCases := []struct {
		ratio float64
		score float64
	}{
		{1.0, 95},
		{1.05, 100}, // bonus capped at +5
		{1.50, 100},
		{0.95, 70}, // 95 - 0.05*500
		{0.90, 45},
		{0.81, 0},  // 95 - 0.19*500 < 0, floored
		{0.50, 0},
	}

	for _, tc := range testCases {
		score, _ := ReserveRatioScore(tc.ratio)
		assert.InDelta(t, tc.score, score, 1e-9, "ratio %.2f", tc.ratio)
	}
}

func TestCustodyOrdinalTable(t *testing.T) {
	scorer := NewScorer(registry.Default())

	models := []string{"decentralized", "regulated_insured", "regulated", "unregulated", "unknown"}
	var prev float64 = 101
	for _, model := range models {
		b := &bundle.AssetMetricBundle{CustodyModel: model}
		score, _, ok := scorer.custodyScore(b)
		require.True(t, ok, "custody model %s must resolve", model)
		assert.Less(t, score, prev, "custody table must be strictly ordinal at %s", model)
		prev = score
	}
}

func TestUnrecognisedCustodyFallsBackToUnknown(t *testing.T) {
	scorer := NewScorer(registry.Default())

	b := &bundle.AssetMetricBundle{CustodyModel: "self_custody_llc"}
	score, why, ok := scorer.custodyScore(b)
	require.True(t, ok)
	assert.Equal(t, 20.0, score)
	assert.Contains(t, why, "unrecognised")
}

func TestMissingSubMetricsAreSkippedNotZeroed(t *testing.T) {
	scorer := NewScorer(registry.Default())

	// Only one market sub-metric present: score must equal that sub-score,
	// not be dragged down by absent metrics.
	b := &bundle.AssetMetricBundle{
		Metrics: map[string]float64{bundle.MetricPegDeviationPct: 0},
	}

	cs := scorer.Score(b, []string{registry.CategoryMarket})[registry.CategoryMarket]
	assert.False(t, cs.InsufficientData)
	assert.InDelta(t, 95, cs.Score, 1e-9)

	skips := 0
	for _, j := range cs.Justifications {
		if strings.HasSuffix(j, "skipped") {
			skips++
		}
	}
	assert.Equal(t, 2, skips, "absent sub-metrics must be recorded as skipped")
}

func TestCategoryWithNoDataFlagsInsufficient(t *testing.T) {
	scorer := NewScorer(registry.Default())

	b := &bundle.AssetMetricBundle{}
	cs := scorer.Score(b, []string{registry.CategoryLiquidity})[registry.CategoryLiquidity]

	assert.True(t, cs.InsufficientData)
	assert.Equal(t, 0.0, cs.Score)
	assert.Contains(t, cs.Justifications[len(cs.Justifications)-1], "insufficient data")
}

func TestScoreAllCoversEveryCategory(t *testing.T) {
	scorer := NewScorer(registry.Default())

	scores := scorer.ScoreAll(&bundle.AssetMetricBundle{
		CustodyModel: "decentralized",
		Metrics: map[string]float64{
			bundle.MetricAuditCount:    2,
			bundle.MetricTimelockHours: 48,
			bundle.MetricReserveRatio:  1.01,
			bundle.MetricTVLUSD:        2e8,
		},
	})

	require.Len(t, scores, len(registry.AllCategories))
	for _, cat := range registry.AllCategories {
		cs, ok := scores[cat]
		require.True(t, ok, "category %s missing", cat)
		assert.GreaterOrEqual(t, cs.Score, 0.0)
		assert.LessOrEqual(t, cs.Score, 100.0)
	}

	assert.False(t, scores[registry.CategorySmartContract].InsufficientData)
	assert.True(t, scores[registry.CategoryCollateral].InsufficientData)
}
