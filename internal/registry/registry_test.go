package registry

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultRegistryValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default registry failed validation: %v", err)
	}
}

func TestGradeBoundaries(t *testing.T) {
	reg := Default()

	testCases := []struct {
		score float64
		grade string
	}{
		{100, "A"},
		{85, "A"},
		{84.9, "B"},
		{84, "B"},
		{70, "B"},
		{69.5, "C"},
		{69, "C"},
		{55, "C"},
		{54.5, "D"},
		{54, "D"},
		{40, "D"},
		{39.5, "F"},
		{39, "F"},
		{0, "F"},
	}

	for _, tc := range testCases {
		band := reg.GradeFor(tc.score)
		if band.Label != tc.grade {
			t.Errorf("GradeFor(%.1f) = %s, want %s", tc.score, band.Label, tc.grade)
		}
	}
}

func TestGradePartitionCoversWholeRange(t *testing.T) {
	reg := Default()

	// Every score in [0,100] must land in exactly one half-open band;
	// only the top band includes its Max.
	for s := 0.0; s <= 100.0; s += 0.25 {
		band := reg.GradeFor(s)
		if band.Label == "" {
			t.Fatalf("score %.2f resolved to no grade band", s)
		}
		if s < band.Min {
			t.Fatalf("score %.2f resolved to band %s [%.0f,%.0f) below range", s, band.Label, band.Min, band.Max)
		}
		if s >= band.Max && band.Max != 100 {
			t.Fatalf("score %.2f resolved to band %s [%.0f,%.0f) outside range", s, band.Label, band.Min, band.Max)
		}
	}
}

func TestGradeForClampsOutOfRange(t *testing.T) {
	reg := Default()
	if band := reg.GradeFor(-5); band.Label != "F" {
		t.Errorf("GradeFor(-5) = %s, want F", band.Label)
	}
	if band := reg.GradeFor(104); band.Label != "A" {
		t.Errorf("GradeFor(104) = %s, want A", band.Label)
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	reg := Default()
	reg.CategoryWeights[CategoryMarket] = CategoryWeight{Weight: 0.50}

	if err := reg.Validate(); err == nil {
		t.Fatal("expected validation error for weights not summing to 1.0")
	}
}

func TestValidateRejectsGradeGap(t *testing.T) {
	reg := Default()
	reg.GradeScale = []GradeBand{
		{Min: 0, Max: 40, Label: "F"},
		{Min: 50, Max: 100, Label: "A"}, // gap [40,50)
	}

	if err := reg.Validate(); err == nil {
		t.Fatal("expected validation error for gapped grade bands")
	}
}

func TestValidateRejectsOverlappingBands(t *testing.T) {
	reg := Default()
	reg.GradeScale = []GradeBand{
		{Min: 0, Max: 45, Label: "F"},
		{Min: 40, Max: 100, Label: "A"}, // overlap [40,45)
	}

	if err := reg.Validate(); err == nil {
		t.Fatal("expected validation error for overlapping grade bands")
	}
}

func TestValidateRejectsUnknownBreakerEffect(t *testing.T) {
	reg := Default()
	reg.Breakers = append(reg.Breakers, BreakerSpec{Name: "bogus", Effect: "explode"})

	if err := reg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown breaker effect")
	}
}

func TestResolveWeightsPartialOverride(t *testing.T) {
	reg := Default()

	// Shift 0.15 from counterparty into smart_contract; total stays 1.0.
	resolved, err := reg.ResolveWeights(map[string]float64{
		CategorySmartContract: 0.40,
		CategoryCounterparty:  0.05,
	})
	if err != nil {
		t.Fatalf("ResolveWeights failed: %v", err)
	}

	if resolved[CategorySmartContract] != 0.40 {
		t.Errorf("smart_contract weight = %.2f, want 0.40", resolved[CategorySmartContract])
	}
	// Unspecified categories keep their defaults, not zero.
	if resolved[CategoryMarket] != reg.CategoryWeights[CategoryMarket].Weight {
		t.Errorf("market weight = %.2f, want default %.2f",
			resolved[CategoryMarket], reg.CategoryWeights[CategoryMarket].Weight)
	}

	sum := 0.0
	for _, w := range resolved {
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("resolved weights sum to %.4f, want 1.0", sum)
	}
}

func TestResolveWeightsRejectsBadSum(t *testing.T) {
	reg := Default()
	if _, err := reg.ResolveWeights(map[string]float64{CategorySmartContract: 0.90}); err == nil {
		t.Fatal("expected error for override breaking the weight sum")
	}
}

func TestResolveWeightsRejectsUnknownCategory(t *testing.T) {
	reg := Default()
	if _, err := reg.ResolveWeights(map[string]float64{"governance": 0.25}); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestResolveBreakers(t *testing.T) {
	reg := Default()

	resolved, err := reg.ResolveBreakers(map[string]bool{BreakerNoAudit: false})
	if err != nil {
		t.Fatalf("ResolveBreakers failed: %v", err)
	}
	if resolved[BreakerNoAudit] {
		t.Error("no_audit should be disabled after override")
	}
	if !resolved[BreakerReserveUndercollateralized] {
		t.Error("untouched breakers should keep their default enabled state")
	}

	if _, err := reg.ResolveBreakers(map[string]bool{"nonexistent": true}); err == nil {
		t.Fatal("expected error for unknown breaker name")
	}
}

func TestLoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "registry.yaml")

	data, err := yaml.Marshal(Default())
	if err != nil {
		t.Fatalf("failed to marshal registry: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("failed to write registry file: %v", err)
	}

	reg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if band := reg.GradeFor(90); band.Label != "A" {
		t.Errorf("loaded registry GradeFor(90) = %s, want A", band.Label)
	}
	if len(reg.Ladders[CategoryMarket]) == 0 {
		t.Error("loaded registry lost the market ladders")
	}
}

func TestLoadRejectsInvalidRegistry(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "registry.yaml")

	bad := Default()
	bad.CategoryWeights[CategoryLiquidity] = CategoryWeight{Weight: 0.60}
	data, _ := yaml.Marshal(bad)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("failed to write registry file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("expected Load to reject registry with bad weight sum")
	}
}
