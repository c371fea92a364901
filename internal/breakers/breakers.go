// Package breakers evaluates hard-stop conditions against the metric bundle
// and the category scores. A triggered breaker either caps the final score or
// force-fails the asset outright, independent of the weighted sum.
package breakers

import (
	"fmt"

	"github.com/protocolchecker/riskframe/internal/bundle"
	"github.com/protocolchecker/riskframe/internal/category"
	"github.com/protocolchecker/riskframe/internal/registry"
)

// Effect is the tagged outcome of a triggered breaker.
type Effect struct {
	ForceFail bool     `json:"force_fail"`
	Cap       *float64 `json:"cap,omitempty"`
}

// Outcome records one triggered breaker.
type Outcome struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Effect   Effect `json:"effect"`
	Reason   string `json:"reason"`
}

// Result is the full breaker evaluation: what fired plus the enabled/disabled
// config that was in force, for auditability.
type Result struct {
	Triggered []Outcome       `json:"triggered"`
	Enabled   map[string]bool `json:"enabled"`
}

// Evaluate runs every enabled breaker. The active-incident predicate is the
// same one the primary check uses; it is re-checked here because a breaker
// can independently cap a score even when the gate already ran.
func Evaluate(b *bundle.AssetMetricBundle, scores map[string]category.CategoryScore, enabled map[string]bool, reg *registry.Registry) Result {
	result := Result{Enabled: enabled, Triggered: []Outcome{}}

	fire := func(name, reason string) {
		if !enabled[name] {
			return
		}
		spec, ok := reg.BreakerSpecFor(name)
		if !ok {
			return
		}
		out := Outcome{Name: name, Severity: spec.Severity, Reason: reason}
		if spec.Effect == registry.EffectForceFail {
			out.Effect.ForceFail = true
		} else {
			ceiling := spec.Cap
			out.Effect.Cap = &ceiling
		}
		result.Triggered = append(result.Triggered, out)
	}

	if ratio, ok := b.Value(bundle.MetricReserveRatio); ok && ratio < 1.0 {
		fire(registry.BreakerReserveUndercollateralized,
			fmt.Sprintf("reserve ratio %.4f below 1.0", ratio))
	}

	if allEOA, ok := b.Bool(bundle.MetricAllAdminEOA); ok && allEOA {
		fire(registry.BreakerAllAdminEOA,
			"every privileged role is an externally-owned account")
	}

	if inc, ok := b.ActiveIncident(); ok {
		fire(registry.BreakerActiveSecurityIncident,
			fmt.Sprintf("incident %.0f days ago with $%.0f lost", inc.DaysAgo, inc.FundsLostUSD))
	}

	// The severe-weakness breaker stays independently evaluable: it yields
	// only to a critical-floor breach that can actually fire. With the
	// critical breaker disabled, a sub-20 category still trips the severe cap.
	if name, score, ok := worstBelow(scores, registry.CriticalCategoryFloor); ok && enabled[registry.BreakerCriticalCategoryFailure] {
		fire(registry.BreakerCriticalCategoryFailure,
			fmt.Sprintf("category %s scored %.1f, below critical floor %.0f", name, score, registry.CriticalCategoryFloor))
	} else if name, score, ok := worstBelow(scores, registry.SevereCategoryFloor); ok {
		fire(registry.BreakerSevereCategoryWeakness,
			fmt.Sprintf("category %s scored %.1f, below severe floor %.0f", name, score, registry.SevereCategoryFloor))
	}

	if !b.HasAuditData() {
		fire(registry.BreakerNoAudit, "no security audit on record")
	}

	return result
}

// worstBelow finds the lowest category score under the floor, ignoring
// insufficient-data categories (absence of data is handled by exclusion, not
// by tripping a breaker).
func worstBelow(scores map[string]category.CategoryScore, floor float64) (string, float64, bool) {
	name := ""
	worst := floor
	found := false
	for _, cs := range scores {
		if cs.InsufficientData {
			continue
		}
		if cs.Score < worst {
			name = cs.Category
			worst = cs.Score
			found = true
		}
	}
	return name, worst, found
}

// Resolve combines triggered breakers into the most restrictive overall
// effect: force-fail beats any cap; among caps the lowest wins.
func Resolve(triggered []Outcome) Effect {
	var combined Effect
	for _, out := range triggered {
		if out.Effect.ForceFail {
			combined.ForceFail = true
		}
		if out.Effect.Cap != nil {
			if combined.Cap == nil || *out.Effect.Cap < *combined.Cap {
				ceiling := *out.Effect.Cap
				combined.Cap = &ceiling
			}
		}
	}
	return combined
}
