package bundle

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Canonical metric keys produced by Normalize.
const (
	MetricAuditCount              = "audit_count"
	MetricTimelockHours           = "timelock_hours"
	MetricBugBountyUSD            = "bug_bounty_usd"
	MetricCounterpartyConcPct     = "counterparty_concentration_pct"
	MetricRecursiveLendingRatio   = "recursive_lending_ratio"
	MetricPegDeviationPct         = "peg_deviation_pct"
	MetricVolatility30dPct        = "volatility_30d_pct"
	MetricUtilizationPct          = "utilization_pct"
	MetricSlippage100kBps         = "slippage_100k_bps"
	MetricTVLUSD                  = "tvl_usd"
	MetricHolderHHI               = "holder_hhi"
	MetricCollateralRatioPct      = "collateral_ratio_pct"
	MetricCascadeLiquidationRisk  = "cascade_liquidation_risk"
	MetricReserveRatio            = "reserve_ratio"
	MetricOracleStalenessSeconds  = "oracle_staleness_seconds"
	MetricAttestationAgeHours     = "attestation_age_hours"
	MetricAllAdminEOA             = "all_admin_eoa"
	MetricSingleAssetAllocPct     = "single_asset_allocation_pct"
)

// metricAliases maps each canonical key to the external field names it may
// arrive under. Order matters: the first alias found wins.
var metricAliases = map[string][]string{
	MetricTimelockHours:          {"timelock_hours", "timelock"},
	MetricBugBountyUSD:           {"bug_bounty_usd", "bug_bounty"},
	MetricCounterpartyConcPct:    {"counterparty_concentration_pct", "counterparty_concentration"},
	MetricRecursiveLendingRatio:  {"recursive_lending_ratio", "rlr"},
	MetricPegDeviationPct:        {"peg_deviation_pct", "peg_deviation"},
	MetricVolatility30dPct:       {"volatility_30d_pct", "volatility_30d"},
	MetricUtilizationPct:         {"utilization_pct", "utilization"},
	MetricSlippage100kBps:        {"slippage_100k_bps", "slippage_bps"},
	MetricTVLUSD:                 {"tvl_usd", "tvl"},
	MetricHolderHHI:              {"holder_hhi", "hhi"},
	MetricCollateralRatioPct:     {"collateral_ratio_pct", "collateral_ratio"},
	MetricCascadeLiquidationRisk: {"cascade_liquidation_risk", "clr"},
	MetricOracleStalenessSeconds: {"oracle_staleness_seconds", "oracle_staleness", "oracle_age_seconds"},
	MetricAttestationAgeHours:    {"attestation_age_hours", "por_attestation_age_hours"},
	MetricSingleAssetAllocPct:    {"single_asset_allocation_pct", "single_asset_allocation", "max_allocation_pct"},
}

// Normalize maps a raw per-asset config (JSON-shaped, as delivered by the
// fetcher layer) onto the canonical AssetMetricBundle. It tolerates both the
// legacy dict-of-chains reserve shape and the new list-of-records shape,
// multiple field-name aliases, and explicit nulls anywhere. It never mutates
// the input.
func Normalize(raw map[string]interface{}) *AssetMetricBundle {
	b := &AssetMetricBundle{Metrics: make(map[string]float64)}
	if raw == nil {
		return b
	}

	if s, ok := asString(firstPresent(raw, "asset_symbol", "symbol")); ok {
		b.Symbol = s
	}
	if s, ok := asString(raw["custody_model"]); ok {
		b.CustodyModel = strings.ToLower(strings.TrimSpace(s))
	}

	b.Audits = normalizeAudits(raw["audit_data"])
	if len(b.Audits) > 0 {
		b.Metrics[MetricAuditCount] = float64(len(b.Audits))
	}

	b.Incidents = normalizeIncidents(raw["incidents"])

	for canonical, aliases := range metricAliases {
		for _, alias := range aliases {
			if v, ok := asFloat(raw[alias]); ok {
				b.Metrics[canonical] = v
				break
			}
		}
	}

	normalizeReserves(raw, b)

	if flag, ok := asBool(raw["all_admin_eoa"]); ok {
		if flag {
			b.Metrics[MetricAllAdminEOA] = 1
		} else {
			b.Metrics[MetricAllAdminEOA] = 0
		}
	}

	return b
}

// normalizeReserves resolves the reserve ratio from any supported shape:
// a plain reserve_ratio field, a backing_ratio_pct percentage, a legacy
// dict-of-chains {"ethereum": {"ratio": ...}} map, or the new list-of-records
// [{"chain": ..., "ratio": ...}]. Multi-chain shapes collapse to the minimum
// ratio across chains: the weakest backing is the one that matters.
func normalizeReserves(raw map[string]interface{}, b *AssetMetricBundle) {
	if v, ok := asFloat(raw["reserve_ratio"]); ok {
		b.Metrics[MetricReserveRatio] = v
		return
	}
	if v, ok := asFloat(raw["backing_ratio_pct"]); ok {
		b.Metrics[MetricReserveRatio] = v / 100.0
		return
	}
	if v, ok := asFloat(raw["backing_ratio"]); ok {
		b.Metrics[MetricReserveRatio] = v
		return
	}

	reserves, present := raw["reserves"]
	if !present || reserves == nil {
		return
	}

	ratios := []float64{}
	switch shaped := reserves.(type) {
	case map[string]interface{}: // legacy dict-of-chains
		for _, entry := range shaped {
			if m, ok := entry.(map[string]interface{}); ok {
				if r, ok := asFloat(firstPresent(m, "ratio", "reserve_ratio")); ok {
					ratios = append(ratios, r)
				}
			}
		}
	case []interface{}: // new list-of-records
		for _, entry := range shaped {
			if m, ok := entry.(map[string]interface{}); ok {
				if r, ok := asFloat(firstPresent(m, "ratio", "reserve_ratio")); ok {
					ratios = append(ratios, r)
				}
			}
		}
	}

	if len(ratios) == 0 {
		return
	}
	min := ratios[0]
	for _, r := range ratios[1:] {
		if r < min {
			min = r
		}
	}
	b.Metrics[MetricReserveRatio] = min
}

// normalizeAudits accepts the flat single-audit map, a {"audits": [...]}
// wrapper, or a bare list of audit records.
func normalizeAudits(raw interface{}) []Audit {
	if raw == nil {
		return nil
	}

	switch shaped := raw.(type) {
	case map[string]interface{}:
		if len(shaped) == 0 {
			return nil
		}
		if nested, ok := shaped["audits"].([]interface{}); ok {
			return auditList(nested)
		}
		if a, ok := auditRecord(shaped); ok {
			return []Audit{a}
		}
		return nil
	case []interface{}:
		return auditList(shaped)
	}
	return nil
}

func auditList(entries []interface{}) []Audit {
	audits := make([]Audit, 0, len(entries))
	for _, entry := range entries {
		if m, ok := entry.(map[string]interface{}); ok {
			if a, ok := auditRecord(m); ok {
				audits = append(audits, a)
			}
		}
	}
	if len(audits) == 0 {
		return nil
	}
	return audits
}

// auditRecord extracts one audit from a map, reading critical counts from
// either nested {"issues": {"critical": n}} / {"unresolved": {"critical": n}}
// objects or flat issues_critical / unresolved_critical fields.
func auditRecord(m map[string]interface{}) (Audit, bool) {
	a := Audit{}
	if s, ok := asString(firstPresent(m, "auditor", "firm", "name")); ok {
		a.Auditor = s
	}
	if s, ok := asString(firstPresent(m, "date", "audit_date")); ok {
		a.Date = s
	}

	a.IssuesCritical = criticalCount(m, "issues", "issues_critical")
	a.UnresolvedCritical = criticalCount(m, "unresolved", "unresolved_critical")

	if a.Auditor == "" && a.IssuesCritical == nil && a.UnresolvedCritical == nil && a.Date == "" {
		// Flat map that carried none of the audit fields; treat a bare
		// {"audited": true} as a single anonymous audit.
		if flag, ok := asBool(m["audited"]); ok && flag {
			return a, true
		}
		return a, false
	}
	return a, true
}

func criticalCount(m map[string]interface{}, nestedKey, flatKey string) *int {
	if nested, ok := m[nestedKey].(map[string]interface{}); ok {
		if v, ok := asFloat(nested["critical"]); ok {
			n := int(v)
			return &n
		}
	}
	if v, ok := asFloat(m[flatKey]); ok {
		n := int(v)
		return &n
	}
	return nil
}

func normalizeIncidents(raw interface{}) []Incident {
	entries, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	incidents := make([]Incident, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		inc := Incident{}
		if v, ok := asFloat(m["days_ago"]); ok {
			inc.DaysAgo = v
		}
		if v, ok := asFloat(firstPresent(m, "funds_lost", "funds_lost_usd")); ok {
			inc.FundsLostUSD = v
		}
		if s, ok := asString(firstPresent(m, "description", "summary")); ok {
			inc.Description = s
		}
		incidents = append(incidents, inc)
	}
	if len(incidents) == 0 {
		return nil
	}
	return incidents
}

func firstPresent(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func asBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case float64:
		return b != 0, true
	case int:
		return b != 0, true
	}
	return false, false
}
