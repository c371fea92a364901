// Package bundle defines the canonical per-asset metric bundle consumed by
// the scoring engine, plus the boundary normalization that maps every
// supported external config shape onto it. The scoring core never sees raw
// fetcher output.
package bundle

import (
	"fmt"
	"strings"
)

// Audit is one normalized audit record. Counts are pointers so "field absent"
// stays distinguishable from an explicit zero.
type Audit struct {
	Auditor            string `json:"auditor"`
	IssuesCritical     *int   `json:"issues_critical,omitempty"`
	UnresolvedCritical *int   `json:"unresolved_critical,omitempty"`
	Date               string `json:"date,omitempty"`
}

// EffectiveCritical returns the unresolved critical count when known,
// preferring it over the raw issue count: a found-but-resolved issue does not
// count against the asset. The second return is false when neither field is
// present.
func (a Audit) EffectiveCritical() (int, bool) {
	if a.UnresolvedCritical != nil {
		return *a.UnresolvedCritical, true
	}
	if a.IssuesCritical != nil {
		return *a.IssuesCritical, true
	}
	return 0, false
}

// Incident is one normalized security incident record.
type Incident struct {
	DaysAgo      float64 `json:"days_ago"`
	FundsLostUSD float64 `json:"funds_lost_usd"`
	Description  string  `json:"description,omitempty"`
}

// ActiveIncidentWindowDays bounds how recent an incident must be to count as
// active. Shared by the primary check and the circuit breaker so both apply
// the same predicate.
const ActiveIncidentWindowDays = 30

// Active reports whether the incident is recent and lost funds.
func (i Incident) Active() bool {
	return i.DaysAgo <= ActiveIncidentWindowDays && i.FundsLostUSD > 0
}

// AssetMetricBundle is the single input to a scoring run: every metric the
// fetcher layer produced for one asset at one point in time. Immutable for
// the duration of the run; the engine only reads it.
type AssetMetricBundle struct {
	Symbol       string             `json:"symbol"`
	Audits       []Audit            `json:"audits,omitempty"`
	Incidents    []Incident         `json:"incidents,omitempty"`
	CustodyModel string             `json:"custody_model,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

// HasAuditData reports whether any audit record survived normalization.
func (b *AssetMetricBundle) HasAuditData() bool {
	return len(b.Audits) > 0
}

// ActiveIncident returns the first active incident, if any.
func (b *AssetMetricBundle) ActiveIncident() (Incident, bool) {
	for _, inc := range b.Incidents {
		if inc.Active() {
			return inc, true
		}
	}
	return Incident{}, false
}

// Value looks up a canonical numeric metric. Absent metrics return ok=false;
// callers skip them rather than defaulting to zero.
func (b *AssetMetricBundle) Value(key string) (float64, bool) {
	if b.Metrics == nil {
		return 0, false
	}
	v, ok := b.Metrics[key]
	return v, ok
}

// Bool interprets a canonical metric as a flag (non-zero means true).
func (b *AssetMetricBundle) Bool(key string) (bool, bool) {
	v, ok := b.Value(key)
	return v != 0, ok
}

// AuditorSummary renders the auditor list for check output, e.g.
// "2 auditors: Trail of Bits, OpenZeppelin".
func (b *AssetMetricBundle) AuditorSummary() string {
	if len(b.Audits) == 0 {
		return "no audit data"
	}

	names := make([]string, 0, len(b.Audits))
	for _, a := range b.Audits {
		if a.Auditor != "" {
			names = append(names, a.Auditor)
		}
	}

	noun := "auditors"
	if len(b.Audits) == 1 {
		noun = "auditor"
	}
	summary := fmt.Sprintf("%d %s", len(b.Audits), noun)
	if len(names) == 0 {
		return summary
	}
	return summary + ": " + strings.Join(names, ", ")
}
