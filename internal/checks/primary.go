// Package checks implements the binary primary checks that gate scoring.
// An asset must pass every check before any category scoring happens.
package checks

import (
	"fmt"

	"github.com/protocolchecker/riskframe/internal/bundle"
)

// Status is the outcome of one primary check.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusUnknown Status = "UNKNOWN"
)

// Check identifiers.
const (
	CheckHasSecurityAudit = "has_security_audit"
	CheckNoCriticalIssues = "no_critical_audit_issues"
	CheckNoActiveIncident = "no_active_incident"
)

// CheckResult records one primary check outcome with enough context to audit
// the verdict later.
type CheckResult struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      Status `json:"status"`
	Condition   string `json:"condition"`
	ActualValue string `json:"actual_value"`
	Reason      string `json:"reason"`
}

// Summary aggregates all primary checks into a qualification verdict.
// UNKNOWN counts as not-PASS: a check we could not evaluate disqualifies
// conservatively rather than waving the asset through.
type Summary struct {
	Qualified    bool          `json:"qualified"`
	Checks       []CheckResult `json:"checks"`
	PassedCount  int           `json:"passed_count"`
	TotalCount   int           `json:"total_count"`
	FailedChecks []string      `json:"failed_checks"`
	Summary      string        `json:"summary"`
}

// Run evaluates the three primary checks against the bundle.
func Run(b *bundle.AssetMetricBundle) Summary {
	results := []CheckResult{
		checkHasSecurityAudit(b),
		checkNoCriticalIssues(b),
		checkNoActiveIncident(b),
	}

	summary := Summary{
		Checks:     results,
		TotalCount: len(results),
	}
	for _, c := range results {
		if c.Status == StatusPass {
			summary.PassedCount++
		} else {
			summary.FailedChecks = append(summary.FailedChecks, c.ID)
		}
	}
	summary.Qualified = summary.PassedCount == summary.TotalCount
	if summary.Qualified {
		summary.Summary = fmt.Sprintf("All %d primary checks passed", summary.TotalCount)
	} else {
		summary.Summary = fmt.Sprintf("%d of %d primary checks passed; failed: %v",
			summary.PassedCount, summary.TotalCount, summary.FailedChecks)
	}
	return summary
}

func checkHasSecurityAudit(b *bundle.AssetMetricBundle) CheckResult {
	result := CheckResult{
		ID:        CheckHasSecurityAudit,
		Name:      "Has security audit",
		Condition: "audit_data present and non-empty",
	}

	if !b.HasAuditData() {
		result.Status = StatusFail
		result.ActualValue = "no audit data"
		result.Reason = "No completed security audit on record"
		return result
	}

	result.Status = StatusPass
	result.ActualValue = b.AuditorSummary()
	result.Reason = "Security audit on record"
	return result
}

func checkNoCriticalIssues(b *bundle.AssetMetricBundle) CheckResult {
	result := CheckResult{
		ID:        CheckNoCriticalIssues,
		Name:      "No unresolved critical audit issues",
		Condition: "unresolved.critical == 0 across all audits",
	}

	if !b.HasAuditData() {
		result.Status = StatusUnknown
		result.ActualValue = "no audit data"
		result.Reason = "Cannot inspect audit issues without audit data"
		return result
	}

	worst := 0
	known := false
	for _, audit := range b.Audits {
		if n, ok := audit.EffectiveCritical(); ok {
			known = true
			if n > worst {
				worst = n
			}
			if n > 0 {
				result.Status = StatusFail
				result.ActualValue = fmt.Sprintf("%d unresolved critical issue(s)", n)
				result.Reason = fmt.Sprintf("Audit by %s reports unresolved critical findings", auditorOrUnknown(audit))
				return result
			}
		}
	}

	if !known {
		// Audits exist but carry no issue counts at all.
		result.Status = StatusUnknown
		result.ActualValue = "issue counts not reported"
		result.Reason = "Audit records carry no critical-issue counts"
		return result
	}

	result.Status = StatusPass
	result.ActualValue = "0 unresolved critical issues"
	result.Reason = "No unresolved critical findings across audits"
	return result
}

func checkNoActiveIncident(b *bundle.AssetMetricBundle) CheckResult {
	result := CheckResult{
		ID:   CheckNoActiveIncident,
		Name: "No active security incident",
		Condition: fmt.Sprintf("no incident within %d days with funds lost",
			bundle.ActiveIncidentWindowDays),
	}

	if inc, ok := b.ActiveIncident(); ok {
		result.Status = StatusFail
		result.ActualValue = fmt.Sprintf("incident %.0f days ago, $%.0f lost", inc.DaysAgo, inc.FundsLostUSD)
		result.Reason = "Recent incident with fund loss"
		return result
	}

	result.Status = StatusPass
	if len(b.Incidents) == 0 {
		result.ActualValue = "no incidents on record"
		result.Reason = "No security incidents recorded"
	} else {
		result.ActualValue = fmt.Sprintf("%d historical incident(s), none active", len(b.Incidents))
		result.Reason = "All recorded incidents are stale or lost no funds"
	}
	return result
}

func auditorOrUnknown(a bundle.Audit) string {
	if a.Auditor == "" {
		return "unnamed auditor"
	}
	return a.Auditor
}
