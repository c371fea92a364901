package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocolchecker/riskframe/internal/bundle"
)

func intPtr(n int) *int { return &n }

func cleanBundle() *bundle.AssetMetricBundle {
	return &bundle.AssetMetricBundle{
		Symbol: "TEST",
		Audits: []bundle.Audit{
			{Auditor: "Trail of Bits", UnresolvedCritical: intPtr(0)},
		},
	}
}

func TestRunAllChecksPass(t *testing.T) {
	summary := Run(cleanBundle())

	assert.True(t, summary.Qualified)
	assert.Equal(t, 3, summary.PassedCount)
	assert.Equal(t, 3, summary.TotalCount)
	assert.Empty(t, summary.FailedChecks)
}

func TestMissingAuditDataDisqualifies(t *testing.T) {
	summary := Run(&bundle.AssetMetricBundle{Symbol: "TEST"})

	assert.False(t, summary.Qualified)
	assert.Contains(t, summary.FailedChecks, CheckHasSecurityAudit)
}

func TestResolvedCriticalIssuesPass(t *testing.T) {
	b := cleanBundle()
	// Two criticals were found but both resolved: unresolved wins.
	b.Audits[0].IssuesCritical = intPtr(2)
	b.Audits[0].UnresolvedCritical = intPtr(0)

	summary := Run(b)
	assert.True(t, summary.Qualified)
}

func TestAnyAuditWithUnresolvedCriticalFails(t *testing.T) {
	b := cleanBundle()
	b.Audits = append(b.Audits, bundle.Audit{Auditor: "OpenZeppelin", UnresolvedCritical: intPtr(1)})

	summary := Run(b)
	assert.False(t, summary.Qualified)
	assert.Contains(t, summary.FailedChecks, CheckNoCriticalIssues)
}

func TestAuditWithoutIssueCountsIsUnknownAndDisqualifies(t *testing.T) {
	b := &bundle.AssetMetricBundle{
		Audits: []bundle.Audit{{Auditor: "Unnamed Firm"}},
	}

	summary := Run(b)
	require.False(t, summary.Qualified, "UNKNOWN must count as not-PASS")
	assert.Contains(t, summary.FailedChecks, CheckNoCriticalIssues)

	var issueCheck CheckResult
	for _, c := range summary.Checks {
		if c.ID == CheckNoCriticalIssues {
			issueCheck = c
		}
	}
	assert.Equal(t, StatusUnknown, issueCheck.Status)
}

func TestIncidentRecencyAndFundsMatrix(t *testing.T) {
	testCases := []struct {
		name     string
		incident bundle.Incident
		pass     bool
	}{
		{"recent with losses", bundle.Incident{DaysAgo: 15, FundsLostUSD: 500000}, false},
		{"recent without losses", bundle.Incident{DaysAgo: 5, FundsLostUSD: 0}, true},
		{"old with losses", bundle.Incident{DaysAgo: 60, FundsLostUSD: 1000000}, true},
		{"boundary day with losses", bundle.Incident{DaysAgo: 30, FundsLostUSD: 100}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := cleanBundle()
			b.Incidents = []bundle.Incident{tc.incident}

			summary := Run(b)
			assert.Equal(t, tc.pass, summary.Qualified)
			if !tc.pass {
				assert.Contains(t, summary.FailedChecks, CheckNoActiveIncident)
			}
		})
	}
}

func TestSummaryText(t *testing.T) {
	summary := Run(cleanBundle())
	assert.Equal(t, "All 3 primary checks passed", summary.Summary)

	summary = Run(&bundle.AssetMetricBundle{})
	assert.Contains(t, summary.Summary, "of 3 primary checks passed")
}
