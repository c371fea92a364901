package registry

// Circuit breaker names.
const (
	BreakerReserveUndercollateralized = "reserve_undercollateralized"
	BreakerAllAdminEOA                = "all_admin_eoa"
	BreakerActiveSecurityIncident     = "active_security_incident"
	BreakerCriticalCategoryFailure    = "critical_category_failure"
	BreakerSevereCategoryWeakness     = "severe_category_weakness"
	BreakerNoAudit                    = "no_audit"
)

// Category score floors inspected by the category-failure breakers.
const (
	CriticalCategoryFloor = 20.0
	SevereCategoryFloor   = 40.0
)

// Default returns the built-in production registry. Tests and offline runs
// use it directly; deployments can override any table via a YAML file.
func Default() *Registry {
	return &Registry{
		GradeScale: []GradeBand{
			{Min: 85, Max: 100, Label: "A", RiskLevel: "low"},
			{Min: 70, Max: 85, Label: "B", RiskLevel: "moderate"},
			{Min: 55, Max: 70, Label: "C", RiskLevel: "elevated"},
			{Min: 40, Max: 55, Label: "D", RiskLevel: "high"},
			{Min: 0, Max: 40, Label: "F", RiskLevel: "severe"},
		},
		CategoryWeights: map[string]CategoryWeight{
			CategorySmartContract: {Weight: 0.25, Justification: "Contract compromise is the dominant loss vector for DeFi assets"},
			CategoryCounterparty:  {Weight: 0.20, Justification: "Custody and counterparty exposure determine recovery odds after an exploit"},
			CategoryMarket:        {Weight: 0.15, Justification: "Peg stability and utilization reflect stress the asset is already under"},
			CategoryLiquidity:     {Weight: 0.15, Justification: "Exit liquidity bounds realized losses during de-risking"},
			CategoryCollateral:    {Weight: 0.15, Justification: "Collateral quality drives cascade liquidation exposure"},
			CategoryReserveOracle: {Weight: 0.10, Justification: "Reserve attestation and oracle freshness underpin every other metric"},
		},
		Ladders: map[string][]MetricLadder{
			CategorySmartContract: {
				{Metric: "audit_count", Mode: ModeStep, Points: []LadderPoint{
					{Value: 0, Score: 20, Justification: "No completed security audit"},
					{Value: 1, Score: 60, Justification: "Single audit provides baseline assurance"},
					{Value: 2, Score: 80, Justification: "Two independent audits"},
					{Value: 3, Score: 95, Justification: "Three or more independent audits"},
				}},
				{Metric: "timelock_hours", Mode: ModeLinear, Points: []LadderPoint{
					{Value: 0, Score: 20, Justification: "No timelock on privileged operations"},
					{Value: 24, Score: 55, Justification: "24h timelock gives minimal reaction window"},
					{Value: 48, Score: 75, Justification: "48h timelock covers weekend governance"},
					{Value: 168, Score: 95, Justification: "7-day timelock is best practice"},
				}},
				{Metric: "bug_bounty_usd", Mode: ModeStep, Points: []LadderPoint{
					{Value: 0, Score: 40, Justification: "No active bug bounty"},
					{Value: 50_000, Score: 60, Justification: "Modest bounty ceiling"},
					{Value: 250_000, Score: 80, Justification: "Competitive bounty ceiling"},
					{Value: 1_000_000, Score: 95, Justification: "7-figure bounty attracts whitehats"},
				}},
			},
			CategoryCounterparty: {
				{Metric: "counterparty_concentration_pct", Mode: ModeLinear, Points: []LadderPoint{
					{Value: 0, Score: 95, Justification: "Exposure spread across many counterparties"},
					{Value: 25, Score: 80, Justification: "Largest counterparty holds a quarter of exposure"},
					{Value: 50, Score: 55, Justification: "Half of exposure sits with one counterparty"},
					{Value: 75, Score: 30, Justification: "Dominant single counterparty"},
					{Value: 100, Score: 10, Justification: "All exposure with one counterparty"},
				}},
				{Metric: "recursive_lending_ratio", Mode: ModeLinear, Points: []LadderPoint{
					{Value: 0, Score: 95, Justification: "No loop leverage detected"},
					{Value: 0.10, Score: 85, Justification: "Minor recursive positions"},
					{Value: 0.25, Score: 60, Justification: "Quarter of supply is looped"},
					{Value: 0.50, Score: 30, Justification: "Heavy loop leverage inflates supply"},
					{Value: 1.00, Score: 5, Justification: "Supply dominated by recursive lending"},
				}},
			},
			CategoryMarket: {
				{Metric: "peg_deviation_pct", Mode: ModeLinear, Points: []LadderPoint{
					{Value: 0, Score: 95, Justification: "Trading at peg"},
					{Value: 0.5, Score: 80, Justification: "Within normal arbitrage band"},
					{Value: 1.0, Score: 60, Justification: "Persistent 1% deviation"},
					{Value: 2.0, Score: 35, Justification: "Material depeg pressure"},
					{Value: 5.0, Score: 5, Justification: "Severe depeg"},
				}},
				{Metric: "volatility_30d_pct", Mode: ModeLinear, Points: []LadderPoint{
					{Value: 0, Score: 95, Justification: "Negligible 30d volatility"},
					{Value: 20, Score: 80, Justification: "Moderate volatility"},
					{Value: 50, Score: 55, Justification: "Elevated volatility"},
					{Value: 100, Score: 25, Justification: "High volatility regime"},
					{Value: 200, Score: 5, Justification: "Extreme volatility"},
				}},
				{Metric: "utilization_pct", Mode: ModeLinear, Points: []LadderPoint{
					{Value: 0, Score: 90, Justification: "Ample idle liquidity"},
					{Value: 50, Score: 85, Justification: "Healthy utilization"},
					{Value: 80, Score: 60, Justification: "Utilization at rate-kink territory"},
					{Value: 90, Score: 35, Justification: "Withdrawal liquidity thinning"},
					{Value: 100, Score: 10, Justification: "Fully utilized, withdrawals blocked"},
				}},
			},
			CategoryLiquidity: {
				{Metric: "slippage_100k_bps", Mode: ModeLinear, Points: []LadderPoint{
					{Value: 0, Score: 95, Justification: "Negligible slippage on $100k"},
					{Value: 10, Score: 85, Justification: "Tight execution"},
					{Value: 50, Score: 60, Justification: "Noticeable slippage"},
					{Value: 100, Score: 35, Justification: "1% slippage on $100k"},
					{Value: 500, Score: 5, Justification: "Illiquid for institutional size"},
				}},
				{Metric: "tvl_usd", Mode: ModeStep, Points: []LadderPoint{
					{Value: 0, Score: 10, Justification: "Negligible locked value"},
					{Value: 1_000_000, Score: 40, Justification: "Sub-$10M TVL"},
					{Value: 10_000_000, Score: 65, Justification: "Mid-size pool"},
					{Value: 100_000_000, Score: 85, Justification: "Deep liquidity"},
					{Value: 1_000_000_000, Score: 95, Justification: "Top-tier TVL"},
				}},
				{Metric: "holder_hhi", Mode: ModeLinear, Points: []LadderPoint{
					{Value: 0, Score: 95, Justification: "Diffuse holder base"},
					{Value: 1000, Score: 85, Justification: "Mild concentration"},
					{Value: 2500, Score: 60, Justification: "Concentrated per DOJ merger threshold"},
					{Value: 5000, Score: 30, Justification: "Few holders dominate"},
					{Value: 10000, Score: 5, Justification: "Single-holder monopoly"},
				}},
			},
			CategoryCollateral: {
				{Metric: "collateral_ratio_pct", Mode: ModeLinear, Points: []LadderPoint{
					{Value: 0, Score: 5, Justification: "Uncollateralized"},
					{Value: 100, Score: 50, Justification: "Exactly collateralized, no buffer"},
					{Value: 120, Score: 70, Justification: "Thin buffer over liquidation"},
					{Value: 150, Score: 85, Justification: "Comfortable collateral buffer"},
					{Value: 200, Score: 95, Justification: "Deeply over-collateralized"},
				}},
				{Metric: "cascade_liquidation_risk", Mode: ModeLinear, Points: []LadderPoint{
					{Value: 0, Score: 95, Justification: "Health factors well distributed"},
					{Value: 0.2, Score: 80, Justification: "Small cluster near liquidation"},
					{Value: 0.4, Score: 55, Justification: "Meaningful cascade exposure"},
					{Value: 0.6, Score: 30, Justification: "Large positions near liquidation"},
					{Value: 1.0, Score: 5, Justification: "Cascade liquidation imminent"},
				}},
			},
			CategoryReserveOracle: {
				{Metric: "oracle_staleness_seconds", Mode: ModeStep, Points: []LadderPoint{
					{Value: 0, Score: 95, Justification: "Oracle fresh within heartbeat"},
					{Value: 900, Score: 85, Justification: "Update older than 15 minutes"},
					{Value: 3600, Score: 60, Justification: "Update older than one hour"},
					{Value: 7200, Score: 30, Justification: "Update older than two hours"},
					{Value: 86400, Score: 5, Justification: "Oracle effectively dead"},
				}},
				{Metric: "attestation_age_hours", Mode: ModeStep, Points: []LadderPoint{
					{Value: 0, Score: 95, Justification: "Reserve attestation current"},
					{Value: 24, Score: 80, Justification: "Attestation a day old"},
					{Value: 168, Score: 55, Justification: "Attestation a week old"},
					{Value: 720, Score: 25, Justification: "Attestation a month old"},
				}},
			},
		},
		CustodyScores: map[string]CustodyScore{
			"decentralized":     {Score: 95, Justification: "On-chain custody with no single operator"},
			"regulated_insured": {Score: 85, Justification: "Regulated custodian with insurance coverage"},
			"regulated":         {Score: 70, Justification: "Regulated custodian without insurance"},
			"unregulated":       {Score: 40, Justification: "Unregulated custodian"},
			"unknown":           {Score: 20, Justification: "Custody arrangement undisclosed"},
		},
		Breakers: []BreakerSpec{
			{Name: BreakerReserveUndercollateralized, Severity: SeverityCritical, Effect: EffectCap, Cap: 40, Enabled: true},
			{Name: BreakerAllAdminEOA, Severity: SeverityHigh, Effect: EffectCap, Cap: 50, Enabled: true},
			{Name: BreakerActiveSecurityIncident, Severity: SeverityCritical, Effect: EffectForceFail, Enabled: true},
			{Name: BreakerCriticalCategoryFailure, Severity: SeverityCritical, Effect: EffectForceFail, Enabled: true},
			{Name: BreakerSevereCategoryWeakness, Severity: SeverityMedium, Effect: EffectCap, Cap: 60, Enabled: true},
			{Name: BreakerNoAudit, Severity: SeverityHigh, Effect: EffectCap, Cap: 30, Enabled: true},
		},
	}
}
