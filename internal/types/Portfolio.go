/*

This file contains the types for portfolio-level aggregation and the rebalance trigger.

*/

package types

// Position is one held allocation, the unit the portfolio aggregator works on.
type Position struct {
	Protocol       string  `json:"protocol"`
	Token          string  `json:"token"`
	AmountUSD      float64 `json:"amount_usd"`
	RiskScore      float64 `json:"risk_score"`
	ExpectedReturn float64 `json:"expected_return"` // percent
}

// PortfolioMetrics is the aggregate snapshot recomputed on every rebalance
// evaluation. Exposure fractions sum to 1 within each map.
type PortfolioMetrics struct {
	TotalValueUSD        float64            `json:"total_value_usd"`
	WeightedRisk         float64            `json:"weighted_risk"`    // risk ordinal weighted by exposure
	ExpectedReturn       float64            `json:"expected_return"`  // percent, exposure weighted
	DiversificationScore float64            `json:"diversification_score"` // [0,1], 1 = maximally diversified
	ProtocolExposure     map[string]float64 `json:"protocol_exposure"`
	TokenExposure        map[string]float64 `json:"token_exposure"`
}

// PortfolioState is the two-state output of the rebalance trigger. A fresh
// evaluation is performed every cycle; no transition history is kept.
type PortfolioState string

const (
	StateBalanced        PortfolioState = "BALANCED"
	StateNeedsRebalance  PortfolioState = "NEEDS_REBALANCE"
)

// RebalanceDecision carries the trigger outcome plus the first violated
// condition, in the fixed evaluation order (drawdown, diversification, drift).
type RebalanceDecision struct {
	State  PortfolioState `json:"state"`
	Reason string         `json:"reason"`
}
