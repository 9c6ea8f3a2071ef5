/*

This file contains the types for risk strategies, and other configurable parameters for the APA.

*/

package types

import "strings"

// RiskLevel selects which strategy configuration governs a cycle.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Ordinal maps a risk level to its numeric rank (LOW=1, MEDIUM=2, HIGH=3),
// used when aggregating weighted portfolio risk.
func (r RiskLevel) Ordinal() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return 2
	}
}

// ClassifyRiskLevel maps a free-text profile label onto a risk level by
// case-insensitive substring match. Unmatched labels default to MEDIUM.
func ClassifyRiskLevel(profile string) RiskLevel {
	p := strings.ToLower(profile)
	switch {
	case strings.Contains(p, "conservative"):
		return RiskLow
	case strings.Contains(p, "aggressive"):
		return RiskHigh
	case strings.Contains(p, "moderate"):
		return RiskMedium
	default:
		return RiskMedium
	}
}

// Confidence is the categorical label attached to a recommendation.
type Confidence string

const (
	ConfidenceNone   Confidence = "none"
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Ordinal orders confidence labels none < low < medium < high.
func (c Confidence) Ordinal() int {
	switch c {
	case ConfidenceLow:
		return 1
	case ConfidenceMedium:
		return 2
	case ConfidenceHigh:
		return 3
	default:
		return 0
	}
}

// ProtocolBounds are the per-protocol allocation limits, in percent of the
// total investable amount. Invariant: 0 <= Min <= Max <= 100.
type ProtocolBounds struct {
	MinAllocation float64 `json:"min_allocation"`
	MaxAllocation float64 `json:"max_allocation"`
}

// CrossProtocolMetrics are the portfolio-level limits consulted by the
// rebalance trigger.
type CrossProtocolMetrics struct {
	RebalanceThreshold    float64 `json:"rebalance_threshold"`    // max tolerated weight drift, fraction
	MaxVolatility         float64 `json:"max_volatility"`         // annualized volatility ceiling
	CorrelationLimit      float64 `json:"correlation_limit"`      // pairwise correlation ceiling
	TotalDrawdownLimit    float64 `json:"total_drawdown_limit"`   // portfolio drawdown ceiling, fraction
	DiversificationTarget float64 `json:"diversification_target"` // minimum acceptable diversification score
}

// RiskStrategyConfig is the static, per-risk-level strategy configuration.
// It is selected once at the start of a cycle and immutable while it runs.
type RiskStrategyConfig struct {
	Level       RiskLevel `json:"level"`
	MaxDrawdown float64   `json:"max_drawdown"` // fraction, penalizes risk-adjusted return

	// Protocols maps protocol name to its allocation bounds. ProtocolOrder
	// preserves declaration order because allocation iterates protocols in the
	// order the strategy declares them.
	Protocols     map[string]ProtocolBounds `json:"protocols"`
	ProtocolOrder []string                  `json:"protocol_order"`

	CrossProtocol CrossProtocolMetrics `json:"cross_protocol_metrics"`
}
