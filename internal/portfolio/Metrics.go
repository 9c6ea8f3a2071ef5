/*

This file contains the portfolio-level aggregation functions.

*/

package portfolio

import (
	"errors"
	"math"

	"github.com/starkfolio/apa/internal/types"
)

var ErrNoPositions = errors.New("no positions to aggregate")

// Per-position risk ordinal thresholds over the pool risk score.
const (
	lowRiskCeiling    = 0.4
	mediumRiskCeiling = 0.7
)

// riskOrdinal maps a position's risk score onto the LOW/MEDIUM/HIGH ordinal
// scale used for weighted portfolio risk.
func riskOrdinal(riskScore float64) int {
	switch {
	case riskScore < lowRiskCeiling:
		return types.RiskLow.Ordinal()
	case riskScore < mediumRiskCeiling:
		return types.RiskMedium.Ordinal()
	default:
		return types.RiskHigh.Ordinal()
	}
}

// ComputeMetrics aggregates positions into the portfolio snapshot: total
// value, exposure-weighted risk and return, per-protocol and per-token
// exposure maps (fractions summing to 1 within each map), and an
// HHI-based diversification score in [0,1].
func ComputeMetrics(positions []types.Position) (types.PortfolioMetrics, error) {
	if len(positions) == 0 {
		return types.PortfolioMetrics{}, ErrNoPositions
	}

	var totalValue float64
	for _, pos := range positions {
		if math.IsNaN(pos.AmountUSD) || math.IsInf(pos.AmountUSD, 0) || pos.AmountUSD < 0 {
			return types.PortfolioMetrics{}, errors.New("position amount is invalid")
		}
		totalValue += pos.AmountUSD
	}
	if totalValue <= 0 {
		return types.PortfolioMetrics{}, ErrNoPositions
	}

	metrics := types.PortfolioMetrics{
		TotalValueUSD:    totalValue,
		ProtocolExposure: make(map[string]float64),
		TokenExposure:    make(map[string]float64),
	}

	for _, pos := range positions {
		weight := pos.AmountUSD / totalValue
		metrics.WeightedRisk += float64(riskOrdinal(pos.RiskScore)) * weight
		metrics.ExpectedReturn += pos.ExpectedReturn * weight
		metrics.ProtocolExposure[pos.Protocol] += weight
		metrics.TokenExposure[pos.Token] += weight
	}

	metrics.DiversificationScore = diversificationScore(metrics.ProtocolExposure, metrics.TokenExposure)
	return metrics, nil
}

// diversificationScore is 1 minus the mean Herfindahl-Hirschman Index over
// protocol and token exposures. 1 = maximally diversified, 0 = a single
// concentration.
func diversificationScore(protocolExposure, tokenExposure map[string]float64) float64 {
	hhiProtocol := hhi(protocolExposure)
	hhiToken := hhi(tokenExposure)
	score := 1 - (hhiProtocol+hhiToken)/2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// hhi is the sum of squared exposure fractions.
func hhi(exposure map[string]float64) float64 {
	var sum float64
	for _, w := range exposure {
		sum += w * w
	}
	return sum
}

// PositionsFromRecommendations converts the engine's output into positions so
// portfolio metrics can be computed on a freshly built allocation.
func PositionsFromRecommendations(recs []types.Recommendation) []types.Position {
	positions := make([]types.Position, 0, len(recs))
	for _, rec := range recs {
		positions = append(positions, types.Position{
			Protocol:       rec.Protocol,
			Token:          rec.Token,
			AmountUSD:      rec.AmountUSD,
			RiskScore:      rec.RiskScore,
			ExpectedReturn: rec.ExpectedReturn,
		})
	}
	return positions
}
