/*

This file contains the risk and return scoring functions for yield pools.

*/

package scoring

import (
	"errors"
	"math"

	"github.com/starkfolio/apa/internal/logger"
	"github.com/starkfolio/apa/internal/types"
)

var scoreLogger = logger.GetForComponent("pool_scorer")

var (
	ErrInvalidPoolData = errors.New("invalid pool data")
	ErrNonFiniteScore  = errors.New("score calculation resulted in NaN or Inf")
)

const (
	// RiskFreeRate is the fixed risk-free-rate constant subtracted from APY
	// in the Sharpe-like ratio.
	RiskFreeRate = 0.02
	// VolatilityFloor prevents division blow-up for near-zero volatility. The
	// same floor resolves the bearish zero-volatility case in market fit.
	VolatilityFloor = 0.1
	// DrawdownCap caps volatility at 30% when used as a drawdown proxy.
	DrawdownCap = 0.3
)

// PoolVolatility derives the volatility proxy for a pool: utilization/2 for
// lending markets, volume/TVL for AMM pools. A zero-TVL AMM pool keeps its raw
// volume as volatility, which is effectively very large and penalizes
// zero-liquidity pools through the Sharpe-like ratio downstream.
func PoolVolatility(pool types.PoolRecord) float64 {
	if pool.TotalSupply > 0 {
		return pool.Utilization() / 2
	}
	return pool.Volume24h / math.Max(pool.TvlUSD, 1)
}

// RiskAdjustedReturn computes a Sharpe-ratio-like score penalized by an
// estimated drawdown in excess of the strategy's ceiling. Never negative.
func RiskAdjustedReturn(pool types.PoolRecord, cfg types.RiskStrategyConfig) (float64, error) {
	if err := validatePoolData(pool); err != nil {
		return 0, errors.Join(ErrInvalidPoolData, err)
	}

	apy := pool.APY // missing APY arrives as the zero value
	volatility := PoolVolatility(pool)

	sharpe := (apy - RiskFreeRate) / math.Max(volatility, VolatilityFloor)

	estimatedDrawdown := math.Min(volatility, DrawdownCap)
	drawdownPenalty := math.Max(0, estimatedDrawdown-cfg.MaxDrawdown)

	result := math.Max(0, sharpe*(1-drawdownPenalty))
	if math.IsNaN(result) || math.IsInf(result, 0) {
		scoreLogger.Error().
			Str("protocol", pool.Protocol).
			Str("token", pool.Token0).
			Float64("result", result).
			Msg("Risk-adjusted return calculation produced an invalid value")
		return 0, ErrNonFiniteScore
	}
	return result, nil
}

// PoolRiskScore is the weighted pool risk: 40% utilization, 30% volatility,
// 30% TVL depth. Utilization is deliberately not clamped, so the score can
// exceed 1 when a market reports borrow above supply.
func PoolRiskScore(pool types.PoolRecord) (float64, error) {
	if err := validatePoolData(pool); err != nil {
		return 0, errors.Join(ErrInvalidPoolData, err)
	}

	utilizationRisk := pool.Utilization()
	volatilityRisk := math.Min(PoolVolatility(pool)/100, 1)
	tvlRisk := math.Max(0, 1-pool.TvlUSD/1e7)

	score := 0.4*utilizationRisk + 0.3*volatilityRisk + 0.3*tvlRisk
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, ErrNonFiniteScore
	}
	return score, nil
}

// validatePoolData rejects pools with non-finite or negative base metrics
// before any score maths runs on them.
func validatePoolData(pool types.PoolRecord) error {
	fields := []struct {
		value float64
		name  string
	}{
		{pool.APY, "apy"},
		{pool.TvlUSD, "tvl"},
		{pool.Volume24h, "volume_24h"},
		{pool.TotalSupply, "total_supply"},
		{pool.TotalBorrow, "total_borrow"},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return errors.New(f.name + " is not finite")
		}
		if f.value < 0 {
			return errors.New(f.name + " is negative")
		}
	}
	if pool.Protocol == "" {
		return errors.New("protocol is empty")
	}
	return nil
}
