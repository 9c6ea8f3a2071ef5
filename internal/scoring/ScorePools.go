/*

This file contains the batch scoring entry point used by the agent each cycle.

*/

package scoring

import (
	"github.com/starkfolio/apa/internal/types"
)

// ScorePools populates the derived fields (volatility, risk-adjusted return,
// market fit) for every pool. Pools that fail validation are dropped and
// logged rather than aborting the batch, so a cycle proceeds with whatever
// could be scored.
func ScorePools(pools []types.PoolRecord, cfg types.RiskStrategyConfig, sentiment types.Sentiment) []types.PoolRecord {
	scored := make([]types.PoolRecord, 0, len(pools))
	for _, pool := range pools {
		rar, err := RiskAdjustedReturn(pool, cfg)
		if err != nil {
			scoreLogger.Warn().
				Err(err).
				Str("protocol", pool.Protocol).
				Str("token", pool.Token0).
				Msg("Dropping pool: risk-adjusted return failed")
			continue
		}

		fit, err := MarketFit(pool, sentiment)
		if err != nil {
			scoreLogger.Warn().
				Err(err).
				Str("protocol", pool.Protocol).
				Str("token", pool.Token0).
				Msg("Dropping pool: market fit failed")
			continue
		}

		pool.Volatility = PoolVolatility(pool)
		pool.RiskAdjustedReturn = rar
		pool.MarketFit = fit

		scoreLogger.Debug().
			Str("protocol", pool.Protocol).
			Str("token", pool.Token0).
			Float64("riskAdjustedReturn", rar).
			Float64("marketFit", fit).
			Float64("volatility", pool.Volatility).
			Msg("Pool scored")

		scored = append(scored, pool)
	}
	return scored
}
