/*

This file contains the market fit scoring function.

The result is an unnormalized score used only for relative ranking within a
protocol; it is never compared cross-protocol against an absolute threshold.

*/

package scoring

import (
	"errors"
	"math"

	"github.com/starkfolio/apa/internal/types"
)

// MarketFit scores how well a pool aligns with current market conditions:
// 40% sentiment alignment, 30% volume depth, 30% TVL depth.
//
// Sentiment alignment is asymmetric: bullish markets rank pools by raw APY,
// bearish/neutral markets by inverse volatility. Zero volatility in the
// bearish branch is floored at VolatilityFloor so the score stays finite.
func MarketFit(pool types.PoolRecord, sentiment types.Sentiment) (float64, error) {
	if err := validatePoolData(pool); err != nil {
		return 0, errors.Join(ErrInvalidPoolData, err)
	}
	if math.IsNaN(sentiment.Overall) || math.IsInf(sentiment.Overall, 0) {
		return 0, errors.New("sentiment overall is not finite")
	}

	var sentimentAlignment float64
	if sentiment.Overall > 0 {
		sentimentAlignment = pool.APY
	} else {
		sentimentAlignment = 1 / math.Max(PoolVolatility(pool), VolatilityFloor)
	}

	volumeScore := math.Min(pool.Volume24h/1e6, 1)
	tvlScore := math.Min(pool.TvlUSD/1e7, 1)

	result := 0.4*sentimentAlignment + 0.3*volumeScore + 0.3*tvlScore
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, ErrNonFiniteScore
	}
	return result, nil
}
