/*

This file contains the confidence scoring function and its threshold ladder.

The four-level label is the single categorical decision surfaced to downstream
consumers and to the user-facing recommendation, so the ladder is fixed:
>= 0.8 high, >= 0.6 medium, >= 0.3 low, else none.

*/

package scoring

import (
	"errors"
	"math"
	"time"

	"github.com/starkfolio/apa/internal/types"
)

// DefaultHistoricalAccuracy is assumed when no history exists for a key.
const DefaultHistoricalAccuracy = 0.5

// ConfidenceScore combines market alignment, data quality and historical
// accuracy into a numeric confidence in [0,1]:
//
//	0.4*marketAlignment + 0.3*dataQuality + 0.3*historicalAccuracy
//
// marketAlignment maps sentiment from roughly [-1,1] onto [0,1]. Historical
// accuracy comes from the history store handle and defaults to 0.5.
func ConfidenceScore(pool types.PoolRecord, sentiment types.Sentiment, history *HistoryStore) (float64, error) {
	if err := validatePoolData(pool); err != nil {
		return 0, errors.Join(ErrInvalidPoolData, err)
	}

	marketAlignment := 0.5 + sentiment.Overall*0.5
	dataQuality := dataQualityScore(pool, time.Now())

	historicalAccuracy := DefaultHistoricalAccuracy
	if history != nil {
		historicalAccuracy = history.Accuracy(HistoryKey(pool.Protocol, pool.Token0))
	}

	score := 0.4*marketAlignment + 0.3*dataQuality + 0.3*historicalAccuracy
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, ErrNonFiniteScore
	}
	return score, nil
}

// ConfidenceLabel maps a numeric confidence score onto the fixed four-level
// ladder.
func ConfidenceLabel(score float64) types.Confidence {
	switch {
	case score >= 0.8:
		return types.ConfidenceHigh
	case score >= 0.6:
		return types.ConfidenceMedium
	case score >= 0.3:
		return types.ConfidenceLow
	default:
		return types.ConfidenceNone
	}
}

// dataQualityScore rewards presence of the required fields (APY, TVL, 24h
// volume, liquidity) and data freshness: 70% field completeness, 30% recency
// (full credit under one hour, half credit under a day).
func dataQualityScore(pool types.PoolRecord, now time.Time) float64 {
	present := 0
	if pool.APY > 0 {
		present++
	}
	if pool.TvlUSD > 0 {
		present++
	}
	if pool.Volume24h > 0 {
		present++
	}
	// Liquidity: supplied capital for lending markets, TVL depth for AMMs.
	if pool.TotalSupply > 0 || (pool.IsAMM() && pool.TvlUSD > 0) {
		present++
	}
	completeness := float64(present) / 4

	var freshness float64
	age := now.Sub(pool.LastUpdate)
	switch {
	case pool.LastUpdate.IsZero():
		freshness = 0
	case age < time.Hour:
		freshness = 1.0
	case age < 24*time.Hour:
		freshness = 0.5
	default:
		freshness = 0
	}

	return 0.7*completeness + 0.3*freshness
}
