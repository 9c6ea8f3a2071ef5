/*

This file is used to fetch token price and volume data from the market data
API, and to derive the market sentiment signal the scoring functions consume.

*/

package datafetcher

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/starkfolio/apa/internal/types"
)

// Static fallback prices used when the upstream market API is unavailable or
// rate limited. Deliberately conservative: flat 24h change yields neutral
// sentiment downstream.
var fallbackMarketData = map[string]types.TokenMarketData{
	"ethereum": {TokenID: "ethereum", PriceUSD: 3000, PriceChange24h: 0, Volume24h: 500_000_000, Fallback: true},
	"starknet": {TokenID: "starknet", PriceUSD: 1.2, PriceChange24h: 0, Volume24h: 50_000_000, Fallback: true},
	"bitcoin":  {TokenID: "bitcoin", PriceUSD: 60000, PriceChange24h: 0, Volume24h: 1_000_000_000, Fallback: true},
	"usd-coin": {TokenID: "usd-coin", PriceUSD: 1, PriceChange24h: 0, Volume24h: 2_000_000_000, Fallback: true},
}

type marketChartResponse struct {
	Prices       [][2]float64 `json:"prices"`        // [timestamp_ms, price]
	TotalVolumes [][2]float64 `json:"total_volumes"` // [timestamp_ms, volume]
}

// GetTokenPriceData fetches price, 24h change, volume and price history for a
// token. Upstream failures are recovered locally: the static fallback record
// is returned and the error is only logged, so callers can always proceed.
func (f *Fetcher) GetTokenPriceData(ctx context.Context, tokenID string) types.TokenMarketData {
	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=1", f.priceBaseURL, tokenID)

	var chart marketChartResponse
	if err := f.getJSON(ctx, url, &chart); err != nil {
		f.logger.Warn().Err(err).Str("token", tokenID).Msg("Price fetch failed, using static fallback data")
		return f.fallbackFor(tokenID)
	}

	data, err := marketDataFromChart(tokenID, chart)
	if err != nil {
		f.logger.Warn().Err(err).Str("token", tokenID).Msg("Price data invalid, using static fallback data")
		return f.fallbackFor(tokenID)
	}
	return data
}

func (f *Fetcher) fallbackFor(tokenID string) types.TokenMarketData {
	if data, ok := fallbackMarketData[tokenID]; ok {
		return data
	}
	return types.TokenMarketData{TokenID: tokenID, PriceUSD: 0, Fallback: true}
}

// marketDataFromChart reduces a market chart into the per-token record.
func marketDataFromChart(tokenID string, chart marketChartResponse) (types.TokenMarketData, error) {
	if len(chart.Prices) < 2 {
		return types.TokenMarketData{}, fmt.Errorf("insufficient price points: %d", len(chart.Prices))
	}

	history := make([]types.PriceData, 0, len(chart.Prices))
	for _, point := range chart.Prices {
		price := point[1]
		if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
			continue
		}
		history = append(history, types.PriceData{
			Timestamp: time.UnixMilli(int64(point[0])),
			Price:     price,
		})
	}
	if len(history) < 2 {
		return types.TokenMarketData{}, fmt.Errorf("insufficient valid price points for %s", tokenID)
	}

	first := history[0].Price
	last := history[len(history)-1].Price
	change := (last - first) / first * 100

	var volume float64
	if n := len(chart.TotalVolumes); n > 0 {
		volume = chart.TotalVolumes[n-1][1]
	}

	return types.TokenMarketData{
		TokenID:        tokenID,
		PriceUSD:       last,
		PriceChange24h: change,
		Volume24h:      volume,
		PriceHistory:   history,
	}, nil
}

// DeriveSentiment maps the reference token's 24h price change onto the
// [-1, 1] sentiment scale: +/-10% or more saturates the signal.
func DeriveSentiment(market types.TokenMarketData) types.Sentiment {
	overall := market.PriceChange24h / 10
	if overall > 1 {
		overall = 1
	}
	if overall < -1 {
		overall = -1
	}
	return types.Sentiment{Overall: overall, Volume: market.Volume24h}
}
