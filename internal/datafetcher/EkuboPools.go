/*

This file is used to fetch AMM pool data from the Ekubo API.

*/

package datafetcher

import (
	"context"
	"time"

	"github.com/starkfolio/apa/internal/types"
)

const ekuboProtocol = "Ekubo"

type ekuboPoolsResponse struct {
	TopPools []struct {
		Token0        string  `json:"token0"`
		Token1        string  `json:"token1"`
		Token0Address string  `json:"token0_address"`
		Token1Address string  `json:"token1_address"`
		Fee           string  `json:"fee"`
		TickSpacing   int     `json:"tick_spacing"`
		TvlUSD        float64 `json:"tvl_usd"`
		Volume24hUSD  float64 `json:"volume_24h_usd"`
		FeesAPY       float64 `json:"fees_apy"` // percent
	} `json:"topPools"`
}

// Static fallback AMM pools, used when the Ekubo API is unreachable.
var fallbackEkuboPools = []types.PoolRecord{
	{
		Protocol: ekuboProtocol, Token0: "ETH", Token1: "USDC",
		APY: 12.5, TvlUSD: 5_000_000, Volume24h: 1_500_000,
		AMMData: &types.AMMPoolData{
			Token0Address: "0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7",
			Token1Address: "0x053c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8",
			Fee:           "0.0005",
			TickSpacing:   10,
		},
	},
	{
		Protocol: ekuboProtocol, Token0: "STRK", Token1: "USDC",
		APY: 18.2, TvlUSD: 1_800_000, Volume24h: 700_000,
		AMMData: &types.AMMPoolData{
			Token0Address: "0x04718f5a0fc34cc1af16a1cdee98ffb20c31f5cd61d6ab07201858f4287c938d",
			Token1Address: "0x053c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8",
			Fee:           "0.003",
			TickSpacing:   60,
		},
	},
}

// GetEkuboPools fetches the top Ekubo AMM pools. On any upstream failure the
// static fallback set is returned with refreshed timestamps; the error is
// logged, never propagated.
func (f *Fetcher) GetEkuboPools(ctx context.Context) []types.PoolRecord {
	var resp ekuboPoolsResponse
	if err := f.getJSON(ctx, f.ekuboBaseURL+"/overview/pools", &resp); err != nil {
		f.logger.Warn().Err(err).Msg("Ekubo pool fetch failed, using static fallback pools")
		return stampFallback(fallbackEkuboPools)
	}

	now := time.Now()
	pools := make([]types.PoolRecord, 0, len(resp.TopPools))
	for _, p := range resp.TopPools {
		if p.Token0 == "" || p.Token1 == "" {
			continue
		}
		pools = append(pools, types.PoolRecord{
			Protocol:   ekuboProtocol,
			Token0:     p.Token0,
			Token1:     p.Token1,
			APY:        p.FeesAPY,
			TvlUSD:     p.TvlUSD,
			Volume24h:  p.Volume24hUSD,
			LastUpdate: now,
			AMMData: &types.AMMPoolData{
				Token0Address: p.Token0Address,
				Token1Address: p.Token1Address,
				Fee:           p.Fee,
				TickSpacing:   p.TickSpacing,
			},
		})
	}

	if len(pools) == 0 {
		f.logger.Warn().Msg("Ekubo API returned no usable pools, using static fallback pools")
		return stampFallback(fallbackEkuboPools)
	}

	f.logger.Info().Int("pools", len(pools)).Msg("Ekubo pools fetched")
	return pools
}

// GetProtocolPools merges the per-protocol fetches into one pool set. Each
// protocol degrades independently to its fallback, so a single upstream
// outage never empties the cycle's candidate set.
func (f *Fetcher) GetProtocolPools(ctx context.Context) []types.PoolRecord {
	pools := f.GetZkLendPools(ctx)
	pools = append(pools, f.GetEkuboPools(ctx)...)
	return pools
}
