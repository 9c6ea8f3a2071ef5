/*

This is a custom type for yield pools which contains all the state needed for scoring opportunities.

*/

package types

import "time"

// PoolRecord is one tradable yield opportunity, built fresh each cycle from the
// data fetchers and discarded after the cycle completes. Lending markets carry
// TotalSupply/TotalBorrow; AMM pools carry both token symbols plus AMM metadata.
type PoolRecord struct {
	Protocol    string    `json:"protocol"`               // e.g. "zkLend", "Ekubo"
	Token0      string    `json:"token0"`                 // primary asset symbol
	Token1      string    `json:"token1,omitempty"`       // second leg, AMM pools only
	APY         float64   `json:"apy"`                    // annualized yield, percent, >= 0
	TvlUSD      float64   `json:"tvl_usd"`                // total value locked in USD
	Volume24h   float64   `json:"volume_24h"`             // 24h trading volume in USD
	TotalSupply float64   `json:"total_supply,omitempty"` // lending markets: supplied USD
	TotalBorrow float64   `json:"total_borrow,omitempty"` // lending markets: borrowed USD
	LastUpdate  time.Time `json:"last_update"`            // data freshness timestamp

	// AMM metadata, populated for pools with both tokens
	AMMData *AMMPoolData `json:"amm_data,omitempty"`

	// Derived fields populated by the scoring package; never mutated afterwards
	Volatility         float64 `json:"volatility"`
	RiskAdjustedReturn float64 `json:"risk_adjusted_return"`
	MarketFit          float64 `json:"market_fit"`
}

// AMMPoolData carries the protocol-specific fields an AMM deposit call needs.
type AMMPoolData struct {
	Token0Address string `json:"token0_address"`
	Token1Address string `json:"token1_address"`
	Fee           string `json:"fee"`
	TickSpacing   int    `json:"tick_spacing"`
}

// IsAMM reports whether the pool is a two-sided AMM position.
func (p PoolRecord) IsAMM() bool {
	return p.Token1 != ""
}

// Utilization is totalBorrow/totalSupply for lending markets. The source data
// does not guarantee borrow <= supply, so the ratio can exceed 1.
func (p PoolRecord) Utilization() float64 {
	if p.TotalSupply <= 0 {
		return 0
	}
	return p.TotalBorrow / p.TotalSupply
}

// Sentiment is the market mood input to scoring, derived from token price data.
type Sentiment struct {
	Overall float64 `json:"overall"` // roughly -1 (bearish) to +1 (bullish)
	Volume  float64 `json:"volume"`  // 24h volume backing the signal, USD
}

// PriceData holds one historical price observation.
type PriceData struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// TokenMarketData is the per-token result of the price fetcher.
type TokenMarketData struct {
	TokenID        string      `json:"token_id"`
	PriceUSD       float64     `json:"price_usd"`
	PriceChange24h float64     `json:"price_change_24h"` // percent
	Volume24h      float64     `json:"volume_24h"`
	PriceHistory   []PriceData `json:"price_history"`
	Fallback       bool        `json:"fallback"` // true when static fallback data was used
}
