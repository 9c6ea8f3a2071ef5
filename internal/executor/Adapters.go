/*

This file contains the zkLend and Ekubo protocol adapters: each maps an
allocation recommendation into the contract call that deploys the funds.

*/

package executor

import (
	"fmt"
	"strconv"

	"github.com/starkfolio/apa/internal/types"
)

// Starknet mainnet token contract addresses for the supported symbols.
var tokenAddresses = map[string]string{
	"ETH":  "0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7",
	"USDC": "0x053c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8",
	"USDT": "0x068f5c6a61780768455de69077e07e89787839bf8166decfbf92b645209c0fb8",
	"STRK": "0x04718f5a0fc34cc1af16a1cdee98ffb20c31f5cd61d6ab07201858f4287c938d",
	"WBTC": "0x03fe2b97c1fd336e750087d68b9b867997fd64a2661ff3ca5a7c771641e8e7ac",
	"DAI":  "0x00da114221cb83fa859dbdb4c44beeaa0bb37c7537ad5ae66fe5e0efd20e6eb3",
}

// ZkLendAdapter builds lending deposit calls against the zkLend market
// contract.
type ZkLendAdapter struct {
	marketContract string
}

// NewZkLendAdapter creates the zkLend adapter for its market contract.
func NewZkLendAdapter(marketContract string) *ZkLendAdapter {
	return &ZkLendAdapter{marketContract: marketContract}
}

func (a *ZkLendAdapter) Protocol() string { return "zkLend" }

// BuildCall maps a lending recommendation into a zkLend deposit call.
func (a *ZkLendAdapter) BuildCall(rec types.Recommendation) (Call, error) {
	tokenAddr, ok := tokenAddresses[rec.Token]
	if !ok {
		return Call{}, fmt.Errorf("no contract address for token %s", rec.Token)
	}
	if rec.AmountUSD <= 0 {
		return Call{}, fmt.Errorf("non-positive amount %.2f for %s", rec.AmountUSD, rec.Token)
	}
	return Call{
		ContractAddress: a.marketContract,
		EntryPoint:      "deposit",
		Calldata: []string{
			tokenAddr,
			usdAmountToCalldata(rec.AmountUSD),
		},
	}, nil
}

// EkuboAdapter builds liquidity deposit calls against the Ekubo positions
// contract using the AMM metadata carried on the recommendation.
type EkuboAdapter struct {
	positionsContract string
}

// NewEkuboAdapter creates the Ekubo adapter for its positions contract.
func NewEkuboAdapter(positionsContract string) *EkuboAdapter {
	return &EkuboAdapter{positionsContract: positionsContract}
}

func (a *EkuboAdapter) Protocol() string { return "Ekubo" }

// BuildCall maps an AMM recommendation into an Ekubo deposit call. The
// recommendation must carry pool data (token addresses, fee, tick spacing).
func (a *EkuboAdapter) BuildCall(rec types.Recommendation) (Call, error) {
	if rec.PoolData == nil {
		return Call{}, fmt.Errorf("recommendation for %s carries no pool data", rec.Token)
	}
	if rec.AmountUSD <= 0 {
		return Call{}, fmt.Errorf("non-positive amount %.2f for %s", rec.AmountUSD, rec.Token)
	}
	return Call{
		ContractAddress: a.positionsContract,
		EntryPoint:      "mint_and_deposit",
		Calldata: []string{
			rec.PoolData.Token0Address,
			rec.PoolData.Token1Address,
			rec.PoolData.Fee,
			strconv.Itoa(rec.PoolData.TickSpacing),
			usdAmountToCalldata(rec.AmountUSD),
		},
	}, nil
}

// usdAmountToCalldata renders a USD amount as an integer calldata field with
// 6 decimals of precision.
func usdAmountToCalldata(amountUSD float64) string {
	return strconv.FormatInt(int64(amountUSD*1e6), 10)
}
