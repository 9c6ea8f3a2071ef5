package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starkfolio/apa/internal/types"
)

func mediumStrategy() types.RiskStrategyConfig {
	return types.RiskStrategyConfig{
		Level:       types.RiskMedium,
		MaxDrawdown: 0.20,
		Protocols: map[string]types.ProtocolBounds{
			"zkLend": {MinAllocation: 40, MaxAllocation: 60},
		},
		ProtocolOrder: []string{"zkLend"},
	}
}

func lendingPool(apy, tvl, supply, borrow float64) types.PoolRecord {
	return types.PoolRecord{
		Protocol:    "zkLend",
		Token0:      "USDC",
		APY:         apy,
		TvlUSD:      tvl,
		Volume24h:   100_000,
		TotalSupply: supply,
		TotalBorrow: borrow,
		LastUpdate:  time.Now(),
	}
}

func TestPoolVolatility(t *testing.T) {
	t.Run("lending uses half utilization", func(t *testing.T) {
		pool := lendingPool(5, 1e6, 1e6, 5e5)
		assert.InDelta(t, 0.25, PoolVolatility(pool), 1e-9)
	})

	t.Run("amm uses volume over tvl", func(t *testing.T) {
		pool := types.PoolRecord{
			Protocol:  "Ekubo",
			Token0:    "ETH",
			Token1:    "USDC",
			TvlUSD:    2e6,
			Volume24h: 5e5,
			AMMData:   &types.AMMPoolData{},
		}
		assert.InDelta(t, 0.25, PoolVolatility(pool), 1e-9)
	})

	t.Run("zero tvl amm does not divide by zero", func(t *testing.T) {
		pool := types.PoolRecord{
			Protocol:  "Ekubo",
			Token0:    "ETH",
			Volume24h: 5e5,
			AMMData:   &types.AMMPoolData{},
		}
		vol := PoolVolatility(pool)
		assert.False(t, math.IsInf(vol, 0))
		assert.InDelta(t, 5e5, vol, 1e-9)
	})
}

func TestRiskAdjustedReturn(t *testing.T) {
	cfg := mediumStrategy()

	t.Run("never negative", func(t *testing.T) {
		// APY below the risk-free rate would push the sharpe ratio negative.
		pool := lendingPool(0.001, 1e6, 1e6, 1e5)
		score, err := RiskAdjustedReturn(pool, cfg)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0.0)
	})

	t.Run("higher apy scores higher at equal risk", func(t *testing.T) {
		low := lendingPool(2, 1e6, 1e6, 5e5)
		high := lendingPool(8, 1e6, 1e6, 5e5)

		scoreLow, err := RiskAdjustedReturn(low, cfg)
		require.NoError(t, err)
		scoreHigh, err := RiskAdjustedReturn(high, cfg)
		require.NoError(t, err)

		assert.Greater(t, scoreHigh, scoreLow)
	})

	t.Run("volatility floor bounds the ratio", func(t *testing.T) {
		// Zero utilization yields zero volatility; the floor keeps the score
		// at (apy-rf)/0.1 instead of exploding.
		pool := lendingPool(5, 1e6, 1e6, 0)
		score, err := RiskAdjustedReturn(pool, cfg)
		require.NoError(t, err)
		assert.InDelta(t, (5-RiskFreeRate)/VolatilityFloor, score, 1e-9)
	})

	t.Run("empty pool with zero tvl and volume", func(t *testing.T) {
		pool := types.PoolRecord{Protocol: "Ekubo", Token0: "ETH", APY: 5}
		score, err := RiskAdjustedReturn(pool, cfg)
		require.NoError(t, err)
		// volatility = 0/max(0,1) = 0, floored sharpe, no drawdown penalty
		assert.InDelta(t, (5-RiskFreeRate)/VolatilityFloor, score, 1e-9)
	})

	t.Run("rejects non-finite input", func(t *testing.T) {
		pool := lendingPool(math.NaN(), 1e6, 1e6, 5e5)
		_, err := RiskAdjustedReturn(pool, cfg)
		assert.ErrorIs(t, err, ErrInvalidPoolData)
	})

	t.Run("rejects negative tvl", func(t *testing.T) {
		pool := lendingPool(5, -1, 1e6, 5e5)
		_, err := RiskAdjustedReturn(pool, cfg)
		assert.ErrorIs(t, err, ErrInvalidPoolData)
	})
}

func TestPoolRiskScore(t *testing.T) {
	t.Run("zero tvl pool carries maximal tvl risk", func(t *testing.T) {
		pool := types.PoolRecord{
			Protocol:  "Ekubo",
			Token0:    "ETH",
			Volume24h: 0,
			AMMData:   &types.AMMPoolData{},
		}
		score, err := PoolRiskScore(pool)
		require.NoError(t, err)
		// utilization 0, volatility 0, tvl term saturates at 0.3
		assert.InDelta(t, 0.3, score, 1e-9)
	})

	t.Run("deep tvl removes the tvl term", func(t *testing.T) {
		pool := lendingPool(5, 2e7, 1e6, 0)
		score, err := PoolRiskScore(pool)
		require.NoError(t, err)
		// Zero utilization, zero lending volatility, and TVL above the 10M
		// depth threshold leave nothing to score.
		assert.InDelta(t, 0, score, 1e-9)
	})

	t.Run("utilization is not clamped", func(t *testing.T) {
		// Borrow above supply reports utilization > 1 and the score reflects it.
		pool := lendingPool(5, 1e7, 1e6, 3e6)
		score, err := PoolRiskScore(pool)
		require.NoError(t, err)
		assert.Greater(t, score, 1.0)
	})

	t.Run("weights sum as specified", func(t *testing.T) {
		pool := lendingPool(5, 5e6, 1e6, 5e5)
		score, err := PoolRiskScore(pool)
		require.NoError(t, err)

		want := 0.4*0.5 + 0.3*math.Min(0.25/100, 1) + 0.3*(1-5e6/1e7)
		assert.InDelta(t, want, score, 1e-9)
	})
}
