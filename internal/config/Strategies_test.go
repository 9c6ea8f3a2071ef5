package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starkfolio/apa/internal/types"
)

func TestStrategies(t *testing.T) {
	t.Run("every risk level is configured", func(t *testing.T) {
		for _, level := range []types.RiskLevel{types.RiskLow, types.RiskMedium, types.RiskHigh} {
			strategy, ok := StrategyForLevel(level)
			require.True(t, ok, "missing strategy for %s", level)
			assert.Equal(t, level, strategy.Level)
			assert.NotEmpty(t, strategy.ProtocolOrder)
		}
	})

	t.Run("protocol order matches the protocol map", func(t *testing.T) {
		for level, strategy := range Strategies {
			require.Len(t, strategy.ProtocolOrder, len(strategy.Protocols), "level %s", level)
			for _, protocol := range strategy.ProtocolOrder {
				_, ok := strategy.Protocols[protocol]
				assert.True(t, ok, "level %s orders unknown protocol %s", level, protocol)
			}
		}
	})

	t.Run("high risk leads with the amm", func(t *testing.T) {
		strategy, ok := StrategyForLevel(types.RiskHigh)
		require.True(t, ok)
		assert.Equal(t, "Ekubo", strategy.ProtocolOrder[0])
	})

	t.Run("bounds are valid", func(t *testing.T) {
		assert.NoError(t, ValidateStrategies())
	})

	t.Run("low risk tolerates less drawdown than high", func(t *testing.T) {
		low, _ := StrategyForLevel(types.RiskLow)
		high, _ := StrategyForLevel(types.RiskHigh)
		assert.Less(t, low.MaxDrawdown, high.MaxDrawdown)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults apply in dry-run mode", func(t *testing.T) {
		t.Setenv("EXECUTION_MODE", "")
		t.Setenv("STARKNET_RPC_URL", "")
		t.Setenv("STARKNET_ACCOUNT_ADDRESS", "")
		t.Setenv("RISK_PROFILE", "")
		t.Setenv("TOTAL_AMOUNT_USD", "2500")
		t.Setenv("LOOP_INTERVAL", "")

		require.NoError(t, LoadConfig())
		assert.Equal(t, "moderate", RiskProfile)
		assert.InDelta(t, 2500, TotalAmountUSD, 1e-9)
	})

	t.Run("live mode requires rpc settings", func(t *testing.T) {
		t.Setenv("EXECUTION_MODE", "live")
		t.Setenv("STARKNET_RPC_URL", "")
		t.Setenv("TOTAL_AMOUNT_USD", "2500")

		assert.Error(t, LoadConfig())
	})

	t.Run("rejects bad amount", func(t *testing.T) {
		t.Setenv("EXECUTION_MODE", "")
		t.Setenv("TOTAL_AMOUNT_USD", "-5")

		assert.Error(t, LoadConfig())
	})
}
