package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starkfolio/apa/internal/types"
)

func TestMarketFit(t *testing.T) {
	t.Run("bullish ranks by apy", func(t *testing.T) {
		bullish := types.Sentiment{Overall: 0.5}

		lowAPY := lendingPool(2, 5e6, 1e6, 5e5)
		highAPY := lendingPool(9, 5e6, 1e6, 5e5)

		fitLow, err := MarketFit(lowAPY, bullish)
		require.NoError(t, err)
		fitHigh, err := MarketFit(highAPY, bullish)
		require.NoError(t, err)

		assert.Greater(t, fitHigh, fitLow)
	})

	t.Run("bearish ranks by inverse volatility", func(t *testing.T) {
		bearish := types.Sentiment{Overall: -0.5}

		calm := lendingPool(2, 5e6, 1e6, 2e5)   // utilization 0.2, vol 0.1
		choppy := lendingPool(9, 5e6, 1e6, 9e5) // utilization 0.9, vol 0.45

		fitCalm, err := MarketFit(calm, bearish)
		require.NoError(t, err)
		fitChoppy, err := MarketFit(choppy, bearish)
		require.NoError(t, err)

		assert.Greater(t, fitCalm, fitChoppy)
	})

	t.Run("bearish zero volatility is floored not infinite", func(t *testing.T) {
		bearish := types.Sentiment{Overall: -0.5}
		pool := lendingPool(5, 5e6, 1e6, 0) // zero utilization, zero volatility

		fit, err := MarketFit(pool, bearish)
		require.NoError(t, err)
		assert.False(t, math.IsInf(fit, 0))

		want := 0.4*(1/VolatilityFloor) + 0.3*math.Min(1e5/1e6, 1) + 0.3*math.Min(5e6/1e7, 1)
		assert.InDelta(t, want, fit, 1e-9)
	})

	t.Run("neutral sentiment takes the defensive branch", func(t *testing.T) {
		neutral := types.Sentiment{Overall: 0}
		pool := lendingPool(5, 5e6, 1e6, 4e5) // vol 0.2

		fit, err := MarketFit(pool, neutral)
		require.NoError(t, err)

		want := 0.4*(1/0.2) + 0.3*0.1 + 0.3*0.5
		assert.InDelta(t, want, fit, 1e-9)
	})

	t.Run("rejects non-finite sentiment", func(t *testing.T) {
		pool := lendingPool(5, 5e6, 1e6, 5e5)
		_, err := MarketFit(pool, types.Sentiment{Overall: math.NaN()})
		assert.Error(t, err)
	})
}
