package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starkfolio/apa/internal/types"
)

func defaultLimits() types.CrossProtocolMetrics {
	return types.CrossProtocolMetrics{
		RebalanceThreshold:    0.10,
		TotalDrawdownLimit:    0.20,
		DiversificationTarget: 0.30,
	}
}

func balancedMetrics() types.PortfolioMetrics {
	return types.PortfolioMetrics{
		TotalValueUSD:        1000,
		DiversificationScore: 0.6,
		ProtocolExposure:     map[string]float64{"zkLend": 0.6, "Ekubo": 0.4},
	}
}

func TestEvaluateRebalance(t *testing.T) {
	targets := map[string]float64{"zkLend": 0.6, "Ekubo": 0.4}

	t.Run("all within limits", func(t *testing.T) {
		decision := EvaluateRebalance(balancedMetrics(), 0.05, targets, defaultLimits())
		assert.Equal(t, types.StateBalanced, decision.State)
		assert.Equal(t, "all checks within limits", decision.Reason)
	})

	t.Run("drawdown breach wins", func(t *testing.T) {
		// Everything else is also violated; drawdown is checked first and
		// must own the reason.
		metrics := balancedMetrics()
		metrics.DiversificationScore = 0.1
		metrics.ProtocolExposure = map[string]float64{"zkLend": 1.0}

		decision := EvaluateRebalance(metrics, 0.5, targets, defaultLimits())
		assert.Equal(t, types.StateNeedsRebalance, decision.State)
		assert.Contains(t, decision.Reason, "max drawdown")
	})

	t.Run("diversification breach before drift", func(t *testing.T) {
		metrics := balancedMetrics()
		metrics.DiversificationScore = 0.1
		metrics.ProtocolExposure = map[string]float64{"zkLend": 1.0}

		decision := EvaluateRebalance(metrics, 0.05, targets, defaultLimits())
		assert.Equal(t, types.StateNeedsRebalance, decision.State)
		assert.Contains(t, decision.Reason, "diversification score")
	})

	t.Run("drift breach names the first drifted protocol alphabetically", func(t *testing.T) {
		metrics := balancedMetrics()
		metrics.ProtocolExposure = map[string]float64{"zkLend": 0.85, "Ekubo": 0.15}

		decision := EvaluateRebalance(metrics, 0.05, targets, defaultLimits())
		assert.Equal(t, types.StateNeedsRebalance, decision.State)
		assert.Contains(t, decision.Reason, "protocol Ekubo")
	})

	t.Run("drift at the threshold does not trigger", func(t *testing.T) {
		metrics := balancedMetrics()
		metrics.ProtocolExposure = map[string]float64{"zkLend": 0.6, "Ekubo": 0.4}
		evenTargets := map[string]float64{"zkLend": 0.5, "Ekubo": 0.5}

		decision := EvaluateRebalance(metrics, 0.05, evenTargets, defaultLimits())
		assert.Equal(t, types.StateBalanced, decision.State)
	})

	t.Run("missing protocol in exposure counts as full drift", func(t *testing.T) {
		metrics := balancedMetrics()
		metrics.ProtocolExposure = map[string]float64{"zkLend": 1.0}

		decision := EvaluateRebalance(metrics, 0.05, targets, defaultLimits())
		assert.Equal(t, types.StateNeedsRebalance, decision.State)
		assert.Contains(t, decision.Reason, "Ekubo")
	})
}

func TestMaxDrawdown(t *testing.T) {
	t.Run("too short history", func(t *testing.T) {
		assert.Zero(t, MaxDrawdown(nil))
		assert.Zero(t, MaxDrawdown([]types.PriceData{{Price: 100}}))
	})

	t.Run("monotone rise has zero drawdown", func(t *testing.T) {
		history := []types.PriceData{{Price: 100}, {Price: 110}, {Price: 120}}
		assert.Zero(t, MaxDrawdown(history))
	})

	t.Run("peak to trough", func(t *testing.T) {
		history := []types.PriceData{
			{Price: 100}, {Price: 120}, {Price: 90}, {Price: 110}, {Price: 99},
		}
		// Worst decline: 120 -> 90 = 25%.
		assert.InDelta(t, 0.25, MaxDrawdown(history), 1e-9)
	})

	t.Run("later deeper trough wins", func(t *testing.T) {
		history := []types.PriceData{
			{Price: 100}, {Price: 95}, {Price: 130}, {Price: 65},
		}
		assert.InDelta(t, 0.5, MaxDrawdown(history), 1e-9)
	})
}
