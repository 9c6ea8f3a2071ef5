/*

This file contains the rebalance trigger.

The trigger is a fresh two-state evaluation every cycle: BALANCED or
NEEDS_REBALANCE. Checks run in a fixed order (drawdown, then diversification,
then per-protocol weight drift) and short-circuit on the first violation so
the reported reason is deterministic.

*/

package portfolio

import (
	"fmt"
	"math"
	"sort"

	"github.com/starkfolio/apa/internal/logger"
	"github.com/starkfolio/apa/internal/types"
)

var rebalanceLogger = logger.GetForComponent("rebalance_trigger")

// EvaluateRebalance compares the current portfolio against the strategy's
// cross-protocol limits. currentDrawdown is the portfolio-level max drawdown
// as a fraction; targetWeights maps protocol to its target exposure fraction.
func EvaluateRebalance(
	metrics types.PortfolioMetrics,
	currentDrawdown float64,
	targetWeights map[string]float64,
	limits types.CrossProtocolMetrics,
) types.RebalanceDecision {
	if currentDrawdown > limits.TotalDrawdownLimit {
		return needsRebalance(fmt.Sprintf(
			"max drawdown %.4f exceeds limit %.4f",
			currentDrawdown, limits.TotalDrawdownLimit))
	}

	if metrics.DiversificationScore < limits.DiversificationTarget {
		return needsRebalance(fmt.Sprintf(
			"diversification score %.4f below target %.4f",
			metrics.DiversificationScore, limits.DiversificationTarget))
	}

	// Protocols visited in sorted order so the first drifted protocol named
	// in the reason is stable across evaluations.
	protocols := make([]string, 0, len(targetWeights))
	for protocol := range targetWeights {
		protocols = append(protocols, protocol)
	}
	sort.Strings(protocols)

	for _, protocol := range protocols {
		target := targetWeights[protocol]
		current := metrics.ProtocolExposure[protocol]
		drift := math.Abs(current - target)
		if drift > limits.RebalanceThreshold {
			return needsRebalance(fmt.Sprintf(
				"protocol %s weight %.4f drifted %.4f from target %.4f (threshold %.4f)",
				protocol, current, drift, target, limits.RebalanceThreshold))
		}
	}

	return types.RebalanceDecision{State: types.StateBalanced, Reason: "all checks within limits"}
}

func needsRebalance(reason string) types.RebalanceDecision {
	rebalanceLogger.Info().Str("reason", reason).Msg("Rebalance required")
	return types.RebalanceDecision{State: types.StateNeedsRebalance, Reason: reason}
}
