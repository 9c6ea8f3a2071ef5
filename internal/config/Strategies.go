/*

This file contains the default risk strategy configurations for the APA.

Each risk level carries per-protocol allocation bounds (percent of the total
investable amount) and the cross-protocol limits consulted by the rebalance
trigger. The configurations are static: one is selected by risk-level
classification at the start of a cycle and is immutable while the cycle runs.

*/

package config

import (
	"fmt"

	"github.com/starkfolio/apa/internal/types"
)

// Strategies provides the baseline per-risk-level strategy configurations.
var Strategies = map[types.RiskLevel]types.RiskStrategyConfig{
	types.RiskLow: {
		Level:       types.RiskLow,
		MaxDrawdown: 0.10, // Low-risk capital tolerates at most a 10% estimated drawdown.
		Protocols: map[string]types.ProtocolBounds{
			"zkLend": {MinAllocation: 60, MaxAllocation: 80},
			"Ekubo":  {MinAllocation: 10, MaxAllocation: 20},
		},
		// Lending first: stable supply yield dominates the conservative book.
		ProtocolOrder: []string{"zkLend", "Ekubo"},
		CrossProtocol: types.CrossProtocolMetrics{
			RebalanceThreshold:    0.05,
			MaxVolatility:         0.20,
			CorrelationLimit:      0.70,
			TotalDrawdownLimit:    0.10,
			DiversificationTarget: 0.30,
		},
	},
	types.RiskMedium: {
		Level:       types.RiskMedium,
		MaxDrawdown: 0.20,
		Protocols: map[string]types.ProtocolBounds{
			"zkLend": {MinAllocation: 40, MaxAllocation: 60},
			"Ekubo":  {MinAllocation: 30, MaxAllocation: 50},
		},
		ProtocolOrder: []string{"zkLend", "Ekubo"},
		CrossProtocol: types.CrossProtocolMetrics{
			RebalanceThreshold:    0.10,
			MaxVolatility:         0.40,
			CorrelationLimit:      0.80,
			TotalDrawdownLimit:    0.20,
			DiversificationTarget: 0.25,
		},
	},
	types.RiskHigh: {
		Level:       types.RiskHigh,
		MaxDrawdown: 0.35,
		Protocols: map[string]types.ProtocolBounds{
			"zkLend": {MinAllocation: 20, MaxAllocation: 40},
			"Ekubo":  {MinAllocation: 50, MaxAllocation: 80},
		},
		// AMM first: the aggressive book chases fee/volume yield.
		ProtocolOrder: []string{"Ekubo", "zkLend"},
		CrossProtocol: types.CrossProtocolMetrics{
			RebalanceThreshold:    0.15,
			MaxVolatility:         0.80,
			CorrelationLimit:      0.90,
			TotalDrawdownLimit:    0.35,
			DiversificationTarget: 0.15,
		},
	},
}

// StrategyForLevel returns the strategy configuration for a risk level.
func StrategyForLevel(level types.RiskLevel) (types.RiskStrategyConfig, bool) {
	cfg, ok := Strategies[level]
	return cfg, ok
}

// ValidateStrategies checks the per-protocol bound invariant
// (0 <= min <= max <= 100) for every configured strategy. Called at startup.
func ValidateStrategies() error {
	for level, cfg := range Strategies {
		if len(cfg.ProtocolOrder) != len(cfg.Protocols) {
			return fmt.Errorf("strategy %s: protocol order does not cover all protocols", level)
		}
		for _, protocol := range cfg.ProtocolOrder {
			bounds, ok := cfg.Protocols[protocol]
			if !ok {
				return fmt.Errorf("strategy %s: protocol %s in order but has no bounds", level, protocol)
			}
			if bounds.MinAllocation < 0 || bounds.MinAllocation > bounds.MaxAllocation || bounds.MaxAllocation > 100 {
				return fmt.Errorf("strategy %s: protocol %s bounds [%.2f, %.2f] violate 0 <= min <= max <= 100",
					level, protocol, bounds.MinAllocation, bounds.MaxAllocation)
			}
		}
		if cfg.MaxDrawdown < 0 || cfg.MaxDrawdown > 1 {
			return fmt.Errorf("strategy %s: max drawdown %.4f outside [0, 1]", level, cfg.MaxDrawdown)
		}
	}
	return nil
}
