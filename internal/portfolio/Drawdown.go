/*

This file contains the max-drawdown calculation over a price history, used as
the portfolio-level drawdown input to the rebalance trigger.

*/

package portfolio

import (
	"github.com/starkfolio/apa/internal/types"
)

// MaxDrawdown returns the largest peak-to-trough decline over a price
// history, as a fraction of the peak. Histories with fewer than two points
// report zero drawdown.
func MaxDrawdown(history []types.PriceData) float64 {
	if len(history) < 2 {
		return 0
	}

	var maxDrawdown float64
	peak := history[0].Price
	for _, point := range history[1:] {
		if point.Price > peak {
			peak = point.Price
			continue
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - point.Price) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}
