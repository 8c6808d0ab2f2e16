package optimizer

import (
	"math"

	"github.com/alejandrodnm/polysim/internal/domain"
)

// drawdownPenalty weighs risk against return in the final score.
const drawdownPenalty = 0.5

// Score is the risk-adjusted return proxy used for ranking:
// test P&L − 0.5 × |test max drawdown|.
func Score(test domain.Stats) float64 {
	return test.TotalPnL - drawdownPenalty*math.Abs(test.MaxDrawdown)
}

// MinBankroll derives the smallest viable capital for a cell
// analytically: below it, capital × fraction × edge stakes fall under
// the venue's minimum order notional.
func MinBankroll(cell domain.GridCell) float64 {
	if cell.Fraction <= 0 || cell.MinEdge <= 0 {
		return 0
	}
	return math.Ceil(0.50 / (cell.Fraction * cell.MinEdge))
}
