package optimizer

// gates.go — the hard statistical gates.
//
// Applied in fixed order; the first failure short-circuits with a
// human-readable reason. The order is part of the contract: it makes
// rejection reasons diagnosable, loosest sanity check first.

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/polysim/internal/domain"
)

const (
	minTrainTrades      = 30
	maxDrawdownGrowth   = 1.5  // test drawdown vs train drawdown
	minSharpeRetention  = 0.5  // test Sharpe vs train Sharpe
	maxDrawdownFraction = 0.30 // of initial capital
)

// EvaluateGates runs the six gates against one cell's train/test
// results. Gate rejection is a first-class negative result, not an
// error.
func EvaluateGates(cr *domain.CellResult, capital float64) domain.GateResult {
	train, test := cr.TrainStats, cr.TestStats

	if train.Trades < minTrainTrades {
		return fail(1, fmt.Sprintf("train trades %d < %d (significance floor)", train.Trades, minTrainTrades))
	}
	if train.TotalPnL <= 0 {
		return fail(2, fmt.Sprintf("train pnl %.2f not positive", train.TotalPnL))
	}
	if test.TotalPnL <= 0 {
		return fail(3, fmt.Sprintf("test pnl %.2f not positive", test.TotalPnL))
	}
	if math.Abs(test.MaxDrawdown) > maxDrawdownGrowth*math.Abs(train.MaxDrawdown) {
		return fail(4, fmt.Sprintf("test drawdown %.2f exceeds %.1f× train drawdown %.2f",
			test.MaxDrawdown, maxDrawdownGrowth, train.MaxDrawdown))
	}
	// Only comparable when the train Sharpe is meaningfully positive.
	if train.Sharpe > 0 && test.Sharpe < minSharpeRetention*train.Sharpe {
		return fail(5, fmt.Sprintf("test sharpe %.2f below %.0f%% of train sharpe %.2f",
			test.Sharpe, minSharpeRetention*100, train.Sharpe))
	}
	// Absolute risk ceiling; skipped when capital is unbounded.
	if capital > 0 && math.Abs(test.MaxDrawdown) > maxDrawdownFraction*capital {
		return fail(6, fmt.Sprintf("test drawdown %.2f exceeds %.0f%% of capital %.0f",
			test.MaxDrawdown, maxDrawdownFraction*100, capital))
	}

	return domain.GateResult{Passed: true}
}

func fail(gate int, reason string) domain.GateResult {
	return domain.GateResult{Passed: false, FailedGate: gate, Reason: reason}
}
