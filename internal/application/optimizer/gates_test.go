package optimizer

import (
	"strings"
	"testing"

	"github.com/alejandrodnm/polysim/internal/domain"
	"github.com/stretchr/testify/assert"
)

func passingCell() *domain.CellResult {
	return &domain.CellResult{
		TrainStats: domain.Stats{Trades: 50, TotalPnL: 120, Sharpe: 2.0, MaxDrawdown: -40},
		TestStats:  domain.Stats{Trades: 20, TotalPnL: 45, Sharpe: 1.2, MaxDrawdown: -50},
	}
}

func TestGates_AllPass(t *testing.T) {
	g := EvaluateGates(passingCell(), 1000)
	assert.True(t, g.Passed)
	assert.Empty(t, g.Reason)
	assert.Equal(t, 0, g.FailedGate)
}

func TestGates_TradeFloorFirst(t *testing.T) {
	cr := passingCell()
	cr.TrainStats.Trades = 12
	cr.TrainStats.TotalPnL = -500 // would also fail gate 2

	g := EvaluateGates(cr, 1000)
	assert.False(t, g.Passed)
	assert.Equal(t, 1, g.FailedGate)
	// Short-circuit: the recorded reason is gate 1's, never gate 2's.
	assert.Contains(t, g.Reason, "train trades 12")
	assert.NotContains(t, g.Reason, "pnl")
}

func TestGates_TrainPnL(t *testing.T) {
	cr := passingCell()
	cr.TrainStats.TotalPnL = -3
	g := EvaluateGates(cr, 1000)
	assert.Equal(t, 2, g.FailedGate)
}

func TestGates_TestPnL(t *testing.T) {
	cr := passingCell()
	cr.TestStats.TotalPnL = 0
	g := EvaluateGates(cr, 1000)
	assert.Equal(t, 3, g.FailedGate)
}

func TestGates_DrawdownStability(t *testing.T) {
	cr := passingCell()
	cr.TestStats.MaxDrawdown = -70 // > 1.5 × 40
	g := EvaluateGates(cr, 1000)
	assert.Equal(t, 4, g.FailedGate)
	assert.True(t, strings.Contains(g.Reason, "drawdown"))
}

func TestGates_SharpeRetention(t *testing.T) {
	cr := passingCell()
	cr.TestStats.Sharpe = 0.9 // < 0.5 × 2.0
	g := EvaluateGates(cr, 1000)
	assert.Equal(t, 5, g.FailedGate)
}

func TestGates_SharpeSkippedWhenTrainNonPositive(t *testing.T) {
	cr := passingCell()
	cr.TrainStats.Sharpe = 0
	cr.TestStats.Sharpe = -5 // no meaningful comparison, gate skipped
	g := EvaluateGates(cr, 1000)
	assert.True(t, g.Passed)
}

func TestGates_AbsoluteDrawdownCeiling(t *testing.T) {
	cr := passingCell()
	cr.TrainStats.MaxDrawdown = -400
	cr.TestStats.MaxDrawdown = -350 // 35% of capital
	g := EvaluateGates(cr, 1000)
	assert.Equal(t, 6, g.FailedGate)
}

func TestGates_CeilingSkippedWhenUnbounded(t *testing.T) {
	cr := passingCell()
	cr.TrainStats.MaxDrawdown = -400
	cr.TestStats.MaxDrawdown = -350
	g := EvaluateGates(cr, 0)
	assert.True(t, g.Passed)
}

// --- scoring ---

func TestScore_PenalizesDrawdown(t *testing.T) {
	s := Score(domain.Stats{TotalPnL: 100, MaxDrawdown: -40})
	assert.InDelta(t, 80, s, 1e-9)
}

func TestMinBankroll_Analytic(t *testing.T) {
	// ceil(0.50 / (0.25 × 0.05)) = 40
	assert.Equal(t, 40.0, MinBankroll(domain.GridCell{MinEdge: 0.05, Fraction: 0.25}))
	assert.Equal(t, 0.0, MinBankroll(domain.GridCell{}))
}
