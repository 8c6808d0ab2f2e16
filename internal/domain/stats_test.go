package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testDayMS = int64(24 * 60 * 60 * 1000)

func winLossRun() RunResult {
	trades := []Trade{
		{ID: 1, MarketID: "m1", Side: OutcomeUp, Edge: 0.08, Size: 10, Cost: 5.1},
		{ID: 2, MarketID: "m2", Side: OutcomeDown, Edge: 0.06, Size: 10, Cost: 4.9},
	}
	resolutions := []MarketResolution{
		{MarketID: "m1", Outcome: OutcomeUp, UpPnL: 4.9, PnL: 4.9},
		{MarketID: "m2", Outcome: OutcomeUp, DownPnL: -4.9, PnL: -4.9},
	}
	curve := []PnLPoint{
		{Timestamp: 1 * testDayMS, Cumulative: 4.9},
		{Timestamp: 2 * testDayMS, Cumulative: 0},
	}
	return RunResult{
		Trades:      trades,
		Resolutions: resolutions,
		PnLCurve:    curve,
		Markets:     2,
		TotalPnL:    0,
		TotalFees:   0.1,
	}
}

func TestComputeStats_WinRate(t *testing.T) {
	s := ComputeStats(winLossRun())
	assert.Equal(t, 2, s.Trades)
	assert.Equal(t, 1, s.Wins)
	assert.InDelta(t, 0.5, s.WinRate, 1e-9)
	assert.InDelta(t, 4.9, s.UpPnL, 1e-9)
	assert.InDelta(t, -4.9, s.DownPnL, 1e-9)
}

func TestComputeStats_EdgeCapture(t *testing.T) {
	run := winLossRun()
	run.TotalPnL = 0.7
	s := ComputeStats(run)
	// expected = 0.08×10 + 0.06×10 = 1.4
	assert.True(t, s.EdgeCaptureDefined)
	assert.InDelta(t, 0.5, s.EdgeCapture, 1e-9)
}

func TestComputeStats_EdgeCaptureUndefinedWithoutTrades(t *testing.T) {
	s := ComputeStats(RunResult{})
	assert.False(t, s.EdgeCaptureDefined)
	assert.Equal(t, 0.0, s.EdgeCapture)
}

func TestComputeStats_EmptyRunIsAllZeros(t *testing.T) {
	s := ComputeStats(RunResult{})
	assert.Equal(t, 0, s.Trades)
	assert.Equal(t, 0.0, s.Sharpe)
	assert.Equal(t, 0.0, s.MaxDrawdown)
	assert.False(t, math.IsNaN(s.Sortino))
}

// --- daily series and risk ratios ---

func TestDailyDeltas_LastValuePerDay(t *testing.T) {
	curve := []PnLPoint{
		{Timestamp: 1 * testDayMS, Cumulative: 2},
		{Timestamp: 1*testDayMS + 1000, Cumulative: 3}, // same day, supersedes
		{Timestamp: 3 * testDayMS, Cumulative: 1},
	}
	deltas := dailyDeltas(curve)
	assert.Equal(t, []float64{3, -2}, deltas)
}

func TestSharpe_ZeroVarianceIsSentinel(t *testing.T) {
	assert.Equal(t, RatioSentinel, sharpe([]float64{2, 2, 2}))
	assert.Equal(t, -RatioSentinel, sharpe([]float64{-2, -2}))
	assert.False(t, math.IsInf(sharpe([]float64{2, 2}), 1))
}

func TestSortino_AllPositiveDaysIsSentinel(t *testing.T) {
	assert.Equal(t, RatioSentinel, sortino([]float64{1, 2, 3}))
}

func TestSortino_DenominatorUsesAllDays(t *testing.T) {
	// days: +2, −1, +1 → mean = 2/3, downside = sqrt(1/3)
	got := sortino([]float64{2, -1, 1})
	want := (2.0 / 3) / math.Sqrt(1.0/3) * math.Sqrt(252)
	assert.InDelta(t, want, got, 1e-9)
}

// --- drawdown ---

func TestMaxDrawdown_RunningPeak(t *testing.T) {
	curve := []PnLPoint{
		{Timestamp: 1 * testDayMS, Cumulative: 5},
		{Timestamp: 2 * testDayMS, Cumulative: 2},
		{Timestamp: 3 * testDayMS, Cumulative: 8},
		{Timestamp: 4 * testDayMS, Cumulative: 3},
	}
	depth, days := maxDrawdown(curve)
	assert.InDelta(t, -5, depth, 1e-9)
	assert.InDelta(t, 1, days, 1e-9)
}

func TestMaxDrawdown_StartsFromZeroEquity(t *testing.T) {
	// A curve that only ever loses: drawdown measured from 0.
	curve := []PnLPoint{
		{Timestamp: 1 * testDayMS, Cumulative: -3},
		{Timestamp: 2 * testDayMS, Cumulative: -7},
	}
	depth, _ := maxDrawdown(curve)
	assert.InDelta(t, -7, depth, 1e-9)
}
