package domain

// stats.go — pure derivation of run statistics from a completed run.
//
// Risk metrics come from daily P&L deltas extracted from the
// resolution-time curve, not from per-trade returns: holding periods
// are heterogeneous and per-trade variance would be biased.

import "math"

// RatioSentinel replaces an infinite Sharpe/Sortino (zero dispersion)
// so downstream score comparisons stay well-ordered.
const RatioSentinel = 999.0

const dayMS = 24 * 60 * 60 * 1000

// Stats summarizes one simulation run.
type Stats struct {
	Trades    int
	Wins      int
	WinRate   float64
	Markets   int
	TotalPnL  float64
	TotalFees float64
	UpPnL     float64
	DownPnL   float64

	AvgEdge            float64 // mean edge taken per trade
	ExpectedPnL        float64 // Σ(edge × size)
	EdgeCapture        float64 // realized ÷ expected, when expected > 0
	EdgeCaptureDefined bool

	Sharpe       float64
	Sortino      float64
	MaxDrawdown  float64 // most negative excursion below the running peak
	DrawdownDays float64 // longest peak-to-recovery span
	TradingDays  int
}

// ComputeStats derives the full statistics bundle from a run.
func ComputeStats(run RunResult) Stats {
	s := Stats{
		Trades:    len(run.Trades),
		Markets:   run.Markets,
		TotalPnL:  run.TotalPnL,
		TotalFees: run.TotalFees,
	}

	outcomes := make(map[string]Outcome, len(run.Resolutions))
	for _, r := range run.Resolutions {
		outcomes[r.MarketID] = r.Outcome
		s.UpPnL += r.UpPnL
		s.DownPnL += r.DownPnL
	}

	var edgeSum float64
	for _, t := range run.Trades {
		edgeSum += t.Edge
		s.ExpectedPnL += t.Edge * math.Abs(t.Size)
		if o, ok := outcomes[t.MarketID]; ok && o == t.Side {
			s.Wins++
		}
	}
	if s.Trades > 0 {
		s.AvgEdge = edgeSum / float64(s.Trades)
		s.WinRate = float64(s.Wins) / float64(s.Trades)
	}

	// Open question upstream: with non-positive expected P&L the ratio
	// is reported as 0 but flagged undefined so renderers show "n/a".
	if s.ExpectedPnL > 0 {
		s.EdgeCapture = s.TotalPnL / s.ExpectedPnL
		s.EdgeCaptureDefined = true
	}

	daily := dailyDeltas(run.PnLCurve)
	s.TradingDays = len(daily)
	s.Sharpe = sharpe(daily)
	s.Sortino = sortino(daily)
	s.MaxDrawdown, s.DrawdownDays = maxDrawdown(run.PnLCurve)
	return s
}

// dailyDeltas collapses the resolution-time curve into one cumulative
// value per UTC day and differences consecutive recorded days.
func dailyDeltas(curve []PnLPoint) []float64 {
	if len(curve) == 0 {
		return nil
	}
	var days []int64
	last := make(map[int64]float64)
	for _, p := range curve {
		day := p.Timestamp / dayMS
		if _, seen := last[day]; !seen {
			days = append(days, day)
		}
		last[day] = p.Cumulative
	}

	deltas := make([]float64, 0, len(days))
	prev := 0.0
	for _, day := range days {
		deltas = append(deltas, last[day]-prev)
		prev = last[day]
	}
	return deltas
}

func sharpe(daily []float64) float64 {
	if len(daily) == 0 {
		return 0
	}
	mean, std := meanStd(daily)
	if std == 0 {
		return sentinelFor(mean)
	}
	return mean / std * math.Sqrt(252)
}

// sortino penalizes downside dispersion only; the denominator uses N
// (all days), the standard asymmetric-risk formula.
func sortino(daily []float64) float64 {
	if len(daily) == 0 {
		return 0
	}
	mean, _ := meanStd(daily)
	var downSq float64
	for _, d := range daily {
		if d < 0 {
			downSq += d * d
		}
	}
	down := math.Sqrt(downSq / float64(len(daily)))
	if down == 0 {
		return sentinelFor(mean)
	}
	return mean / down * math.Sqrt(252)
}

func sentinelFor(mean float64) float64 {
	switch {
	case mean > 0:
		return RatioSentinel
	case mean < 0:
		return -RatioSentinel
	default:
		return 0
	}
}

func meanStd(xs []float64) (mean, std float64) {
	n := float64(len(xs))
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / n
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	std = math.Sqrt(sq / n)
	return mean, std
}

// maxDrawdown walks the cumulative curve with a running peak (starting
// at 0, the initial equity) and returns the deepest excursion plus the
// longest peak-to-recovery duration in days.
func maxDrawdown(curve []PnLPoint) (depth, days float64) {
	if len(curve) == 0 {
		return 0, 0
	}
	peak := 0.0
	peakTS := curve[0].Timestamp
	var worst float64
	var longestMS int64
	for _, p := range curve {
		if p.Cumulative >= peak {
			peak = p.Cumulative
			peakTS = p.Timestamp
			continue
		}
		if dd := p.Cumulative - peak; dd < worst {
			worst = dd
		}
		if span := p.Timestamp - peakTS; span > longestMS {
			longestMS = span
		}
	}
	return worst, float64(longestMS) / float64(dayMS)
}
