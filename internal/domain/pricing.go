package domain

// pricing.go — digital-option fair value for the 15-minute up/down payoff.
//
// P(up) is the Black-Scholes probability that spot finishes above the
// strike: d = [ln(S/K) + (r − σ²/2)τ] / (σ√τ), P(up) = Φ(d). τ is the
// remaining time as a year fraction. Degenerate inputs (no time left,
// no vol) resolve to the boundary probability instead of NaN — the
// simulator feeds every tick through here and a single NaN would
// poison the whole run's aggregates.

import "math"

// SecondsPerYear converts seconds-remaining into the year fraction τ.
const SecondsPerYear = 31536000.0

// Probabilities is the fair-value output for one (spot, strike, τ, σ).
type Probabilities struct {
	PUp     float64
	PDown   float64
	D       float64 // standardized distance to the strike
	VolTime float64 // σ√τ
}

// AdjustConfig gates the post-hoc nudges to d. Each is toggleable
// independently of the base formula so both paths stay testable.
type AdjustConfig struct {
	KurtosisOn bool
	Kurtosis   float64 // fat-tail damping, shrinks |d| as it grows
	SmileOn    bool
	Smile      float64 // steepens d with log-moneyness
}

// FairValue prices the binary payoff. riskFree is the constant
// annualized rate.
func FairValue(spot, strike, secondsLeft, vol, riskFree float64, adj AdjustConfig) Probabilities {
	if spot <= 0 || strike <= 0 || secondsLeft <= 0 || vol <= 0 {
		return boundary(spot, strike)
	}

	tau := secondsLeft / SecondsPerYear
	volTime := vol * math.Sqrt(tau)
	d := (math.Log(spot/strike) + (riskFree-vol*vol/2)*tau) / volTime

	if adj.KurtosisOn && adj.Kurtosis > 0 {
		d /= math.Sqrt(1 + adj.Kurtosis*d*d)
	}
	if adj.SmileOn && adj.Smile != 0 {
		d *= 1 + adj.Smile*math.Abs(math.Log(spot/strike))
	}

	pUp := normCDF(d)
	return Probabilities{PUp: pUp, PDown: 1 - pUp, D: d, VolTime: volTime}
}

// boundary is the degenerate-case answer: the outcome is already
// decided by where spot sits relative to the strike.
func boundary(spot, strike float64) Probabilities {
	switch {
	case spot > strike:
		return Probabilities{PUp: 1, PDown: 0}
	case spot < strike:
		return Probabilities{PUp: 0, PDown: 1}
	default:
		return Probabilities{PUp: 0.5, PDown: 0.5}
	}
}

// normCDF is the standard normal CDF via the Abramowitz-Stegun
// polynomial (26.2.17), abs error < 7.5e-8.
func normCDF(x float64) float64 {
	if x < 0 {
		return 1 - normCDF(-x)
	}
	k := 1 / (1 + 0.2316419*x)
	poly := k * (0.319381530 + k*(-0.356563782+k*(1.781477937+k*(-1.821255978+k*1.330274429))))
	return 1 - math.Exp(-x*x/2)/math.Sqrt(2*math.Pi)*poly
}
