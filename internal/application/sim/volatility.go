package sim

// volatility.go — blended volatility for the pricing model.
//
// Blend: 0.70·realized(1h) + 0.20·realized(4h) + 0.10·implied. With
// insufficient candle history the blend falls back to the 4h window,
// then to implied vol alone. The result is clamped to [10%, 300%]
// annualized so early-window estimation noise cannot blow up the
// probability model.

import "github.com/alejandrodnm/polysim/internal/domain"

const (
	weight1h      = 0.70
	weight4h      = 0.20
	weightImplied = 0.10

	window1h = 60  // 1-minute samples
	window4h = 240 // 1-minute samples

	volFloor = 0.10
	volCap   = 3.00
)

func blendedVol(hist *domain.History, ts int64) float64 {
	rv1h := domain.RealizedVol(hist.Candles, ts, window1h)
	rv4h := domain.RealizedVol(hist.Candles, ts, window4h)

	var implied float64
	if v := domain.VolAt(hist.ImpliedVol, ts); v != nil {
		implied = v.Vol
	}

	var blended float64
	switch {
	case rv1h > 0 && rv4h > 0:
		if implied > 0 {
			blended = weight1h*rv1h + weight4h*rv4h + weightImplied*implied
		} else {
			// No implied series: renormalize the realized weights.
			blended = (weight1h*rv1h + weight4h*rv4h) / (weight1h + weight4h)
		}
	case rv4h > 0:
		blended = rv4h
	default:
		blended = implied
	}

	if blended < volFloor {
		return volFloor
	}
	if blended > volCap {
		return volCap
	}
	return blended
}
