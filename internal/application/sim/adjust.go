package sim

// adjust.go — spot/oracle basis adjustment.
//
// The execution-timeline spot source and the settlement oracle track
// the same asset through different pipelines, so a small basis builds
// up between them. The adjuster observes oracle−spot differences as
// the replay advances and exposes the current offset to add to spot
// before pricing.

import (
	"math"
	"sort"

	"github.com/alejandrodnm/polysim/internal/domain"
)

type adjuster struct {
	method domain.SpotAdjust

	diffs  []float64 // trailing window for rolling mean / median
	ema    float64
	seeded bool
	lastTS int64
}

func newAdjuster(method domain.SpotAdjust) *adjuster {
	return &adjuster{method: method}
}

// observe feeds one oracle−spot difference sampled at ts.
func (a *adjuster) observe(diff float64, ts int64) {
	switch m := a.method.(type) {
	case domain.RollingMeanAdjust:
		a.push(diff, m.Window)
	case domain.MedianAdjust:
		a.push(diff, m.Window)
	case domain.EMAAdjust:
		if !a.seeded {
			a.ema = diff
			a.seeded = true
		} else {
			dt := float64(ts - a.lastTS)
			alpha := 1 - math.Exp(-math.Ln2*dt/float64(m.HalfLifeMS))
			a.ema += alpha * (diff - a.ema)
		}
		a.lastTS = ts
	}
}

// offset returns the adjustment to add to spot right now.
func (a *adjuster) offset() float64 {
	switch m := a.method.(type) {
	case nil:
		return 0
	case domain.StaticAdjust:
		return m.Value
	case domain.RollingMeanAdjust:
		if len(a.diffs) == 0 {
			return 0
		}
		var sum float64
		for _, d := range a.diffs {
			sum += d
		}
		return sum / float64(len(a.diffs))
	case domain.MedianAdjust:
		n := len(a.diffs)
		if n == 0 {
			return 0
		}
		sorted := append([]float64(nil), a.diffs...)
		sort.Float64s(sorted)
		if n%2 == 1 {
			return sorted[n/2]
		}
		return (sorted[n/2-1] + sorted[n/2]) / 2
	case domain.EMAAdjust:
		return a.ema
	default:
		return 0
	}
}

func (a *adjuster) push(diff float64, window int) {
	a.diffs = append(a.diffs, diff)
	if len(a.diffs) > window {
		a.diffs = a.diffs[len(a.diffs)-window:]
	}
}
