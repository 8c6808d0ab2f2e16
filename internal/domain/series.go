package domain

// series.go — floor lookups over the ascending sample series.
//
// The contract everywhere is "last value at or before ts", returning
// nil only when ts precedes the first sample. A missing sample is a
// data gap, never an error: callers skip the tick and move on.

import (
	"math"
	"sort"
)

// Candle is one spot-price kline.
type Candle struct {
	Timestamp int64 // unix ms, open time
	Open      float64
	High      float64
	Low       float64
	Close     float64
}

// PricePoint is a single mid-price (or oracle price) sample.
type PricePoint struct {
	Timestamp int64 // unix ms
	Price     float64
}

// VolPoint is a single implied-volatility sample (annualized decimal).
type VolPoint struct {
	Timestamp int64 // unix ms
	Vol       float64
}

// CandleAt returns the candle at or immediately before ts, or nil if
// ts precedes the series.
func CandleAt(cs []Candle, ts int64) *Candle {
	i := floorIndex(len(cs), ts, func(j int) int64 { return cs[j].Timestamp })
	if i < 0 {
		return nil
	}
	return &cs[i]
}

// CandleIndexAt returns the index of the candle at or immediately
// before ts, or -1.
func CandleIndexAt(cs []Candle, ts int64) int {
	return floorIndex(len(cs), ts, func(j int) int64 { return cs[j].Timestamp })
}

// PriceAt returns the price sample at or immediately before ts, or nil.
func PriceAt(ps []PricePoint, ts int64) *PricePoint {
	i := floorIndex(len(ps), ts, func(j int) int64 { return ps[j].Timestamp })
	if i < 0 {
		return nil
	}
	return &ps[i]
}

// VolAt returns the vol sample at or immediately before ts, or nil.
func VolAt(vs []VolPoint, ts int64) *VolPoint {
	i := floorIndex(len(vs), ts, func(j int) int64 { return vs[j].Timestamp })
	if i < 0 {
		return nil
	}
	return &vs[i]
}

// floorIndex returns the largest index whose timestamp is <= ts, or -1.
func floorIndex(n int, ts int64, at func(int) int64) int {
	return sort.Search(n, func(j int) bool { return at(j) > ts }) - 1
}

// MinutesPerYear is the annualization base for 1-minute realized vol.
const MinutesPerYear = 525600.0

// RealizedVol returns the annualized standard deviation of log returns
// over the trailing window of 1-minute closes ending at or before ts.
// Returns 0 when the series has fewer than `window` samples available
// there — callers treat 0 as "insufficient history" and fall back.
func RealizedVol(cs []Candle, ts int64, window int) float64 {
	end := CandleIndexAt(cs, ts)
	if end < 0 || window < 2 || end+1 < window {
		return 0
	}
	start := end - window + 1

	var sum, sumSq float64
	n := 0
	for i := start + 1; i <= end; i++ {
		prev := cs[i-1].Close
		cur := cs[i].Close
		if prev <= 0 || cur <= 0 {
			continue
		}
		r := math.Log(cur / prev)
		sum += r
		sumSq += r * r
		n++
	}
	if n < 2 {
		return 0
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance) * math.Sqrt(MinutesPerYear)
}
