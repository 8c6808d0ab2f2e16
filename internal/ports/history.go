package ports

import (
	"context"

	"github.com/alejandrodnm/polysim/internal/domain"
)

// HistoryProvider hands the core its input arrays, each sorted
// ascending by timestamp. Implementations fetch over the network or
// read a local cache; the simulation core only ever sees the resolved
// in-memory slices.
type HistoryProvider interface {
	// FetchMarkets returns the up/down markets whose window starts
	// inside [from, to), with resolved outcomes where known.
	FetchMarkets(ctx context.Context, from, to int64) ([]domain.Market, error)

	// FetchCandles returns 1-minute spot klines covering [from, to).
	FetchCandles(ctx context.Context, from, to int64) ([]domain.Candle, error)

	// FetchPrices returns mid-price samples for one outcome token.
	FetchPrices(ctx context.Context, tokenID string, from, to int64) ([]domain.PricePoint, error)

	// FetchImpliedVol returns implied-volatility index samples.
	FetchImpliedVol(ctx context.Context, from, to int64) ([]domain.VolPoint, error)

	// FetchOraclePrices returns settlement-oracle price samples.
	FetchOraclePrices(ctx context.Context, from, to int64) ([]domain.PricePoint, error)
}
