package histdata

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polysim/internal/domain"
	"github.com/alejandrodnm/polysim/internal/ports"
)

// Candle lookback pulled in ahead of the simulation window so the
// realized-vol estimators have warm history at the first tick.
const warmupMS int64 = 4 * 60 * 60 * 1000

// Loader assembles a History for a window, going to the cache first
// and to the provider only on a miss (or when refresh is forced).
type Loader struct {
	provider ports.HistoryProvider
	cache    ports.HistoryCache
}

func NewLoader(provider ports.HistoryProvider, cache ports.HistoryCache) *Loader {
	return &Loader{provider: provider, cache: cache}
}

// Load returns the full input set for [from, to). With refresh false a
// cached window with markets in it is served as-is.
func (l *Loader) Load(ctx context.Context, from, to int64, refresh bool) (*domain.History, error) {
	if l.cache != nil && !refresh {
		hist, err := l.cache.LoadHistory(ctx, from, to)
		if err != nil {
			slog.Warn("history cache read failed, fetching fresh", "err", err)
		} else if len(hist.Markets) > 0 {
			slog.Info("serving history from cache",
				"markets", len(hist.Markets), "candles", len(hist.Candles))
			return hist, nil
		}
	}

	hist, err := l.fetch(ctx, from, to)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.SaveHistory(ctx, hist); err != nil {
			slog.Warn("history cache write failed", "err", err)
		}
	}
	return hist, nil
}

func (l *Loader) fetch(ctx context.Context, from, to int64) (*domain.History, error) {
	markets, err := l.provider.FetchMarkets(ctx, from, to)
	if err != nil {
		return nil, err
	}

	candles, err := l.provider.FetchCandles(ctx, from-warmupMS, to)
	if err != nil {
		return nil, err
	}

	prices := make(map[string][]domain.PricePoint, 2*len(markets))
	for _, m := range markets {
		for _, token := range []string{m.UpTokenID, m.DownTokenID} {
			if _, ok := prices[token]; ok {
				continue
			}
			pp, err := l.provider.FetchPrices(ctx, token, m.StartTime, m.EndTime)
			if err != nil {
				return nil, fmt.Errorf("market %s: %w", m.ID, err)
			}
			prices[token] = pp
		}
	}

	iv, err := l.provider.FetchImpliedVol(ctx, from-warmupMS, to)
	if err != nil {
		// The vol blend renormalizes without the implied leg, so a
		// missing index degrades the run instead of aborting it.
		slog.Warn("implied vol unavailable, blending without it", "err", err)
		iv = nil
	}

	oracle, err := l.provider.FetchOraclePrices(ctx, from, to)
	if err != nil {
		return nil, err
	}

	slog.Info("history fetched",
		"markets", len(markets), "candles", len(candles),
		"tokens", len(prices), "vol_points", len(iv), "oracle_points", len(oracle))

	return &domain.History{
		Markets:    markets,
		Candles:    candles,
		Prices:     prices,
		ImpliedVol: iv,
		Oracle:     oracle,
	}, nil
}
