package histdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/alejandrodnm/polysim/internal/domain"
)

const (
	gammaPageSize  = 100
	klineBatchSize = 1000
	// Minute samples for the outcome-token mid series.
	priceFidelity = 1
)

// Provider implements ports.HistoryProvider against the public data
// sources: Gamma for market metadata, the CLOB for token price history,
// Binance for spot klines, Deribit for the implied-vol index and a
// Chainlink gateway for oracle rounds.
type Provider struct {
	c *Client

	// Series slug of the recurring up/down market family,
	// e.g. "bitcoin-up-or-down-15-minute".
	series string
	// Spot symbol for the underlying, e.g. "BTCUSDT".
	symbol string
	// Vol index name, e.g. "btc_usd".
	volIndex string
	// Oracle feed path, e.g. "btc-usd".
	feed string
}

func NewProvider(c *Client, series, symbol, volIndex, feed string) *Provider {
	return &Provider{c: c, series: series, symbol: symbol, volIndex: volIndex, feed: feed}
}

// --- markets (Gamma) ---

type gammaMarket struct {
	ID            string  `json:"id"`
	Question      string  `json:"question"`
	StartDate     string  `json:"startDate"`
	EndDate       string  `json:"endDate"`
	StrikePrice   float64 `json:"strikePrice,string"`
	ClobTokenIDs  string  `json:"clobTokenIds"`
	Outcomes      string  `json:"outcomes"`
	OutcomePrices string  `json:"outcomePrices"`
	Closed        bool    `json:"closed"`
}

func (p *Provider) FetchMarkets(ctx context.Context, from, to int64) ([]domain.Market, error) {
	var out []domain.Market
	for offset := 0; ; offset += gammaPageSize {
		q := url.Values{}
		q.Set("series_slug", p.series)
		q.Set("start_date_min", msToRFC3339(from))
		q.Set("start_date_max", msToRFC3339(to))
		q.Set("limit", strconv.Itoa(gammaPageSize))
		q.Set("offset", strconv.Itoa(offset))
		q.Set("order", "startDate")
		q.Set("ascending", "true")

		var page []gammaMarket
		u := fmt.Sprintf("%s/markets?%s", p.c.gammaBase, q.Encode())
		if err := p.c.get(ctx, p.c.gammaLimiter, u, &page); err != nil {
			return nil, fmt.Errorf("fetch markets: %w", err)
		}
		for _, gm := range page {
			m, err := gm.toDomain()
			if err != nil {
				slog.Warn("skipping malformed market", "id", gm.ID, "err", err)
				continue
			}
			if m.StartTime >= from && m.StartTime < to {
				out = append(out, m)
			}
		}
		if len(page) < gammaPageSize {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (gm gammaMarket) toDomain() (domain.Market, error) {
	start, err := time.Parse(time.RFC3339, gm.StartDate)
	if err != nil {
		return domain.Market{}, fmt.Errorf("startDate: %w", err)
	}
	end, err := time.Parse(time.RFC3339, gm.EndDate)
	if err != nil {
		return domain.Market{}, fmt.Errorf("endDate: %w", err)
	}

	// clobTokenIds is a JSON-encoded array inside a string, ordered to
	// match the outcomes array ("Up" first on this series).
	var tokens []string
	if err := json.Unmarshal([]byte(gm.ClobTokenIDs), &tokens); err != nil {
		return domain.Market{}, fmt.Errorf("clobTokenIds: %w", err)
	}
	if len(tokens) != 2 {
		return domain.Market{}, fmt.Errorf("expected 2 tokens, got %d", len(tokens))
	}

	m := domain.Market{
		ID:          gm.ID,
		Strike:      gm.StrikePrice,
		StartTime:   start.UnixMilli(),
		EndTime:     end.UnixMilli(),
		UpTokenID:   tokens[0],
		DownTokenID: tokens[1],
	}

	if gm.Closed && gm.OutcomePrices != "" {
		var prices []string
		if err := json.Unmarshal([]byte(gm.OutcomePrices), &prices); err == nil && len(prices) == 2 {
			// Settled markets carry ["1","0"] or ["0","1"].
			switch {
			case prices[0] == "1":
				up := domain.OutcomeUp
				m.Resolved = &up
			case prices[1] == "1":
				down := domain.OutcomeDown
				m.Resolved = &down
			}
		}
	}
	return m, nil
}

// --- spot candles (Binance klines) ---

func (p *Provider) FetchCandles(ctx context.Context, from, to int64) ([]domain.Candle, error) {
	var out []domain.Candle
	cursor := from
	for cursor < to {
		q := url.Values{}
		q.Set("symbol", p.symbol)
		q.Set("interval", "1m")
		q.Set("startTime", strconv.FormatInt(cursor, 10))
		q.Set("endTime", strconv.FormatInt(to, 10))
		q.Set("limit", strconv.Itoa(klineBatchSize))

		// Klines come back as positional arrays of mixed numbers and
		// strings: [openTime, "open", "high", "low", "close", ...].
		var batch [][]any
		u := fmt.Sprintf("%s/api/v3/klines?%s", p.c.spotBase, q.Encode())
		if err := p.c.get(ctx, p.c.spotLimiter, u, &batch); err != nil {
			return nil, fmt.Errorf("fetch candles: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		for _, k := range batch {
			c, err := parseKline(k)
			if err != nil {
				return nil, fmt.Errorf("fetch candles: %w", err)
			}
			out = append(out, c)
		}
		cursor = out[len(out)-1].Timestamp + 1
		if len(batch) < klineBatchSize {
			break
		}
	}
	return out, nil
}

func parseKline(k []any) (domain.Candle, error) {
	if len(k) < 5 {
		return domain.Candle{}, fmt.Errorf("kline has %d fields", len(k))
	}
	ts, ok := k[0].(float64)
	if !ok {
		return domain.Candle{}, fmt.Errorf("kline open time %v", k[0])
	}
	c := domain.Candle{Timestamp: int64(ts)}
	for i, dst := range []*float64{&c.Open, &c.High, &c.Low, &c.Close} {
		s, ok := k[i+1].(string)
		if !ok {
			return domain.Candle{}, fmt.Errorf("kline field %d: %v", i+1, k[i+1])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("kline field %d: %w", i+1, err)
		}
		*dst = v
	}
	return c, nil
}

// --- token prices (CLOB) ---

type priceHistoryResponse struct {
	History []struct {
		T int64   `json:"t"` // unix seconds
		P float64 `json:"p"`
	} `json:"history"`
}

func (p *Provider) FetchPrices(ctx context.Context, tokenID string, from, to int64) ([]domain.PricePoint, error) {
	q := url.Values{}
	q.Set("market", tokenID)
	q.Set("startTs", strconv.FormatInt(from/1000, 10))
	q.Set("endTs", strconv.FormatInt(to/1000, 10))
	q.Set("fidelity", strconv.Itoa(priceFidelity))

	var resp priceHistoryResponse
	u := fmt.Sprintf("%s/prices-history?%s", p.c.clobBase, q.Encode())
	if err := p.c.get(ctx, p.c.clobLimiter, u, &resp); err != nil {
		return nil, fmt.Errorf("fetch prices %s: %w", tokenID, err)
	}

	out := make([]domain.PricePoint, 0, len(resp.History))
	for _, h := range resp.History {
		out = append(out, domain.PricePoint{Timestamp: h.T * 1000, Price: h.P})
	}
	return out, nil
}

// --- implied vol (Deribit DVOL) ---

type volIndexResponse struct {
	Result struct {
		// [timestampMs, open, high, low, close]
		Data [][]float64 `json:"data"`
	} `json:"result"`
}

func (p *Provider) FetchImpliedVol(ctx context.Context, from, to int64) ([]domain.VolPoint, error) {
	q := url.Values{}
	q.Set("currency", p.volIndex)
	q.Set("start_timestamp", strconv.FormatInt(from, 10))
	q.Set("end_timestamp", strconv.FormatInt(to, 10))
	q.Set("resolution", "60")

	var resp volIndexResponse
	u := fmt.Sprintf("%s/api/v2/public/get_volatility_index_data?%s", p.c.volBase, q.Encode())
	if err := p.c.get(ctx, p.c.spotLimiter, u, &resp); err != nil {
		return nil, fmt.Errorf("fetch implied vol: %w", err)
	}

	out := make([]domain.VolPoint, 0, len(resp.Result.Data))
	for _, row := range resp.Result.Data {
		if len(row) < 5 {
			continue
		}
		// The index is quoted in vol points (e.g. 55.2 → 55.2%).
		out = append(out, domain.VolPoint{Timestamp: int64(row[0]), Vol: row[4] / 100})
	}
	return out, nil
}

// --- oracle rounds (Chainlink gateway) ---

type oracleRound struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price,string"`
}

func (p *Provider) FetchOraclePrices(ctx context.Context, from, to int64) ([]domain.PricePoint, error) {
	q := url.Values{}
	q.Set("feed", p.feed)
	q.Set("from", strconv.FormatInt(from, 10))
	q.Set("to", strconv.FormatInt(to, 10))

	var rounds []oracleRound
	u := fmt.Sprintf("%s/v1/rounds?%s", p.c.oracleBase, q.Encode())
	if err := p.c.get(ctx, p.c.spotLimiter, u, &rounds); err != nil {
		return nil, fmt.Errorf("fetch oracle prices: %w", err)
	}

	out := make([]domain.PricePoint, 0, len(rounds))
	for _, r := range rounds {
		out = append(out, domain.PricePoint{Timestamp: r.Timestamp, Price: r.Price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func msToRFC3339(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
