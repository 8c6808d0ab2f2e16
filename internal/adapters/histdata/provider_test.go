package histdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alejandrodnm/polysim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider(t *testing.T, handler http.Handler) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(ClientOpts{
		CLOBBase:   srv.URL,
		GammaBase:  srv.URL,
		SpotBase:   srv.URL,
		VolBase:    srv.URL,
		OracleBase: srv.URL,
	})
	return NewProvider(c, "bitcoin-up-or-down-15-minute", "BTCUSDT", "btc_usd", "btc-usd")
}

func TestFetchMarkets_ParsesGammaPayload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/markets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bitcoin-up-or-down-15-minute", r.URL.Query().Get("series_slug"))
		fmt.Fprint(w, `[
			{
				"id": "m-1",
				"question": "Bitcoin Up or Down?",
				"startDate": "2026-01-01T00:00:00Z",
				"endDate": "2026-01-01T00:15:00Z",
				"strikePrice": "99000.5",
				"clobTokenIds": "[\"tok-up\",\"tok-down\"]",
				"outcomes": "[\"Up\",\"Down\"]",
				"outcomePrices": "[\"1\",\"0\"]",
				"closed": true
			},
			{
				"id": "m-2",
				"question": "Bitcoin Up or Down?",
				"startDate": "2026-01-01T00:15:00Z",
				"endDate": "2026-01-01T00:30:00Z",
				"strikePrice": "99100",
				"clobTokenIds": "[\"tok-up2\",\"tok-down2\"]",
				"outcomes": "[\"Up\",\"Down\"]",
				"outcomePrices": "",
				"closed": false
			}
		]`)
	})

	p := testProvider(t, mux)
	from := int64(1767225600000) // 2026-01-01T00:00:00Z
	markets, err := p.FetchMarkets(context.Background(), from, from+3600_000)
	require.NoError(t, err)
	require.Len(t, markets, 2)

	m := markets[0]
	assert.Equal(t, "m-1", m.ID)
	assert.Equal(t, 99000.5, m.Strike)
	assert.Equal(t, from, m.StartTime)
	assert.Equal(t, from+15*60_000, m.EndTime)
	assert.Equal(t, "tok-up", m.UpTokenID)
	assert.Equal(t, "tok-down", m.DownTokenID)
	require.NotNil(t, m.Resolved)
	assert.Equal(t, domain.OutcomeUp, *m.Resolved)

	assert.Nil(t, markets[1].Resolved)
}

func TestFetchMarkets_SkipsMalformedEntries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/markets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{
				"id": "bad",
				"startDate": "not-a-date",
				"endDate": "2026-01-01T00:15:00Z",
				"clobTokenIds": "[\"a\",\"b\"]"
			}
		]`)
	})

	p := testProvider(t, mux)
	markets, err := p.FetchMarkets(context.Background(), 0, 1767225600000)
	require.NoError(t, err)
	assert.Empty(t, markets)
}

func TestFetchCandles_ParsesKlines(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/klines", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, `[
			[60000, "99000.1", "99050.2", "98990.0", "99020.5", "12.3", 119999, "0", 10, "0", "0", "0"],
			[120000, "99020.5", "99100.0", "99010.0", "99080.0", "8.1", 179999, "0", 7, "0", "0", "0"]
		]`)
	})

	p := testProvider(t, mux)
	candles, err := p.FetchCandles(context.Background(), 60000, 180000)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(60000), candles[0].Timestamp)
	assert.Equal(t, 99000.1, candles[0].Open)
	assert.Equal(t, 99050.2, candles[0].High)
	assert.Equal(t, 98990.0, candles[0].Low)
	assert.Equal(t, 99020.5, candles[0].Close)
}

func TestFetchPrices_ConvertsSecondsToMillis(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/prices-history", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-up", r.URL.Query().Get("market"))
		assert.Equal(t, "60", r.URL.Query().Get("startTs"))
		fmt.Fprint(w, `{"history":[{"t":60,"p":0.55},{"t":120,"p":0.57}]}`)
	})

	p := testProvider(t, mux)
	prices, err := p.FetchPrices(context.Background(), "tok-up", 60000, 180000)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, int64(60000), prices[0].Timestamp)
	assert.Equal(t, 0.55, prices[0].Price)
}

func TestFetchImpliedVol_ScalesVolPoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/public/get_volatility_index_data", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"data":[[60000, 54.0, 56.0, 53.0, 55.5]]}}`)
	})

	p := testProvider(t, mux)
	vols, err := p.FetchImpliedVol(context.Background(), 0, 180000)
	require.NoError(t, err)
	require.Len(t, vols, 1)
	assert.Equal(t, int64(60000), vols[0].Timestamp)
	assert.InDelta(t, 0.555, vols[0].Vol, 1e-9)
}

func TestFetchOraclePrices_SortsByTimestamp(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/rounds", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"timestamp": 120000, "price": "99080.0"},
			{"timestamp": 60000, "price": "99020.5"}
		]`)
	})

	p := testProvider(t, mux)
	oracle, err := p.FetchOraclePrices(context.Background(), 0, 180000)
	require.NoError(t, err)
	require.Len(t, oracle, 2)
	assert.Equal(t, int64(60000), oracle[0].Timestamp)
	assert.Equal(t, 99080.0, oracle[1].Price)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/prices-history", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"history":[]}`)
	})

	p := testProvider(t, mux)
	_, err := p.FetchPrices(context.Background(), "tok", 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestClient_ClientErrorIsFatal(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/prices-history", func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad token", http.StatusBadRequest)
	})

	p := testProvider(t, mux)
	_, err := p.FetchPrices(context.Background(), "tok", 0, 1000)
	require.Error(t, err)
	assert.Equal(t, 1, calls) // 4xx is not retried
}
