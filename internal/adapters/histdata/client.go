package histdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultCLOBBase   = "https://clob.polymarket.com"
	defaultGammaBase  = "https://gamma-api.polymarket.com"
	defaultSpotBase   = "https://api.binance.com"
	defaultVolBase    = "https://www.deribit.com"
	defaultOracleBase = "https://api.chain.link"

	// Rate limits at 60% of the documented ceilings.
	// Gamma /markets: 300/10s → 180/10s → 18/s
	gammaRatePerSec = 18
	// CLOB prices-history: 9000/10s → 5400/10s → 540/s
	clobRatePerSec = 540
	// Binance klines weight budget keeps us well under 1200/min.
	spotRatePerSec = 15

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client is the shared HTTP client for the historical-data sources,
// with per-host rate limiting and retries.
type Client struct {
	http         *http.Client
	clobBase     string
	gammaBase    string
	spotBase     string
	volBase      string
	oracleBase   string
	clobLimiter  *rate.Limiter
	gammaLimiter *rate.Limiter
	spotLimiter  *rate.Limiter
}

// ClientOpts overrides the production base URLs, mainly for tests.
type ClientOpts struct {
	CLOBBase   string
	GammaBase  string
	SpotBase   string
	VolBase    string
	OracleBase string
}

// NewClient builds a Client. Empty fields in opts fall back to the
// production endpoints.
func NewClient(opts ClientOpts) *Client {
	c := &Client{
		http:         &http.Client{Timeout: 15 * time.Second},
		clobBase:     opts.CLOBBase,
		gammaBase:    opts.GammaBase,
		spotBase:     opts.SpotBase,
		volBase:      opts.VolBase,
		oracleBase:   opts.OracleBase,
		clobLimiter:  rate.NewLimiter(clobRatePerSec, 50),
		gammaLimiter: rate.NewLimiter(gammaRatePerSec, 10),
		spotLimiter:  rate.NewLimiter(spotRatePerSec, 5),
	}
	if c.clobBase == "" {
		c.clobBase = defaultCLOBBase
	}
	if c.gammaBase == "" {
		c.gammaBase = defaultGammaBase
	}
	if c.spotBase == "" {
		c.spotBase = defaultSpotBase
	}
	if c.volBase == "" {
		c.volBase = defaultVolBase
	}
	if c.oracleBase == "" {
		c.oracleBase = defaultOracleBase
	}
	return c
}

// get performs a GET with rate limiting and retries, decoding the JSON
// body into out.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry runs the request with exponential backoff.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by API", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep waits with exponential backoff, respecting the context.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
