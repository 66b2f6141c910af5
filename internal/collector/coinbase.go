package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"MarketMovers/internal/calculator"
	"MarketMovers/internal/model"
)

const (
	DefaultBaseURL = "https://api.exchange.coinbase.com"

	// MaxCandlesPerRequest is the upstream cap on candles in one response.
	MaxCandlesPerRequest = 300

	productsTimeout = 10 * time.Second
)

// CoinbaseFetcher implements Fetcher against the Coinbase Exchange public REST API.
type CoinbaseFetcher struct {
	BaseURL    string
	Client     *http.Client
	Timeout    time.Duration
	MaxCandles int

	now func() time.Time
}

// NewCoinbaseFetcher creates a fetcher with a fixed per-call timeout and optional proxy.
func NewCoinbaseFetcher(baseURL, proxyURL string, timeout time.Duration) *CoinbaseFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CoinbaseFetcher{
		BaseURL:    baseURL,
		Client:     &http.Client{Transport: transport},
		Timeout:    timeout,
		MaxCandles: MaxCandlesPerRequest,
		now:        time.Now,
	}
}

func (f *CoinbaseFetcher) Name() string { return "coinbase" }

// flexFloat accepts both JSON numbers and numeric strings.
type flexFloat float64

func (v *flexFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*v = 0
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return fmt.Errorf("non-finite number %q", s)
		}
		*v = flexFloat(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = flexFloat(n)
	return nil
}

type cbStats struct {
	Open flexFloat `json:"open"`
	Last flexFloat `json:"last"`
}

type cbProduct struct {
	ID            string `json:"id"`
	BaseCurrency  string `json:"base_currency"`
	QuoteCurrency string `json:"quote_currency"`
	DisplayName   string `json:"display_name"`
	Status        string `json:"status"`
}

// FetchStats returns the rolling 24h open/last for a product.
func (f *CoinbaseFetcher) FetchStats(ctx context.Context, productID string) (model.PriceStats, bool) {
	endpoint := fmt.Sprintf("%s/products/%s/stats", f.BaseURL, url.PathEscape(productID))
	var stats cbStats
	if err := f.getJSON(ctx, f.Timeout, endpoint, &stats); err != nil {
		log.Printf("[WARN] stats %s: %v", productID, err)
		return model.PriceStats{}, false
	}
	s, ok := newStats(float64(stats.Open), float64(stats.Last))
	if !ok {
		log.Printf("[WARN] stats %s: unusable open/last %v/%v", productID, float64(stats.Open), float64(stats.Last))
	}
	return s, ok
}

// FetchWindowStats derives open/last from candles covering freq's window.
func (f *CoinbaseFetcher) FetchWindowStats(ctx context.Context, productID string, freq model.Frequency) (model.PriceStats, bool) {
	if freq == model.Freq1d {
		return f.FetchStats(ctx, productID)
	}
	end := f.now().UTC()
	candles, err := f.fetchCandles(ctx, productID, freq, end.Add(-freq.Window()), end)
	if err != nil {
		log.Printf("[WARN] window stats %s (%s): %v", productID, freq, err)
		return model.PriceStats{}, false
	}
	// Upstream order is newest first.
	s, ok := newStats(candles[len(candles)-1].open, candles[0].close)
	if !ok {
		log.Printf("[WARN] window stats %s (%s): unusable open/last", productID, freq)
	}
	return s, ok
}

// FetchCloses returns up to `periods` closes at freq's granularity ending now, oldest first.
func (f *CoinbaseFetcher) FetchCloses(ctx context.Context, productID string, freq model.Frequency, periods int) (model.CandleSeries, bool) {
	if periods <= 0 {
		return nil, false
	}
	if f.MaxCandles > 0 && periods > f.MaxCandles {
		periods = f.MaxCandles
	}
	end := f.now().UTC()
	start := end.Add(-time.Duration(periods) * freq.Granularity())
	candles, err := f.fetchCandles(ctx, productID, freq, start, end)
	if err != nil {
		log.Printf("[WARN] closes %s (%s): %v", productID, freq, err)
		return nil, false
	}
	closes := make(model.CandleSeries, len(candles))
	for i, c := range candles {
		closes[len(candles)-1-i] = c.close
	}
	return closes, true
}

// FetchProducts lists every product on the exchange. Unlike the price reads it returns errors.
func (f *CoinbaseFetcher) FetchProducts(ctx context.Context) ([]model.Product, error) {
	var raw []cbProduct
	if err := f.getJSON(ctx, productsTimeout, f.BaseURL+"/products", &raw); err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	products := make([]model.Product, 0, len(raw))
	for _, p := range raw {
		if p.ID == "" {
			continue
		}
		products = append(products, model.Product{
			ID:            p.ID,
			BaseCurrency:  p.BaseCurrency,
			QuoteCurrency: p.QuoteCurrency,
			DisplayName:   p.DisplayName,
			Status:        p.Status,
		})
	}
	return products, nil
}

type candle struct {
	open  float64
	close float64
}

var errNoCandles = errors.New("no candles returned")

// fetchCandles returns candles in upstream (newest first) order.
func (f *CoinbaseFetcher) fetchCandles(ctx context.Context, productID string, freq model.Frequency, start, end time.Time) ([]candle, error) {
	params := url.Values{}
	params.Set("granularity", strconv.Itoa(freq.GranularitySeconds()))
	params.Set("start", start.Format(time.RFC3339))
	params.Set("end", end.Format(time.RFC3339))
	endpoint := fmt.Sprintf("%s/products/%s/candles?%s", f.BaseURL, url.PathEscape(productID), params.Encode())

	// [time, low, high, open, close, volume]
	var rows [][]flexFloat
	if err := f.getJSON(ctx, f.Timeout, endpoint, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errNoCandles
	}
	candles := make([]candle, len(rows))
	for i, row := range rows {
		if len(row) < 5 {
			return nil, fmt.Errorf("malformed candle at %d: %d fields", i, len(row))
		}
		candles[i] = candle{open: float64(row[3]), close: float64(row[4])}
	}
	return candles, nil
}

func (f *CoinbaseFetcher) getJSON(ctx context.Context, timeout time.Duration, endpoint string, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "MarketMovers/1.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// newStats enforces open > 0 and a finite last price.
func newStats(open, last float64) (model.PriceStats, bool) {
	if !(open > 0) || math.IsInf(open, 0) || math.IsNaN(last) || math.IsInf(last, 0) {
		return model.PriceStats{}, false
	}
	return model.PriceStats{
		Open:      open,
		Last:      last,
		ChangePct: calculator.PercentChange(open, last),
	}, true
}
