package collector

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketMovers/internal/model"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *CoinbaseFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := NewCoinbaseFetcher(srv.URL, "", time.Second)
	f.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func TestFetchStats_ParsesStringPrices(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/BTC-USD/stats", r.URL.Path)
		w.Write([]byte(`{"open":"100.0","high":"110","low":"90","last":"102.5","volume":"12"}`))
	})

	stats, ok := f.FetchStats(context.Background(), "BTC-USD")
	require.True(t, ok)
	assert.Equal(t, 100.0, stats.Open)
	assert.Equal(t, 102.5, stats.Last)
	assert.InDelta(t, 2.5, stats.ChangePct, 1e-9)
}

func TestFetchStats_AcceptsNumericPrices(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"open":50,"last":45}`))
	})

	stats, ok := f.FetchStats(context.Background(), "ETH-USD")
	require.True(t, ok)
	assert.InDelta(t, -10.0, stats.ChangePct, 1e-9)
}

func TestFetchStats_FailsSoft(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"zero open", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"open":"0","last":"5"}`))
		}},
		{"missing open", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"last":"5"}`))
		}},
		{"negative open", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"open":"-1","last":"5"}`))
		}},
		{"error status", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"NotFound"}`, http.StatusNotFound)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>oops</html>`))
		}},
		{"non-numeric open", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"open":"abc","last":"5"}`))
		}},
		{"NaN open", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"open":"NaN","last":"5"}`))
		}},
		{"NaN last", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"open":"100","last":"NaN"}`))
		}},
		{"infinite open", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"open":"Inf","last":"5"}`))
		}},
		{"infinite last", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"open":"100","last":"+Infinity"}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFetcher(t, tt.handler)
			_, ok := f.FetchStats(context.Background(), "BAD-USD")
			assert.False(t, ok)
		})
	}
}

func TestNewStats_RejectsNonFinite(t *testing.T) {
	for _, p := range [][2]float64{
		{math.NaN(), 5},
		{math.Inf(1), 5},
		{100, math.NaN()},
		{100, math.Inf(-1)},
	} {
		_, ok := newStats(p[0], p[1])
		assert.False(t, ok, "open=%v last=%v", p[0], p[1])
	}
	s, ok := newStats(100, 105)
	require.True(t, ok)
	assert.InDelta(t, 5.0, s.ChangePct, 1e-9)
}

func TestFetchStats_Timeout(t *testing.T) {
	release := make(chan struct{})
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	f.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, ok := f.FetchStats(context.Background(), "SLOW-USD")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchCloses_ReversesToOldestFirst(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/BTC-USD/candles", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "3600", q.Get("granularity"))
		assert.Equal(t, "2024-03-01T09:00:00Z", q.Get("start"))
		assert.Equal(t, "2024-03-01T12:00:00Z", q.Get("end"))
		w.Write([]byte(`[
			[1709294400, 9, 12, 10, 11, 1.5],
			[1709290800, 8, 11, 9, 10, 2.0],
			[1709287200, 7, 10, 8, 9, 3.0]
		]`))
	})

	closes, ok := f.FetchCloses(context.Background(), "BTC-USD", model.Freq1h, 3)
	require.True(t, ok)
	assert.Equal(t, model.CandleSeries{9, 10, 11}, closes)
}

func TestFetchCloses_CapsRequestedWindow(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-03-01T11:00:00Z", r.URL.Query().Get("start"))
		w.Write([]byte(`[[1709294400, 9, 12, 10, 11, 1.5]]`))
	})
	f.MaxCandles = 12

	_, ok := f.FetchCloses(context.Background(), "BTC-USD", model.Freq5m, 500)
	assert.True(t, ok)
}

func TestFetchCloses_FailsSoft(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty series", `[]`},
		{"short row", `[[1709294400, 9, 12]]`},
		{"object payload", `{"message":"granularity invalid"}`},
		{"NaN close", `[[1709294400, 9, 12, 10, "NaN", 100]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, ok := f.FetchCloses(context.Background(), "BTC-USD", model.Freq15m, 20)
			assert.False(t, ok)
		})
	}
}

func TestFetchWindowStats_UsesOldestOpenAndNewestClose(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/SOL-USD/candles", r.URL.Path)
		assert.Equal(t, "2024-03-01T11:00:00Z", r.URL.Query().Get("start"))
		w.Write([]byte(`[
			[1709294400, 9, 12, 10, 12.5, 1],
			[1709294100, 8, 11, 9, 10, 1],
			[1709293800, 7, 10, 10, 9, 1]
		]`))
	})

	stats, ok := f.FetchWindowStats(context.Background(), "SOL-USD", model.Freq1h)
	require.True(t, ok)
	assert.Equal(t, 10.0, stats.Open)
	assert.Equal(t, 12.5, stats.Last)
	assert.InDelta(t, 25.0, stats.ChangePct, 1e-9)
}

func TestFetchWindowStats_DailyUsesStatsEndpoint(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/SOL-USD/stats", r.URL.Path)
		w.Write([]byte(`{"open":"20","last":"21"}`))
	})

	stats, ok := f.FetchWindowStats(context.Background(), "SOL-USD", model.Freq1d)
	require.True(t, ok)
	assert.InDelta(t, 5.0, stats.ChangePct, 1e-9)
}

func TestFetchProducts(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		w.Write([]byte(`[
			{"id":"BTC-USD","base_currency":"BTC","quote_currency":"USD","display_name":"BTC/USD","status":"online"},
			{"id":"","base_currency":"X"},
			{"id":"ETH-EUR","base_currency":"ETH","quote_currency":"EUR","display_name":"ETH/EUR","status":"delisted"}
		]`))
	})

	products, err := f.FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, model.Product{ID: "BTC-USD", BaseCurrency: "BTC", QuoteCurrency: "USD", DisplayName: "BTC/USD", Status: "online"}, products[0])
	assert.Equal(t, "delisted", products[1].Status)
}

func TestFetchProducts_ErrorStatus(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := f.FetchProducts(context.Background())
	assert.Error(t, err)
}
