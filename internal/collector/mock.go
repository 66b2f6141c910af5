package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"MarketMovers/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Prices maps a product id to an (open, last) pair; missing ids yield no data.
type MockFetcher struct {
	Prices   map[string][2]float64
	Closes   map[string]model.CandleSeries
	Products []model.Product
	// Delay is applied to every price read, honouring ctx cancellation.
	Delay time.Duration

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchStats(ctx context.Context, productID string) (model.PriceStats, bool) {
	m.record("stats:" + productID)
	if !m.wait(ctx) {
		return model.PriceStats{}, false
	}
	p, ok := m.Prices[productID]
	if !ok {
		return model.PriceStats{}, false
	}
	return newStats(p[0], p[1])
}

func (m *MockFetcher) FetchWindowStats(ctx context.Context, productID string, _ model.Frequency) (model.PriceStats, bool) {
	return m.FetchStats(ctx, productID)
}

func (m *MockFetcher) FetchCloses(ctx context.Context, productID string, _ model.Frequency, periods int) (model.CandleSeries, bool) {
	m.record("closes:" + productID)
	if !m.wait(ctx) {
		return nil, false
	}
	closes, ok := m.Closes[productID]
	if !ok || len(closes) == 0 {
		return nil, false
	}
	if periods > 0 && len(closes) > periods {
		closes = closes[len(closes)-periods:]
	}
	return append(model.CandleSeries(nil), closes...), true
}

func (m *MockFetcher) FetchProducts(_ context.Context) ([]model.Product, error) {
	if m.Products == nil {
		return nil, errors.New("mock: no products configured")
	}
	return append([]model.Product(nil), m.Products...), nil
}

// Calls reports how many times a read was issued, keyed "stats:<id>" or "closes:<id>".
func (m *MockFetcher) Calls(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key]
}

func (m *MockFetcher) record(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[key]++
}

func (m *MockFetcher) wait(ctx context.Context) bool {
	if m.Delay <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(m.Delay):
		return true
	}
}
