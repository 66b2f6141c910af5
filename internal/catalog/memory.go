package catalog

import (
	"context"
	"sort"
	"sync"

	"MarketMovers/internal/model"
)

// MemoryStore is an in-process Store used when no database is configured and in tests.
// It keeps products in insertion order.
type MemoryStore struct {
	mu       sync.RWMutex
	products []model.Product
	index    map[string]int
}

func NewMemoryStore(products ...model.Product) *MemoryStore {
	m := &MemoryStore{index: make(map[string]int)}
	m.UpsertProducts(context.Background(), products)
	return m
}

func (m *MemoryStore) UpsertProducts(_ context.Context, products []model.Product) (inserted, updated int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range products {
		if i, ok := m.index[p.ID]; ok {
			m.products[i] = p
			updated++
			continue
		}
		m.index[p.ID] = len(m.products)
		m.products = append(m.products, p)
		inserted++
	}
	return inserted, updated, nil
}

func (m *MemoryStore) ListProducts(_ context.Context, quoteCurrency string, opts ListOptions) ([]model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Product
	for _, p := range m.products {
		if p.QuoteCurrency != quoteCurrency {
			continue
		}
		if opts.Status != "" && p.Status != opts.Status {
			continue
		}
		out = append(out, p)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) QuoteCurrencies(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var quotes []string
	for _, p := range m.products {
		if p.QuoteCurrency == "" || seen[p.QuoteCurrency] {
			continue
		}
		seen[p.QuoteCurrency] = true
		quotes = append(quotes, p.QuoteCurrency)
	}
	sort.Strings(quotes)
	return quotes, nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products), nil
}

func (m *MemoryStore) Close() error { return nil }
