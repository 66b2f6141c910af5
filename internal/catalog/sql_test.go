package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketMovers/internal/model"
)

var sampleProducts = []model.Product{
	{ID: "ETH-USD", BaseCurrency: "ETH", QuoteCurrency: "USD", DisplayName: "ETH/USD", Status: "online"},
	{ID: "BTC-USD", BaseCurrency: "BTC", QuoteCurrency: "USD", DisplayName: "BTC/USD", Status: "online"},
	{ID: "OLD-USD", BaseCurrency: "OLD", QuoteCurrency: "USD", DisplayName: "OLD/USD", Status: "delisted"},
	{ID: "BTC-EUR", BaseCurrency: "BTC", QuoteCurrency: "EUR", DisplayName: "BTC/EUR", Status: "online"},
}

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQLStore("sqlite", filepath.Join(t.TempDir(), "nested", "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLStore_UpsertCountsInsertsAndUpdates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	inserted, updated, err := s.UpsertProducts(ctx, sampleProducts)
	require.NoError(t, err)
	assert.Equal(t, 4, inserted)
	assert.Equal(t, 0, updated)

	changed := sampleProducts[2]
	changed.Status = "online"
	inserted, updated, err = s.UpsertProducts(ctx, []model.Product{
		changed,
		{ID: "SOL-USD", BaseCurrency: "SOL", QuoteCurrency: "USD", Status: "online"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, updated)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	online, err := s.ListProducts(ctx, "USD", ListOptions{Status: "online"})
	require.NoError(t, err)
	assert.Len(t, online, 4)
}

func TestSQLStore_ListProducts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, _, err := s.UpsertProducts(ctx, sampleProducts)
	require.NoError(t, err)

	all, err := s.ListProducts(ctx, "USD", ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "BTC-USD", all[0].ID)
	assert.Equal(t, sampleProducts[1], all[0])

	online, err := s.ListProducts(ctx, "USD", ListOptions{Status: "online"})
	require.NoError(t, err)
	assert.Len(t, online, 2)

	capped, err := s.ListProducts(ctx, "USD", ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, capped, 1)

	none, err := s.ListProducts(ctx, "JPY", ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLStore_QuoteCurrencies(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, _, err := s.UpsertProducts(ctx, append(sampleProducts, model.Product{ID: "NOQUOTE"}))
	require.NoError(t, err)

	quotes, err := s.QuoteCurrencies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR", "USD"}, quotes)
}

func TestOpenSQLStore_RejectsUnknownDriver(t *testing.T) {
	_, err := OpenSQLStore("mongo", "mongodb://localhost")
	assert.Error(t, err)
}
