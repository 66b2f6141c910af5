package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketMovers/internal/model"
)

func TestMemoryStore_KeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(sampleProducts...)

	products, err := m.ListProducts(ctx, "USD", ListOptions{})
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, []string{"ETH-USD", "BTC-USD", "OLD-USD"}, []string{products[0].ID, products[1].ID, products[2].ID})

	online, _ := m.ListProducts(ctx, "USD", ListOptions{Status: "online", Limit: 1})
	require.Len(t, online, 1)
	assert.Equal(t, "ETH-USD", online[0].ID)

	quotes, _ := m.QuoteCurrencies(ctx)
	assert.Equal(t, []string{"EUR", "USD"}, quotes)
}

func TestMemoryStore_Upsert(t *testing.T) {
	m := NewMemoryStore(sampleProducts[:2]...)
	updatedProduct := sampleProducts[0]
	updatedProduct.Status = "offline"

	inserted, updated, err := m.UpsertProducts(context.Background(), sampleProducts[1:3])
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, updated)

	_, updated, _ = m.UpsertProducts(context.Background(), []model.Product{updatedProduct})
	assert.Equal(t, 1, updated)
	offline, _ := m.ListProducts(context.Background(), "USD", ListOptions{Status: "offline"})
	assert.Len(t, offline, 1)
}
