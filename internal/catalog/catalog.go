package catalog

import (
	"context"

	"MarketMovers/internal/model"
)

// ListOptions narrows a catalog query. Zero values mean "no filter" and "no cap".
type ListOptions struct {
	Status string
	Limit  int
}

// Catalog is the product query surface consumed by the movers path.
type Catalog interface {
	ListProducts(ctx context.Context, quoteCurrency string, opts ListOptions) ([]model.Product, error)
	QuoteCurrencies(ctx context.Context) ([]string, error)
}

// Store is a Catalog that can also be written by the sync job.
type Store interface {
	Catalog
	UpsertProducts(ctx context.Context, products []model.Product) (inserted, updated int, err error)
	Count(ctx context.Context) (int, error)
	Close() error
}
