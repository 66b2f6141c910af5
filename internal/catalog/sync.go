package catalog

import (
	"context"
	"fmt"
	"log"

	"MarketMovers/internal/collector"
)

// Syncer copies the exchange's product list into a Store.
type Syncer struct {
	Source collector.ProductSource
	Store  Store
}

func NewSyncer(source collector.ProductSource, store Store) *Syncer {
	return &Syncer{Source: source, Store: store}
}

// Run fetches every product and upserts it by id.
func (s *Syncer) Run(ctx context.Context) (inserted, updated int, err error) {
	products, err := s.Source.FetchProducts(ctx)
	if err != nil {
		return 0, 0, err
	}
	inserted, updated, err = s.Store.UpsertProducts(ctx, products)
	if err != nil {
		return 0, 0, fmt.Errorf("save products: %w", err)
	}
	log.Printf("[INFO] catalog sync: %d products received, %d inserted, %d updated", len(products), inserted, updated)
	return inserted, updated, nil
}
