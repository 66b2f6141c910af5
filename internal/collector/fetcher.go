package collector

import (
	"context"

	"MarketMovers/internal/model"
)

// Fetcher defines the market data reads used by the movers and indicator paths.
// Every method fails soft: ok == false means "no data", never a fault.
type Fetcher interface {
	FetchStats(ctx context.Context, productID string) (model.PriceStats, bool)
	FetchWindowStats(ctx context.Context, productID string, freq model.Frequency) (model.PriceStats, bool)
	FetchCloses(ctx context.Context, productID string, freq model.Frequency, periods int) (model.CandleSeries, bool)
	Name() string
}

// ProductSource lists every product known to the exchange.
type ProductSource interface {
	FetchProducts(ctx context.Context) ([]model.Product, error)
}
