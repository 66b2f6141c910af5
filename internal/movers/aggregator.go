package movers

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"MarketMovers/internal/catalog"
	"MarketMovers/internal/collector"
	"MarketMovers/internal/model"
)

const (
	DefaultLimit       = 10
	DefaultMaxProducts = 80
	DefaultWorkers     = 8
)

// Request describes one ranking. Status is optional; empty means every status.
type Request struct {
	QuoteCurrency string
	Limit         int
	MaxProducts   int
	Filter        model.MovementFilter
	Frequency     model.Frequency
	Status        string
}

// Aggregator ranks a quote currency's products by price movement.
type Aggregator struct {
	Catalog catalog.Catalog
	Fetcher collector.Fetcher
	Workers int
}

func NewAggregator(cat catalog.Catalog, fetcher collector.Fetcher, workers int) *Aggregator {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Aggregator{Catalog: cat, Fetcher: fetcher, Workers: workers}
}

// Rank fetches stats for up to MaxProducts products concurrently, drops those without
// data, then filters, sorts and truncates. Only catalog failures and invalid
// frequency/filter values are returned as errors.
func (a *Aggregator) Rank(ctx context.Context, req Request) ([]model.Mover, error) {
	if req.Frequency == "" {
		req.Frequency = model.Freq1d
	}
	if !req.Frequency.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownFrequency, req.Frequency)
	}
	filter, err := model.ParseMovementFilter(string(req.Filter))
	if err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.MaxProducts <= 0 {
		req.MaxProducts = DefaultMaxProducts
	}

	products, err := a.Catalog.ListProducts(ctx, req.QuoteCurrency, catalog.ListOptions{
		Status: req.Status,
		Limit:  req.MaxProducts,
	})
	if err != nil {
		return nil, fmt.Errorf("list products for %s: %w", req.QuoteCurrency, err)
	}

	candidates := a.collect(ctx, products, req.Frequency)
	movers := Select(candidates, filter, req.Limit)

	log.Printf("[INFO] movers %s/%s/%s: %d products checked, %d with data, %d returned",
		req.QuoteCurrency, req.Frequency, filter, len(products), len(candidates), len(movers))
	return movers, nil
}

// collect waits for every lookup, successful or not. Each task writes only its own slot.
func (a *Aggregator) collect(ctx context.Context, products []model.Product, freq model.Frequency) []model.Mover {
	slots := make([]*model.Mover, len(products))

	var g errgroup.Group
	g.SetLimit(a.Workers)
	for i, p := range products {
		if p.ID == "" {
			continue
		}
		g.Go(func() error {
			stats, ok := a.Fetcher.FetchWindowStats(ctx, p.ID, freq)
			if !ok {
				return nil
			}
			m := model.NewMover(p, stats)
			slots[i] = &m
			return nil
		})
	}
	g.Wait()

	movers := make([]model.Mover, 0, len(slots))
	for _, m := range slots {
		if m != nil {
			movers = append(movers, *m)
		}
	}
	return movers
}

// Select applies filter, orders the survivors and keeps at most limit of them.
// Ties are broken by product id so the result never depends on arrival order.
func Select(candidates []model.Mover, filter model.MovementFilter, limit int) []model.Mover {
	out := make([]model.Mover, 0, len(candidates))
	for _, m := range candidates {
		switch filter {
		case model.FilterPositive:
			if m.ChangePct <= 0 {
				continue
			}
		case model.FilterNegative:
			if m.ChangePct >= 0 {
				continue
			}
		}
		out = append(out, m)
	}

	key := func(m model.Mover) float64 {
		switch filter {
		case model.FilterPositive:
			return m.ChangePct
		case model.FilterNegative:
			return -m.ChangePct
		default:
			return math.Abs(m.ChangePct)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if ki != kj {
			return ki > kj
		}
		return out[i].ProductID < out[j].ProductID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
