package indicator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"MarketMovers/internal/calculator"
	"MarketMovers/internal/collector"
	"MarketMovers/internal/model"
)

const (
	DefaultTTL        = 10 * time.Second
	DefaultPeriod     = 14
	DefaultMinSamples = 100
)

var (
	ErrNoCandles     = errors.New("no candles")
	ErrNotEnoughData = errors.New("not enough data")
	ErrNoPrice       = errors.New("no price data")
)

// Service serves RSI values through a TTL cache and current prices straight from upstream.
type Service struct {
	store      Store
	fetcher    collector.Fetcher
	ttl        time.Duration
	minSamples int
	group      singleflight.Group

	now func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithTTL sets how long a computed RSI is served without recomputation.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMinSamples sets the floor on the number of closes requested per computation.
func WithMinSamples(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minSamples = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, fetcher collector.Fetcher, opts ...Option) *Service {
	s := &Service{
		store:      store,
		fetcher:    fetcher,
		ttl:        DefaultTTL,
		minSamples: DefaultMinSamples,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizePeriod falls back to DefaultPeriod for anything not greater than 1.
func NormalizePeriod(period int) int {
	if period <= 1 {
		return DefaultPeriod
	}
	return period
}

// GetRSI returns the cached RSI for (productID, freq, period) when it is younger than
// the TTL, otherwise recomputes it. Failures are never cached.
func (s *Service) GetRSI(ctx context.Context, productID string, freq model.Frequency, period int) (model.RSIResult, error) {
	if !freq.Valid() {
		return model.RSIResult{}, fmt.Errorf("%w: %q", model.ErrUnknownFrequency, freq)
	}
	key := Key{ProductID: productID, Frequency: freq, Period: NormalizePeriod(period)}

	if e, ok := s.store.Load(ctx, key); ok {
		if s.now().Sub(e.ComputedAt) < s.ttl {
			return e.Payload, nil
		}
		s.store.Delete(ctx, key)
	}

	// Callers share one computation, so it must not end with the first caller's request.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key.String(), func() (any, error) {
		return s.compute(shared, key)
	})
	if err != nil {
		return model.RSIResult{}, err
	}
	return v.(model.RSIResult), nil
}

func (s *Service) compute(ctx context.Context, key Key) (model.RSIResult, error) {
	samples := key.Period * 10
	if samples < s.minSamples {
		samples = s.minSamples
	}

	closes, ok := s.fetcher.FetchCloses(ctx, key.ProductID, key.Frequency, samples)
	if !ok {
		return model.RSIResult{}, ErrNoCandles
	}
	rsi, err := calculator.CalculateRSI(closes, key.Period)
	if err != nil {
		if errors.Is(err, calculator.ErrInsufficientData) {
			log.Printf("[WARN] rsi %s: %d closes for period %d", key, len(closes), key.Period)
			return model.RSIResult{}, ErrNotEnoughData
		}
		return model.RSIResult{}, err
	}

	if math.IsNaN(rsi) || math.IsInf(rsi, 0) {
		log.Printf("[WARN] rsi %s: non-finite result from %d closes", key, len(closes))
		return model.RSIResult{}, ErrNoCandles
	}

	now := s.now().UTC()
	result := model.RSIResult{
		ProductID:     key.ProductID,
		Frequency:     key.Frequency,
		Period:        key.Period,
		RSI:           calculator.Round(rsi, 2),
		ComputedAtUTC: now,
	}
	s.store.Save(ctx, key, Entry{ComputedAt: now, Payload: result})
	return result, nil
}

// CurrentPrice returns the latest traded price for productID.
func (s *Service) CurrentPrice(ctx context.Context, productID string) (model.PriceQuote, error) {
	stats, ok := s.fetcher.FetchStats(ctx, productID)
	if !ok {
		return model.PriceQuote{}, ErrNoPrice
	}
	return model.PriceQuote{
		ProductID: productID,
		Last:      stats.Last,
		TimeUTC:   s.now().UTC(),
	}, nil
}
