package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PriceStats holds open/last prices for a window. Only built when Open > 0.
type PriceStats struct {
	Open      float64
	Last      float64
	ChangePct float64
}

// CandleSeries is a sequence of closing prices, oldest first.
type CandleSeries []float64

// Mover is a product joined with its price statistics.
type Mover struct {
	ProductID     string  `json:"product_id"`
	DisplayName   string  `json:"display_name"`
	BaseCurrency  string  `json:"base_currency"`
	QuoteCurrency string  `json:"quote_currency"`
	Open          float64 `json:"open"`
	Last          float64 `json:"last"`
	ChangePct     float64 `json:"change_pct"`
}

// NewMover joins a product with its stats.
func NewMover(p Product, s PriceStats) Mover {
	return Mover{
		ProductID:     p.ID,
		DisplayName:   p.Name(),
		BaseCurrency:  p.BaseCurrency,
		QuoteCurrency: p.QuoteCurrency,
		Open:          s.Open,
		Last:          s.Last,
		ChangePct:     s.ChangePct,
	}
}

// Frequency is a candle granularity tag.
type Frequency string

const (
	Freq5m  Frequency = "5m"
	Freq15m Frequency = "15m"
	Freq1h  Frequency = "1h"
	Freq6h  Frequency = "6h"
	Freq1d  Frequency = "1d"
)

var ErrUnknownFrequency = errors.New("unknown frequency")

type frequencyInfo struct {
	granularitySeconds int
	windowMinutes      int
}

var frequencies = map[Frequency]frequencyInfo{
	Freq5m:  {granularitySeconds: 300, windowMinutes: 5},
	Freq15m: {granularitySeconds: 900, windowMinutes: 15},
	Freq1h:  {granularitySeconds: 3600, windowMinutes: 60},
	Freq6h:  {granularitySeconds: 21600, windowMinutes: 360},
	Freq1d:  {granularitySeconds: 86400, windowMinutes: 1440},
}

// ParseFrequency validates s against the closed set of frequencies.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := frequencies[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
	}
	return f, nil
}

// Valid reports whether f belongs to the closed set.
func (f Frequency) Valid() bool {
	_, ok := frequencies[f]
	return ok
}

// GranularitySeconds is the candle bucket size in seconds (0 for unknown frequencies).
func (f Frequency) GranularitySeconds() int {
	return frequencies[f].granularitySeconds
}

// Granularity is the candle bucket size.
func (f Frequency) Granularity() time.Duration {
	return time.Duration(f.GranularitySeconds()) * time.Second
}

// Window is the span a mover's change is measured over.
func (f Frequency) Window() time.Duration {
	return time.Duration(frequencies[f].windowMinutes) * time.Minute
}

// MovementFilter selects which movers survive ranking.
type MovementFilter string

const (
	FilterAll      MovementFilter = "all"
	FilterPositive MovementFilter = "positive"
	FilterNegative MovementFilter = "negative"
)

var ErrUnknownFilter = errors.New("unknown movement filter")

// ParseMovementFilter validates s. An empty string means FilterAll.
func ParseMovementFilter(s string) (MovementFilter, error) {
	switch f := MovementFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPositive, FilterNegative:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
	}
}
