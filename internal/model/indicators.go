package model

import "time"

// RSIResult is the payload served by the indicator endpoint.
type RSIResult struct {
	ProductID     string    `json:"product_id"`
	Frequency     Frequency `json:"frequency"`
	Period        int       `json:"period"`
	RSI           float64   `json:"rsi"`
	ComputedAtUTC time.Time `json:"computed_at_utc"`
}

// PriceQuote is the latest traded price for a product.
type PriceQuote struct {
	ProductID string    `json:"product_id"`
	Last      float64   `json:"last"`
	TimeUTC   time.Time `json:"time_utc"`
}
