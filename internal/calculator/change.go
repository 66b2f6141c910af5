package calculator

import "github.com/shopspring/decimal"

// PercentChange returns (last-open)/open*100. Callers guarantee open > 0.
func PercentChange(open, last float64) float64 {
	return (last - open) / open * 100.0
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
