package calculator

import (
	"errors"

	"MarketMovers/internal/model"
)

// ErrInsufficientData is returned when a series is shorter than period+1 closes.
var ErrInsufficientData = errors.New("not enough data for RSI calculation")

// CalculateRSI computes the Wilder-smoothed RSI of closes (oldest first) over period.
// The first average gain/loss is the simple mean of the first `period` deltas;
// every later delta is folded in with avg = (avg*(period-1) + x) / period.
func CalculateRSI(closes model.CandleSeries, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(closes) < period+1 {
		return 0, ErrInsufficientData
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0, nil
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs), nil
}

func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}
