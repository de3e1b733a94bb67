package indicator

import "math"

// SMA calculates the trailing Simple Moving Average aligned to the input:
// the result has the same length as prices, with NaN for the first
// period-1 slots where the window is not yet full.
func SMA(prices []float64, period int) []float64 {
	result := make([]float64, len(prices))
	if period <= 0 || len(prices) < period {
		for i := range result {
			result[i] = math.NaN()
		}
		return result
	}

	var sum float64
	for i := 0; i < period-1; i++ {
		result[i] = math.NaN()
		sum += prices[i]
	}
	sum += prices[period-1]
	result[period-1] = sum / float64(period)

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result[i] = sum / float64(period)
	}

	return result
}

// EMA calculates the Exponential Moving Average with the same NaN-padded
// alignment as SMA. Seeded with the SMA of the first period values.
func EMA(prices []float64, period int) []float64 {
	result := make([]float64, len(prices))
	if period <= 0 || len(prices) < period {
		for i := range result {
			result[i] = math.NaN()
		}
		return result
	}

	var sum float64
	for i := 0; i < period-1; i++ {
		result[i] = math.NaN()
		sum += prices[i]
	}
	sum += prices[period-1]
	ema := sum / float64(period)
	result[period-1] = ema

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		result[i] = ema
	}

	return result
}
