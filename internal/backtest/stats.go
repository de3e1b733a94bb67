package backtest

import (
	"math"

	"github.com/trendlab/faber/internal/core"
)

const periodsPerYear = 12

// Summarize computes the comparison statistics for a backtest table:
// annualized return and volatility, max drawdown, and their ratio for
// Buy & Hold against the strategy. Degenerate inputs (no observations,
// zero volatility) yield NaN or infinite values, never an error.
func Summarize(t *Table) Summary {
	assetRets := make([]float64, 0, len(t.Rows))
	stratRets := make([]float64, 0, len(t.Rows))
	assetDD := make([]float64, 0, len(t.Rows))
	stratDD := make([]float64, 0, len(t.Rows))
	for _, r := range t.Rows {
		assetRets = append(assetRets, r.Return)
		stratRets = append(stratRets, r.StrategyReturn)
		assetDD = append(assetDD, r.DrawdownAsset)
		stratDD = append(stratDD, r.DrawdownStrategy)
	}

	return Summary{
		BuyHold:  summarizeSeries(core.LabelBuyHold, assetRets, assetDD),
		Strategy: summarizeSeries(core.LabelStrategy, stratRets, stratDD),
	}
}

func summarizeSeries(label core.Label, rets, dds []float64) StatsRow {
	row := StatsRow{
		Label:       label,
		AnnReturn:   annualizedReturn(rets),
		AnnVol:      annualizedVolatility(rets),
		MaxDrawdown: minDefined(dds),
	}
	row.RetVol = row.AnnReturn / row.AnnVol
	return row
}

// annualizedReturn geometrically compounds the defined monthly returns and
// scales them to a yearly basis.
func annualizedReturn(rets []float64) float64 {
	prod := 1.0
	count := 0
	for _, r := range rets {
		if math.IsNaN(r) {
			continue
		}
		prod *= 1 + r
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return math.Pow(prod, periodsPerYear/float64(count)) - 1
}

// annualizedVolatility scales the sample standard deviation of the defined
// monthly returns by sqrt(12).
func annualizedVolatility(rets []float64) float64 {
	var sum float64
	count := 0
	for _, r := range rets {
		if math.IsNaN(r) {
			continue
		}
		sum += r
		count++
	}
	if count < 2 {
		return math.NaN()
	}
	mean := sum / float64(count)

	var variance float64
	for _, r := range rets {
		if math.IsNaN(r) {
			continue
		}
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(count-1))

	return stdDev * math.Sqrt(periodsPerYear)
}

// minDefined returns the most negative defined value, NaN if none exist.
func minDefined(vals []float64) float64 {
	min := math.NaN()
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(min) || v < min {
			min = v
		}
	}
	return min
}
