package backtest

import (
	"math"
	"time"

	"github.com/trendlab/faber/internal/core"
	"github.com/trendlab/faber/internal/indicator"
)

// Compute evaluates the trend-following rule over a monthly price series:
// long for a period when the previous period's close was above its trailing
// smaWindow-month SMA, in cash otherwise. It returns the dense per-period
// table of positions, returns, cumulative returns and drawdowns, truncated
// so the first row is the business-month start preceding startYear-01-01.
//
// The moving average and signal are computed over the entire input series
// before truncation, so warmup history older than the start date still
// feeds the SMA. Undefined numeric values are NaN; an undefined signal
// means no position.
func Compute(prices core.PriceSeries, startYear, smaWindow int) (*Table, error) {
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	if smaWindow < 2 {
		return nil, core.ErrInvalidWindow
	}

	n := len(prices)
	closes := prices.Closes()
	sma := indicator.SMA(closes, smaWindow)

	// position[t] = (close[t-1] > sma[t-1]); undefined compares as false,
	// so warmup periods are flat. The one-period lag is the causality rule
	// of the strategy: the signal acts on the period after it is observed.
	position := make([]int, n)
	for t := 1; t < n; t++ {
		if !math.IsNaN(sma[t-1]) && closes[t-1] > sma[t-1] {
			position[t] = 1
		}
	}

	// trade[t] = position[t+1] - position[t]: the marker sits on the period
	// in which the crossing was observed, one period before the position
	// changes. The final period has nothing to compare against.
	trade := make([]int, n)
	for t := 0; t < n-1; t++ {
		trade[t] = position[t+1] - position[t]
	}

	rets := make([]float64, n)
	rets[0] = math.NaN()
	for t := 1; t < n; t++ {
		if closes[t-1] == 0 {
			rets[t] = math.NaN()
			continue
		}
		rets[t] = closes[t]/closes[t-1] - 1
	}

	startDate := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	anchor := prevBusinessMonthStart(startDate)

	first := n
	for i := 0; i < n; i++ {
		if !prices[i].Time.Before(anchor) {
			first = i
			break
		}
	}

	rows := make([]Row, 0, n-first)
	var (
		prodAsset    = 1.0
		prodStrategy = 1.0
		peakAsset    = math.Inf(-1)
		peakStrategy = math.Inf(-1)
	)
	for i := first; i < n; i++ {
		r := Row{
			Time:     prices[i].Time,
			Close:    closes[i],
			SMA:      sma[i],
			Position: position[i],
			Trade:    trade[i],
			Return:   rets[i],
		}
		r.StrategyReturn = rets[i] * float64(position[i])

		// Returns strictly before the start date carry zero weight so the
		// cumulative series anchors at exactly zero on the start date. NaN
		// on or after the start date poisons later periods, as
		// multiplicative compounding demands.
		effAsset, effStrategy := rets[i], r.StrategyReturn
		if prices[i].Time.Before(startDate) {
			effAsset, effStrategy = 0, 0
		}
		prodAsset *= 1 + effAsset
		prodStrategy *= 1 + effStrategy
		r.CumAsset = prodAsset - 1
		r.CumStrategy = prodStrategy - 1

		r.DrawdownAsset, peakAsset = drawdown(r.CumAsset, peakAsset)
		r.DrawdownStrategy, peakStrategy = drawdown(r.CumStrategy, peakStrategy)

		rows = append(rows, r)
	}

	return &Table{
		StartYear: startYear,
		SMAWindow: smaWindow,
		StartDate: startDate,
		Rows:      rows,
	}, nil
}

// drawdown converts a cumulative return into a growth-of-1 index, advances
// the running peak, and returns the decline from that peak (always <= 0).
// A NaN index leaves the peak untouched.
func drawdown(cum, peak float64) (dd, newPeak float64) {
	index := 1 + cum
	if math.IsNaN(index) {
		return math.NaN(), peak
	}
	if index > peak {
		peak = index
	}
	return index/peak - 1, peak
}

// prevBusinessMonthStart returns the first weekday of the month before t's
// month. For a January start date this lands on the prior December, giving
// the compounding a defined zero row one period before the nominal start.
func prevBusinessMonthStart(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, -1, 0)
	switch d.Weekday() {
	case time.Saturday:
		d = d.AddDate(0, 0, 2)
	case time.Sunday:
		d = d.AddDate(0, 0, 1)
	}
	return d
}
