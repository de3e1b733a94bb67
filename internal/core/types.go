package core

import "time"

// PricePoint is one periodic closing-price observation.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// PriceSeries is an ascending, deduplicated sequence of monthly closes
// for a single symbol. The backtest engine consumes it read-only.
type PriceSeries []PricePoint

// Validate checks the series contract: non-empty, strictly increasing
// timestamps. Violations are caller bugs and fail fast.
func (s PriceSeries) Validate() error {
	if len(s) == 0 {
		return ErrEmptySeries
	}
	for i := 1; i < len(s); i++ {
		if s[i].Time.Equal(s[i-1].Time) {
			return ErrDuplicateTimestamp
		}
		if s[i].Time.Before(s[i-1].Time) {
			return ErrUnsortedSeries
		}
	}
	return nil
}

// Closes returns the closing prices in series order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}

// First returns the earliest observation. Panics on an empty series.
func (s PriceSeries) First() PricePoint {
	return s[0]
}

// Last returns the latest observation. Panics on an empty series.
func (s PriceSeries) Last() PricePoint {
	return s[len(s)-1]
}

// Label identifies a return series in summary output.
type Label string

const (
	LabelBuyHold  Label = "Buy & Hold"
	LabelStrategy Label = "Strategy"
)

// IndexItem is a named benchmark offered by the presentation layer.
type IndexItem struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}
