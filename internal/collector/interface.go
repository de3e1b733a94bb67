package collector

import (
	"context"

	"github.com/trendlab/faber/internal/core"
)

// Config holds collector configuration
type Config struct {
	BaseURL string
	Timeout int // seconds
}

// PriceProvider fetches the full monthly closing-price history a backtest
// needs. Implementations return a clean series: ascending timestamps, no
// duplicates, missing periods skipped.
type PriceProvider interface {
	Name() string
	FetchMonthly(ctx context.Context, symbol string) (core.PriceSeries, error)
}
