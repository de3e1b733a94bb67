package collector

import (
	"context"

	"github.com/trendlab/faber/internal/core"
	"github.com/trendlab/faber/internal/metrics"
)

// Instrumented wraps a PriceProvider and records fetch outcomes.
type Instrumented struct {
	provider PriceProvider
	reg      *metrics.Registry
}

// Instrument decorates a provider with fetch metrics.
func Instrument(provider PriceProvider, reg *metrics.Registry) *Instrumented {
	return &Instrumented{provider: provider, reg: reg}
}

// Name returns the underlying provider's name.
func (i *Instrumented) Name() string {
	return i.provider.Name()
}

// FetchMonthly delegates to the wrapped provider and counts the outcome.
func (i *Instrumented) FetchMonthly(ctx context.Context, symbol string) (core.PriceSeries, error) {
	series, err := i.provider.FetchMonthly(ctx, symbol)
	if err != nil {
		i.reg.RecordFetch(i.provider.Name(), "error")
		return nil, err
	}
	i.reg.RecordFetch(i.provider.Name(), "success")
	return series, nil
}
