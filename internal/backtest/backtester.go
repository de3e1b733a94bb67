package backtest

import (
	"context"
	"time"

	"github.com/trendlab/faber/internal/core"
)

// PriceProvider fetches the full monthly closing-price history for a symbol.
type PriceProvider interface {
	FetchMonthly(ctx context.Context, symbol string) (core.PriceSeries, error)
}

// Backtester fetches price history and evaluates the trend-following rule
// against buy-and-hold for it.
type Backtester struct {
	provider PriceProvider
	cache    *Cache
	onLookup func(hit bool)
}

// Option configures a Backtester.
type Option func(*Backtester)

// WithCache gives the backtester a table memoization cache.
func WithCache(c *Cache) Option {
	return func(b *Backtester) { b.cache = c }
}

// WithCacheObserver registers a callback invoked on every cache lookup.
func WithCacheObserver(fn func(hit bool)) Option {
	return func(b *Backtester) { b.onLookup = fn }
}

// New creates a Backtester with the given price provider.
func New(provider PriceProvider, opts ...Option) *Backtester {
	b := &Backtester{provider: provider}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run fetches the symbol's history, checks that the requested start year
// falls inside it, and produces the backtest table plus summary statistics.
func (b *Backtester) Run(ctx context.Context, symbol string, startYear, smaWindow int) (*Result, error) {
	prices, err := b.provider.FetchMonthly(ctx, symbol)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	if err := prices.Validate(); err != nil {
		return nil, err
	}

	// The engine itself tolerates any start year; the boundary check lives
	// here, where the request enters the system.
	if startYear <= prices.First().Time.Year() || startYear > prices.Last().Time.Year() {
		return nil, core.ErrStartOutOfRange
	}

	table, err := b.compute(prices, startYear, smaWindow)
	if err != nil {
		return nil, err
	}

	return &Result{
		Symbol:      symbol,
		StartYear:   startYear,
		SMAWindow:   smaWindow,
		Table:       table,
		Summary:     Summarize(table),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (b *Backtester) compute(prices core.PriceSeries, startYear, smaWindow int) (*Table, error) {
	if b.cache != nil {
		table, ok := b.cache.Get(prices, startYear, smaWindow)
		if b.onLookup != nil {
			b.onLookup(ok)
		}
		if ok {
			return table, nil
		}
	}
	table, err := Compute(prices, startYear, smaWindow)
	if err != nil {
		return nil, err
	}
	if b.cache != nil {
		b.cache.Put(prices, startYear, smaWindow, table)
	}
	return table, nil
}
