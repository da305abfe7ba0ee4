package backtest

import (
	"context"
	"fmt"
	"math"

	"equity-strategy-lab/internal/domain"
	"equity-strategy-lab/internal/rules"
	"equity-strategy-lab/internal/signal"
)

// IndexProvider fetches price history for a market index used by context
// filters.
type IndexProvider interface {
	GetPriceData(ctx context.Context, symbol string) (domain.PriceSeries, error)
}

// contextCache memoizes index series by symbol. Index data is
// symbol-independent, so one fetch serves every candidate stack. The map is
// plain mutable state: a Backtester instance is single-threaded, and
// parallel runs own separate instances.
type contextCache struct {
	provider IndexProvider
	series   map[string]domain.PriceSeries
}

func newContextCache(provider IndexProvider) *contextCache {
	return &contextCache{
		provider: provider,
		series:   make(map[string]domain.PriceSeries),
	}
}

// mask returns the regime gate for one filter, aligned to the target
// series' dates. Dates missing from the index align to false.
func (c *contextCache) mask(ctx context.Context, filter ContextFilter, target domain.PriceSeries) ([]bool, error) {
	index, ok := c.series[filter.IndexSymbol]
	if !ok {
		if c.provider == nil {
			return nil, fmt.Errorf("context filter %q configured without an index provider", filter.IndexSymbol)
		}
		fetched, err := c.provider.GetPriceData(ctx, filter.IndexSymbol)
		if err != nil {
			return nil, fmt.Errorf("fetch index %q: %w", filter.IndexSymbol, err)
		}
		index = fetched
		c.series[filter.IndexSymbol] = index
	}

	return signal.AlignToDates(aboveOwnSMA(index, filter.SMAPeriod), index, target), nil
}

func aboveOwnSMA(series domain.PriceSeries, period int) []bool {
	closes := series.Closes()
	sma := rules.SMA(closes, period)

	out := make([]bool, len(series))
	for i := range series {
		out[i] = !math.IsNaN(sma[i]) && closes[i] > sma[i]
	}
	return out
}
