package data

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"equity-strategy-lab/internal/domain"
	"equity-strategy-lab/internal/storage"
)

// ErrNoUsableData indicates that date filtering removed every bar of an
// otherwise loadable series.
var ErrNoUsableData = errors.New("no usable price data after date filtering")

// Filter restricts a loaded series by date. Zero values leave the
// corresponding bound open.
type Filter struct {
	YearsBack int       // keep only the trailing N years
	Freeze    time.Time // drop bars after this date
	Start     time.Time // drop bars before this date
	End       time.Time // drop bars after this date (explicit range)
}

// Apply returns the bars surviving the filter, as a copy of the input.
func (f Filter) Apply(series domain.PriceSeries) domain.PriceSeries {
	if len(series) == 0 {
		return nil
	}

	start := f.Start
	end := f.End
	if !f.Freeze.IsZero() && (end.IsZero() || f.Freeze.Before(end)) {
		end = f.Freeze
	}
	if f.YearsBack > 0 {
		anchor := series[len(series)-1].Date
		if !end.IsZero() {
			anchor = end
		}
		cutoff := anchor.AddDate(-f.YearsBack, 0, 0)
		if start.IsZero() || cutoff.After(start) {
			start = cutoff
		}
	}

	var out domain.PriceSeries
	for _, b := range series {
		if !start.IsZero() && b.Date.Before(start) {
			continue
		}
		if !end.IsZero() && b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// FileProvider serves price data from per-symbol CSV cache files in one
// directory (SYMBOL.csv).
type FileProvider struct {
	Dir    string
	Filter Filter
	MaxGap time.Duration // 0 disables the gap check
}

// GetPriceData loads, filters, and validates one symbol's series.
func (p *FileProvider) GetPriceData(_ context.Context, symbol string) (domain.PriceSeries, error) {
	path := filepath.Join(p.Dir, strings.ToUpper(symbol)+".csv")
	series, err := LoadCSV(path)
	if err != nil {
		return nil, fmt.Errorf("symbol %s: %w", symbol, err)
	}

	series = p.Filter.Apply(series)
	if len(series) == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNoUsableData)
	}
	if err := series.Validate(p.MaxGap); err != nil {
		return nil, fmt.Errorf("symbol %s: %w", symbol, err)
	}
	return series, nil
}

// StoreProvider serves price data from a PriceBarStore.
type StoreProvider struct {
	Store  storage.PriceBarStore
	Filter Filter
	MaxGap time.Duration
}

// GetPriceData reads, filters, and validates one symbol's series from the
// backing store.
func (p *StoreProvider) GetPriceData(ctx context.Context, symbol string) (domain.PriceSeries, error) {
	series, err := p.Store.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("symbol %s: %w", symbol, err)
	}

	series = p.Filter.Apply(series)
	if len(series) == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNoUsableData)
	}
	if err := series.Validate(p.MaxGap); err != nil {
		return nil, fmt.Errorf("symbol %s: %w", symbol, err)
	}
	return series, nil
}
