package memory

import (
	"context"
	"sync"
	"time"

	"equity-strategy-lab/internal/domain"
	"equity-strategy-lab/internal/storage"
)

// PriceBarStore is an in-memory implementation of storage.PriceBarStore.
// Bars are kept sorted by date per symbol.
type PriceBarStore struct {
	mu   sync.RWMutex
	data map[string]domain.PriceSeries // keyed by symbol
}

// NewPriceBarStore creates a new in-memory price bar store.
func NewPriceBarStore() *PriceBarStore {
	return &PriceBarStore{
		data: make(map[string]domain.PriceSeries),
	}
}

// Compile-time interface check.
var _ storage.PriceBarStore = (*PriceBarStore)(nil)

// InsertBulk adds bars for a symbol, replacing existing rows for the same
// dates.
func (s *PriceBarStore) InsertBulk(_ context.Context, symbol string, bars domain.PriceSeries) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make(map[time.Time]domain.PriceBar, len(s.data[symbol])+len(bars))
	for _, b := range s.data[symbol] {
		merged[b.Date] = b
	}
	for _, b := range bars {
		merged[b.Date] = b
	}

	series := make(domain.PriceSeries, 0, len(merged))
	for _, b := range merged {
		series = append(series, b)
	}
	series.SortByDate()
	s.data[symbol] = series
	return nil
}

// GetBySymbol retrieves all bars for a symbol, ordered by date ASC.
func (s *PriceBarStore) GetBySymbol(_ context.Context, symbol string) (domain.PriceSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, exists := s.data[symbol]
	if !exists || len(series) == 0 {
		return nil, storage.ErrNotFound
	}
	return series.Clone(), nil
}

// GetByDateRange retrieves bars within [start, end] inclusive, ordered by
// date ASC.
func (s *PriceBarStore) GetByDateRange(_ context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, exists := s.data[symbol]
	if !exists || len(series) == 0 {
		return nil, storage.ErrNotFound
	}

	var out domain.PriceSeries
	for _, b := range series {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
