package memory

import (
	"context"
	"sort"
	"sync"

	"equity-strategy-lab/internal/storage"
)

// WindowResultStore is an in-memory implementation of storage.WindowResultStore.
type WindowResultStore struct {
	mu   sync.RWMutex
	data []*storage.WindowResultRecord
}

// NewWindowResultStore creates a new in-memory window result store.
func NewWindowResultStore() *WindowResultStore {
	return &WindowResultStore{}
}

// Compile-time interface check.
var _ storage.WindowResultStore = (*WindowResultStore)(nil)

// InsertBulk adds one run's window results atomically.
func (s *WindowResultStore) InsertBulk(_ context.Context, records []*storage.WindowResultRecord) error {
	if len(records) == 0 {
		return nil
	}

	for _, r := range records {
		if r == nil || r.Symbol == "" || r.ConfigHash == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		copy := *r
		s.data = append(s.data, &copy)
	}
	return nil
}

// GetBySymbol retrieves all window results for a (symbol, config hash) pair,
// ordered by testing start ASC.
func (s *WindowResultStore) GetBySymbol(_ context.Context, symbol, configHash string) ([]*storage.WindowResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*storage.WindowResultRecord
	for _, r := range s.data {
		if r.Symbol == symbol && r.ConfigHash == configHash {
			copy := *r
			out = append(out, &copy)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Window.TestStart < out[j].Window.TestStart
	})
	return out, nil
}
