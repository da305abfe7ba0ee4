// Package memory provides in-memory store implementations used by tests and
// single-run CLI invocations that do not need persistence.
package memory

import (
	"context"
	"sort"
	"sync"

	"equity-strategy-lab/internal/storage"
)

// StrategyResultStore is an in-memory implementation of storage.StrategyResultStore.
type StrategyResultStore struct {
	mu   sync.RWMutex
	data map[string]*storage.StrategyResultRecord // keyed by result_id
}

// NewStrategyResultStore creates a new in-memory strategy result store.
func NewStrategyResultStore() *StrategyResultStore {
	return &StrategyResultStore{
		data: make(map[string]*storage.StrategyResultRecord),
	}
}

// Compile-time interface check.
var _ storage.StrategyResultStore = (*StrategyResultStore)(nil)

// Insert adds a new result. Returns ErrDuplicateKey if result_id exists.
func (s *StrategyResultStore) Insert(_ context.Context, r *storage.StrategyResultRecord) error {
	if r == nil || r.ResultID == "" || r.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ResultID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.ResultID] = &copy
	return nil
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *StrategyResultStore) GetByID(_ context.Context, resultID string) (*storage.StrategyResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[resultID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *r
	return &copy, nil
}

// GetBySymbol retrieves all results for a symbol, ordered by run time DESC,
// edge score DESC.
func (s *StrategyResultStore) GetBySymbol(_ context.Context, symbol string) ([]*storage.StrategyResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*storage.StrategyResultRecord
	for _, r := range s.data {
		if r.Symbol == symbol {
			copy := *r
			out = append(out, &copy)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].RunAt.Equal(out[j].RunAt) {
			return out[i].RunAt.After(out[j].RunAt)
		}
		return out[i].EdgeScore > out[j].EdgeScore
	})
	return out, nil
}

// GetTopByEdgeScore retrieves the best results for one config hash, ordered
// by edge score DESC, limited to n.
func (s *StrategyResultStore) GetTopByEdgeScore(_ context.Context, configHash string, n int) ([]*storage.StrategyResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*storage.StrategyResultRecord
	for _, r := range s.data {
		if r.ConfigHash == configHash {
			copy := *r
			out = append(out, &copy)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].EdgeScore > out[j].EdgeScore
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}
