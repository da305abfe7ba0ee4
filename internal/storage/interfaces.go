package storage

import (
	"context"
	"time"

	"equity-strategy-lab/internal/domain"
)

// StrategyResultRecord is a persisted consolidated strategy result with its
// deterministic identifier.
type StrategyResultRecord struct {
	ResultID string
	domain.StrategyResult
}

// WindowResultRecord is a persisted per-window result tied to the run that
// produced it.
type WindowResultRecord struct {
	ConfigHash string
	RunAt      time.Time
	domain.WindowResult
}

// StrategyResultStore provides access to strategy_results storage.
type StrategyResultStore interface {
	// Insert adds a new result. Returns ErrDuplicateKey if result_id exists.
	Insert(ctx context.Context, r *StrategyResultRecord) error

	// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, resultID string) (*StrategyResultRecord, error)

	// GetBySymbol retrieves all results for a symbol, ordered by run time DESC,
	// edge score DESC.
	GetBySymbol(ctx context.Context, symbol string) ([]*StrategyResultRecord, error)

	// GetTopByEdgeScore retrieves the best results for one config hash,
	// ordered by edge score DESC, limited to n.
	GetTopByEdgeScore(ctx context.Context, configHash string, n int) ([]*StrategyResultRecord, error)
}

// WindowResultStore provides access to window_results storage.
type WindowResultStore interface {
	// InsertBulk adds one run's window results atomically.
	InsertBulk(ctx context.Context, records []*WindowResultRecord) error

	// GetBySymbol retrieves all window results for a (symbol, config hash)
	// pair, ordered by testing start ASC.
	GetBySymbol(ctx context.Context, symbol, configHash string) ([]*WindowResultRecord, error)
}

// PriceBarStore provides access to cached daily price bars.
type PriceBarStore interface {
	// InsertBulk adds bars for a symbol. Existing (symbol, date) rows are
	// replaced; a bar cache is a snapshot, not an append-only log.
	InsertBulk(ctx context.Context, symbol string, bars domain.PriceSeries) error

	// GetBySymbol retrieves all bars for a symbol, ordered by date ASC.
	// Returns ErrNotFound when the symbol has no bars.
	GetBySymbol(ctx context.Context, symbol string) (domain.PriceSeries, error)

	// GetByDateRange retrieves bars within [start, end] inclusive, ordered
	// by date ASC.
	GetByDateRange(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error)
}
