package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"equity-strategy-lab/internal/domain"
	"equity-strategy-lab/internal/observability"
	"equity-strategy-lab/internal/storage"
)

// StrategyResultStore implements storage.StrategyResultStore using PostgreSQL.
type StrategyResultStore struct {
	pool    *Pool
	metrics *observability.Metrics
}

// NewStrategyResultStore creates a new StrategyResultStore.
func NewStrategyResultStore(pool *Pool) *StrategyResultStore {
	return &StrategyResultStore{pool: pool}
}

// WithMetrics enables query instrumentation and returns the store.
func (s *StrategyResultStore) WithMetrics(m *observability.Metrics) *StrategyResultStore {
	s.metrics = m
	return s
}

func (s *StrategyResultStore) observe(operation string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
	}
}

// Compile-time interface check.
var _ storage.StrategyResultStore = (*StrategyResultStore)(nil)

// Insert adds a new result. Returns ErrDuplicateKey if result_id exists.
func (s *StrategyResultStore) Insert(ctx context.Context, r *storage.StrategyResultRecord) (err error) {
	defer func(start time.Time) { s.observe("insert", start, err) }(time.Now())

	if r == nil || r.ResultID == "" || r.Symbol == "" {
		return storage.ErrInvalidInput
	}

	stack, err := json.Marshal(r.RuleStack)
	if err != nil {
		return fmt.Errorf("marshal rule stack: %w", err)
	}

	query := `
		INSERT INTO strategy_results (
			result_id, symbol, rule_stack_key, rule_stack,
			win_pct, sharpe, avg_return, total_trades, edge_score,
			window_count, stability_score, instability_warning,
			config_hash, run_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12,
			$13, $14
		)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ResultID, r.Symbol, r.RuleStack.Key(), stack,
		r.WinPct, r.Sharpe, r.AvgReturn, r.TotalTrades, r.EdgeScore,
		r.WindowCount, r.StabilityScore, r.InstabilityWarning,
		r.ConfigHash, r.RunAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert strategy result: %w", err)
	}
	return nil
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *StrategyResultStore) GetByID(ctx context.Context, resultID string) (_ *storage.StrategyResultRecord, err error) {
	defer func(start time.Time) { s.observe("get_by_id", start, err) }(time.Now())

	query := selectColumns + ` FROM strategy_results WHERE result_id = $1`

	row := s.pool.QueryRow(ctx, query, resultID)
	r, err := scanStrategyResult(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get strategy result by id: %w", err)
	}
	return r, nil
}

// GetBySymbol retrieves all results for a symbol, ordered by run time DESC,
// edge score DESC.
func (s *StrategyResultStore) GetBySymbol(ctx context.Context, symbol string) (_ []*storage.StrategyResultRecord, err error) {
	defer func(start time.Time) { s.observe("get_by_symbol", start, err) }(time.Now())

	query := selectColumns + `
		FROM strategy_results
		WHERE symbol = $1
		ORDER BY run_at DESC, edge_score DESC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get strategy results by symbol: %w", err)
	}
	defer rows.Close()

	var out []*storage.StrategyResultRecord
	for rows.Next() {
		r, err := scanStrategyResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetTopByEdgeScore retrieves the best results for one config hash, ordered
// by edge score DESC, limited to n.
func (s *StrategyResultStore) GetTopByEdgeScore(ctx context.Context, configHash string, n int) (_ []*storage.StrategyResultRecord, err error) {
	defer func(start time.Time) { s.observe("get_top_by_edge_score", start, err) }(time.Now())

	query := selectColumns + `
		FROM strategy_results
		WHERE config_hash = $1
		ORDER BY edge_score DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, configHash, n)
	if err != nil {
		return nil, fmt.Errorf("get top strategy results: %w", err)
	}
	defer rows.Close()

	var out []*storage.StrategyResultRecord
	for rows.Next() {
		r, err := scanStrategyResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const selectColumns = `
	SELECT result_id, symbol, rule_stack,
		win_pct, sharpe, avg_return, total_trades, edge_score,
		window_count, stability_score, instability_warning,
		config_hash, run_at
`

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStrategyResult(row rowScanner) (*storage.StrategyResultRecord, error) {
	var r storage.StrategyResultRecord
	var stack []byte

	err := row.Scan(
		&r.ResultID, &r.Symbol, &stack,
		&r.WinPct, &r.Sharpe, &r.AvgReturn, &r.TotalTrades, &r.EdgeScore,
		&r.WindowCount, &r.StabilityScore, &r.InstabilityWarning,
		&r.ConfigHash, &r.RunAt,
	)
	if err != nil {
		return nil, err
	}

	var defs domain.RuleStack
	if err := json.Unmarshal(stack, &defs); err != nil {
		return nil, fmt.Errorf("unmarshal rule stack: %w", err)
	}
	r.RuleStack = defs
	return &r, nil
}
