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

// WindowResultStore implements storage.WindowResultStore using PostgreSQL.
type WindowResultStore struct {
	pool    *Pool
	metrics *observability.Metrics
}

// NewWindowResultStore creates a new WindowResultStore.
func NewWindowResultStore(pool *Pool) *WindowResultStore {
	return &WindowResultStore{pool: pool}
}

// WithMetrics enables query instrumentation and returns the store.
func (s *WindowResultStore) WithMetrics(m *observability.Metrics) *WindowResultStore {
	s.metrics = m
	return s
}

func (s *WindowResultStore) observe(operation string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
	}
}

// Compile-time interface check.
var _ storage.WindowResultStore = (*WindowResultStore)(nil)

// InsertBulk adds one run's window results atomically.
func (s *WindowResultStore) InsertBulk(ctx context.Context, records []*storage.WindowResultRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	defer func(start time.Time) { s.observe("insert_bulk", start, err) }(time.Now())

	for _, r := range records {
		if r == nil || r.Symbol == "" || r.ConfigHash == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO window_results (
			symbol, config_hash, run_at, rule_stack_key, rule_stack,
			train_start, train_end, test_start, test_end,
			train_start_date, train_end_date, test_start_date, test_end_date,
			win_pct, sharpe, avg_return, total_trades, edge_score
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17, $18
		)
	`

	for _, r := range records {
		stack, err := json.Marshal(r.RuleStack)
		if err != nil {
			return fmt.Errorf("marshal rule stack: %w", err)
		}

		_, err = tx.Exec(ctx, query,
			r.Symbol, r.ConfigHash, r.RunAt, r.RuleStack.Key(), stack,
			r.Window.TrainStart, r.Window.TrainEnd, r.Window.TestStart, r.Window.TestEnd,
			r.Window.TrainStartDate, r.Window.TrainEndDate, r.Window.TestStartDate, r.Window.TestEndDate,
			r.WinPct, r.Sharpe, r.AvgReturn, r.TotalTrades, r.EdgeScore,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert window result in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetBySymbol retrieves all window results for a (symbol, config hash) pair,
// ordered by testing start ASC.
func (s *WindowResultStore) GetBySymbol(ctx context.Context, symbol, configHash string) (_ []*storage.WindowResultRecord, err error) {
	defer func(start time.Time) { s.observe("get_by_symbol", start, err) }(time.Now())

	query := `
		SELECT symbol, config_hash, run_at, rule_stack,
			train_start, train_end, test_start, test_end,
			train_start_date, train_end_date, test_start_date, test_end_date,
			win_pct, sharpe, avg_return, total_trades, edge_score
		FROM window_results
		WHERE symbol = $1 AND config_hash = $2
		ORDER BY test_start ASC, rule_stack_key ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, configHash)
	if err != nil {
		return nil, fmt.Errorf("get window results by symbol: %w", err)
	}
	defer rows.Close()

	var out []*storage.WindowResultRecord
	for rows.Next() {
		var r storage.WindowResultRecord
		var stack []byte

		err := rows.Scan(
			&r.Symbol, &r.ConfigHash, &r.RunAt, &stack,
			&r.Window.TrainStart, &r.Window.TrainEnd, &r.Window.TestStart, &r.Window.TestEnd,
			&r.Window.TrainStartDate, &r.Window.TrainEndDate, &r.Window.TestStartDate, &r.Window.TestEndDate,
			&r.WinPct, &r.Sharpe, &r.AvgReturn, &r.TotalTrades, &r.EdgeScore,
		)
		if err != nil {
			return nil, fmt.Errorf("scan window result: %w", err)
		}

		var defs domain.RuleStack
		if err := json.Unmarshal(stack, &defs); err != nil {
			return nil, fmt.Errorf("unmarshal rule stack: %w", err)
		}
		r.RuleStack = defs
		out = append(out, &r)
	}
	return out, rows.Err()
}
