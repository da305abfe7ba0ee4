package clickhouse

import (
	"context"
	"fmt"
	"time"

	"equity-strategy-lab/internal/domain"
	"equity-strategy-lab/internal/observability"
	"equity-strategy-lab/internal/storage"
)

// PriceBarStore implements storage.PriceBarStore using ClickHouse.
// The price_bars table is a ReplacingMergeTree ordered by (symbol, date), so
// re-inserting a (symbol, date) row replaces it on merge.
type PriceBarStore struct {
	conn    *Conn
	metrics *observability.Metrics
}

// NewPriceBarStore creates a new PriceBarStore.
func NewPriceBarStore(conn *Conn) *PriceBarStore {
	return &PriceBarStore{conn: conn}
}

// WithMetrics enables query instrumentation and returns the store.
func (s *PriceBarStore) WithMetrics(m *observability.Metrics) *PriceBarStore {
	s.metrics = m
	return s
}

func (s *PriceBarStore) observe(operation string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordDBQuery("clickhouse", operation, time.Since(start).Seconds(), err)
	}
}

// Compile-time interface check.
var _ storage.PriceBarStore = (*PriceBarStore)(nil)

// InsertBulk adds bars for a symbol via a batch append.
func (s *PriceBarStore) InsertBulk(ctx context.Context, symbol string, bars domain.PriceSeries) (err error) {
	defer func(start time.Time) { s.observe("insert_bulk", start, err) }(time.Now())

	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_bars (symbol, date, open, high, low, close, volume)
	`)
	if err != nil {
		return fmt.Errorf("prepare price bar batch: %w", err)
	}

	for _, b := range bars {
		if err := batch.Append(symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("append price bar: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send price bar batch: %w", err)
	}
	return nil
}

// GetBySymbol retrieves all bars for a symbol, ordered by date ASC.
func (s *PriceBarStore) GetBySymbol(ctx context.Context, symbol string) (_ domain.PriceSeries, err error) {
	defer func(start time.Time) { s.observe("get_by_symbol", start, err) }(time.Now())

	return s.query(ctx, `
		SELECT date, open, high, low, close, volume
		FROM price_bars FINAL
		WHERE symbol = ?
		ORDER BY date ASC
	`, symbol)
}

// GetByDateRange retrieves bars within [start, end] inclusive, ordered by
// date ASC.
func (s *PriceBarStore) GetByDateRange(ctx context.Context, symbol string, start, end time.Time) (_ domain.PriceSeries, err error) {
	defer func(began time.Time) { s.observe("get_by_date_range", began, err) }(time.Now())

	return s.query(ctx, `
		SELECT date, open, high, low, close, volume
		FROM price_bars FINAL
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, symbol, start, end)
}

func (s *PriceBarStore) query(ctx context.Context, query string, args ...any) (domain.PriceSeries, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query price bars: %w", err)
	}
	defer rows.Close()

	var series domain.PriceSeries
	for rows.Next() {
		var b domain.PriceBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan price bar: %w", err)
		}
		series = append(series, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price bars: %w", err)
	}

	if len(series) == 0 {
		return nil, storage.ErrNotFound
	}
	return series, nil
}
