package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"equity-strategy-lab/internal/domain"
	"equity-strategy-lab/internal/storage"
)

func windowRecord(symbol string, testStart int) *storage.WindowResultRecord {
	return &storage.WindowResultRecord{
		ConfigHash: "cfg-1",
		RunAt:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		WindowResult: domain.WindowResult{
			Symbol: symbol,
			RuleStack: domain.RuleStack{
				{Type: "sma_crossover", Params: map[string]float64{"fast": 10, "slow": 20}},
			},
			Window:      domain.Window{TestStart: testStart, TestEnd: testStart + 19},
			WinPct:      0.5,
			TotalTrades: 4,
			EdgeScore:   0.4,
		},
	}
}

func TestWindowResultStore_InsertBulkAndGet(t *testing.T) {
	store := NewWindowResultStore()
	ctx := context.Background()

	records := []*storage.WindowResultRecord{
		windowRecord("AAPL", 60),
		windowRecord("AAPL", 20),
		windowRecord("MSFT", 20),
	}
	if err := store.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetBySymbol(ctx, "AAPL", "cfg-1")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Window.TestStart != 20 || got[1].Window.TestStart != 60 {
		t.Error("records must be ordered by testing start")
	}
}

func TestWindowResultStore_InvalidInputRejectsBatch(t *testing.T) {
	store := NewWindowResultStore()
	ctx := context.Background()

	records := []*storage.WindowResultRecord{
		windowRecord("AAPL", 20),
		{}, // missing symbol and config hash
	}
	if err := store.InsertBulk(ctx, records); !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	// Nothing from the failed batch may land.
	got, err := store.GetBySymbol(ctx, "AAPL", "cfg-1")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("failed batch must be atomic, found %d records", len(got))
	}
}

func TestWindowResultStore_EmptyBatchIsNoop(t *testing.T) {
	store := NewWindowResultStore()
	if err := store.InsertBulk(context.Background(), nil); err != nil {
		t.Errorf("empty batch must succeed, got %v", err)
	}
}
