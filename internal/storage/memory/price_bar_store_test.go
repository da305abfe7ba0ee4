package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"equity-strategy-lab/internal/domain"
	"equity-strategy-lab/internal/storage"
)

func sampleBars(n int) domain.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make(domain.PriceSeries, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = domain.PriceBar{
			Date: start.AddDate(0, 0, i),
			Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000,
		}
	}
	return bars
}

func TestPriceBarStore_InsertAndGet(t *testing.T) {
	store := NewPriceBarStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "AAPL", sampleBars(5)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	series, err := store.GetBySymbol(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(series) != 5 {
		t.Fatalf("expected 5 bars, got %d", len(series))
	}
	if err := series.Validate(0); err != nil {
		t.Errorf("returned series must be ordered: %v", err)
	}
}

func TestPriceBarStore_UpsertReplacesSameDate(t *testing.T) {
	store := NewPriceBarStore()
	ctx := context.Background()

	bars := sampleBars(3)
	if err := store.InsertBulk(ctx, "AAPL", bars); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	revised := domain.PriceSeries{{Date: bars[1].Date, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}}
	if err := store.InsertBulk(ctx, "AAPL", revised); err != nil {
		t.Fatalf("second InsertBulk failed: %v", err)
	}

	series, err := store.GetBySymbol(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("upsert must not grow the series: got %d bars", len(series))
	}
	if series[1].Close != 1 {
		t.Errorf("revised bar not applied: close %g", series[1].Close)
	}
}

func TestPriceBarStore_NotFound(t *testing.T) {
	store := NewPriceBarStore()

	_, err := store.GetBySymbol(context.Background(), "MISSING")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPriceBarStore_GetByDateRange(t *testing.T) {
	store := NewPriceBarStore()
	ctx := context.Background()

	bars := sampleBars(10)
	if err := store.InsertBulk(ctx, "AAPL", bars); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByDateRange(ctx, "AAPL", bars[2].Date, bars[5].Date)
	if err != nil {
		t.Fatalf("GetByDateRange failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 bars inclusive, got %d", len(got))
	}
	if !got[0].Date.Equal(bars[2].Date) || !got[3].Date.Equal(bars[5].Date) {
		t.Error("range bounds must be inclusive")
	}
}

func TestPriceBarStore_DefensiveCopy(t *testing.T) {
	store := NewPriceBarStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "AAPL", sampleBars(3)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	series, _ := store.GetBySymbol(ctx, "AAPL")
	series[0].Close = -1

	again, _ := store.GetBySymbol(ctx, "AAPL")
	if again[0].Close == -1 {
		t.Error("stored bars mutated through returned slice")
	}
}
