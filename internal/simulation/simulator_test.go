package simulation

import (
	"math"
	"testing"
	"time"

	"equity-strategy-lab/internal/domain"
	"equity-strategy-lab/internal/signal"
)

func seriesFromCloses(closes []float64) domain.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(domain.PriceSeries, len(closes))
	for i, c := range closes {
		series[i] = domain.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return series
}

func TestRun_NextBarOpenFill(t *testing.T) {
	series := seriesFromCloses([]float64{100, 102, 104, 106, 108})
	entries := []bool{true, false, false, false, false}

	sim := New(Costs{}, signal.NewEvaluator(series, signal.ExitConditions{}, 2))
	trades := sim.Run(series, entries, 0, len(series))

	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.EntryPrice != 102 {
		t.Errorf("expected fill at next bar open 102, got %g", tr.EntryPrice)
	}
	if tr.ExitReason != domain.ExitReasonHoldPeriod {
		t.Errorf("expected hold-period exit, got %s", tr.ExitReason)
	}
	if tr.ExitPrice != 106 {
		t.Errorf("expected exit at bar 3 close 106, got %g", tr.ExitPrice)
	}
}

func TestRun_SignalOnLastBarDiscarded(t *testing.T) {
	series := seriesFromCloses([]float64{100, 101, 102})
	entries := []bool{false, false, true}

	sim := New(Costs{}, signal.NewEvaluator(series, signal.ExitConditions{}, 1))
	trades := sim.Run(series, entries, 0, len(series))

	if len(trades) != 0 {
		t.Fatalf("signal without a fill bar must not trade, got %d trades", len(trades))
	}
}

func TestRun_SymmetricCosts(t *testing.T) {
	series := seriesFromCloses([]float64{100, 100, 100, 100})
	entries := []bool{true, false, false, false}
	costs := Costs{FeePct: 0.001, SlippagePct: 0.0005}

	sim := New(costs, signal.NewEvaluator(series, signal.ExitConditions{}, 2))
	trades := sim.Run(series, entries, 0, len(series))

	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]

	wantEntry := 100 * 1.0015
	wantExit := 100 * 0.9985
	if math.Abs(tr.EntryPrice-wantEntry) > 1e-9 || math.Abs(tr.ExitPrice-wantExit) > 1e-9 {
		t.Errorf("effective fills: got (%g, %g), want (%g, %g)",
			tr.EntryPrice, tr.ExitPrice, wantEntry, wantExit)
	}

	// Flat prices: the whole loss is the round-trip cost.
	wantReturn := wantExit/wantEntry - 1
	if math.Abs(tr.ReturnPct-wantReturn) > 1e-9 {
		t.Errorf("return: got %g, want %g", tr.ReturnPct, wantReturn)
	}
	if tr.ReturnPct >= 0 {
		t.Error("flat round trip with costs must lose money")
	}
}

func TestRun_OnePositionAtATime(t *testing.T) {
	series := seriesFromCloses([]float64{100, 101, 102, 103, 104, 105, 106, 107})
	entries := make([]bool, len(series))
	for i := range entries {
		entries[i] = true
	}

	sim := New(Costs{}, signal.NewEvaluator(series, signal.ExitConditions{}, 3))
	trades := sim.Run(series, entries, 0, len(series))

	// Fill at bar 1, exit bar 4; refill at bar 5, end-of-data at bar 7.
	if len(trades) != 2 {
		t.Fatalf("expected 2 non-overlapping trades, got %d", len(trades))
	}
	if trades[0].ExitDate.After(trades[1].EntryDate) {
		t.Error("trades overlap")
	}
	if trades[1].ExitReason != domain.ExitReasonEndOfData {
		t.Errorf("expected end-of-data close, got %s", trades[1].ExitReason)
	}
}

func TestRun_WindowBoundClosesPosition(t *testing.T) {
	series := seriesFromCloses([]float64{100, 101, 102, 103, 104, 105, 106, 107})
	entries := []bool{false, false, true, false, false, false, false, false}

	// Window ends at bar 5; a long hold period cannot run past it.
	sim := New(Costs{}, signal.NewEvaluator(series, signal.ExitConditions{}, 50))
	trades := sim.Run(series, entries, 0, 5)

	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.ExitReason != domain.ExitReasonEndOfData {
		t.Errorf("expected end-of-data at window bound, got %s", tr.ExitReason)
	}
	if tr.ExitPrice != 104 {
		t.Errorf("expected exit at bar 4 close 104, got %g", tr.ExitPrice)
	}
}

func TestRun_StopLossTrade(t *testing.T) {
	series := seriesFromCloses([]float64{100, 100, 97, 94, 100})
	entries := []bool{true, false, false, false, false}

	ev := signal.NewEvaluator(series, signal.ExitConditions{StopLossPct: 0.05}, 0)
	sim := New(Costs{}, ev)
	trades := sim.Run(series, entries, 0, len(series))

	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.ExitReason != domain.ExitReasonStopLoss {
		t.Errorf("expected stop loss, got %s", tr.ExitReason)
	}
	if tr.ExitPrice != 94 {
		t.Errorf("expected exit at 94, got %g", tr.ExitPrice)
	}
	if tr.ReturnPct >= 0 {
		t.Error("stopped trade must be a loss")
	}
}
