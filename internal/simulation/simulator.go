// Package simulation turns entry signals into closed trades over a price
// series, applying transaction costs and the configured exit conditions.
package simulation

import (
	"equity-strategy-lab/internal/domain"
	"equity-strategy-lab/internal/signal"
)

// Costs models per-side execution friction as fractions of price. Both are
// applied on entry and again on exit.
type Costs struct {
	FeePct      float64 `yaml:"fee_pct" validate:"gte=0,lt=0.1"`
	SlippagePct float64 `yaml:"slippage_pct" validate:"gte=0,lt=0.1"`
}

func (c Costs) perSide() float64 {
	return c.FeePct + c.SlippagePct
}

// Simulator runs one rule stack's signals through a fill-and-exit loop.
// One position at a time; overlapping signals while a position is open are
// ignored.
type Simulator struct {
	costs Costs
	exits *signal.Evaluator
}

// New builds a Simulator with the given cost model and exit evaluator.
func New(costs Costs, exits *signal.Evaluator) *Simulator {
	return &Simulator{costs: costs, exits: exits}
}

// Run simulates trades for entry signals in [start, end) of the series.
// A signal at bar i fills at the open of bar i+1; a signal on the last bar
// of the range has no fill bar and is discarded. Exits settle at bar close.
// Positions still open at end-1 are closed there as end-of-data.
func (s *Simulator) Run(series domain.PriceSeries, entries []bool, start, end int) []domain.Trade {
	if start < 0 {
		start = 0
	}
	if end > len(series) {
		end = len(series)
	}

	bounded := series[:end]
	var trades []domain.Trade

	i := start
	for i < end-1 {
		if !entries[i] {
			i++
			continue
		}

		fillIdx := i + 1
		fill := series[fillIdx].Open
		exitIdx, reason := s.exits.FindExit(bounded, fillIdx, fill)

		trades = append(trades, s.close(series, fillIdx, fill, exitIdx, reason))

		// Scanning resumes at the exit bar: a signal there fills at the
		// following open.
		i = exitIdx
	}

	return trades
}

func (s *Simulator) close(series domain.PriceSeries, fillIdx int, fill float64, exitIdx int, reason string) domain.Trade {
	effEntry := fill * (1 + s.costs.perSide())
	effExit := series[exitIdx].Close * (1 - s.costs.perSide())

	entryDate := series[fillIdx].Date
	exitDate := series[exitIdx].Date

	return domain.Trade{
		EntryDate:   entryDate,
		EntryPrice:  effEntry,
		ExitDate:    exitDate,
		ExitPrice:   effExit,
		ReturnPct:   effExit/effEntry - 1,
		HoldingDays: int(exitDate.Sub(entryDate).Hours() / 24),
		ExitReason:  reason,
	}
}
