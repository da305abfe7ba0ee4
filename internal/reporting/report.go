// Package reporting renders a search run's ranked strategies as markdown
// and CSV.
package reporting

import (
	"sort"
	"time"

	"equity-strategy-lab/internal/backtest"
	"equity-strategy-lab/internal/domain"
)

// Report is the renderable summary of one search run across a universe.
type Report struct {
	GeneratedAt time.Time
	ConfigHash  string

	SymbolCount   int
	FailedSymbols []SymbolFailure

	// Ranked across all symbols, best edge score first.
	Strategies []domain.StrategyResult
}

// SymbolFailure records a per-symbol run that produced no results.
type SymbolFailure struct {
	Symbol string
	Reason string
}

// Build assembles a Report from per-symbol run results. Strategy rows keep
// their per-symbol ranking and are merged by edge score across symbols.
func Build(runs []*backtest.RunResult, failures []SymbolFailure, configHash string) *Report {
	r := &Report{
		GeneratedAt:   time.Now().UTC(),
		ConfigHash:    configHash,
		SymbolCount:   len(runs) + len(failures),
		FailedSymbols: failures,
	}

	for _, run := range runs {
		r.Strategies = append(r.Strategies, run.Strategies...)
	}
	sort.SliceStable(r.Strategies, func(i, j int) bool {
		return r.Strategies[i].EdgeScore > r.Strategies[j].EdgeScore
	})
	return r
}
