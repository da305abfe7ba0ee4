package domain

import "time"

// EdgeScoreWeights blends win rate and normalized Sharpe into one composite
// score. Weights must sum to 1.0.
type EdgeScoreWeights struct {
	WinPct float64 `yaml:"win_pct" validate:"gte=0,lte=1"`
	Sharpe float64 `yaml:"sharpe" validate:"gte=0,lte=1"`
}

// WindowResult is the scored out-of-sample outcome of one rule stack on one
// testing window.
type WindowResult struct {
	Symbol    string
	RuleStack RuleStack
	Window    Window

	WinPct      float64
	Sharpe      float64
	AvgReturn   float64
	TotalTrades int
	EdgeScore   float64
}

// StrategyResult consolidates all WindowResults of one (symbol, rule stack)
// into a single stability-aware record. StabilityScore is the fraction of
// windows in which this stack was the best performer; a low value on the
// representative stack raises InstabilityWarning.
type StrategyResult struct {
	Symbol    string
	RuleStack RuleStack

	WinPct      float64
	Sharpe      float64
	AvgReturn   float64
	TotalTrades int
	EdgeScore   float64

	WindowCount        int
	StabilityScore     float64
	InstabilityWarning string // empty when stable

	// Persistence key components.
	ConfigHash string
	RunAt      time.Time
}
