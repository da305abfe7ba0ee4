// Package scoring computes out-of-sample performance metrics and the
// composite edge score for a set of closed trades.
package scoring

import (
	"math"

	"equity-strategy-lab/internal/domain"
)

// sharpeNormCeiling is the Sharpe ratio that maps to a normalized score of
// 1.0. Values above it are clamped rather than rewarded further.
const sharpeNormCeiling = 3.0

// Metrics is the scored summary of one trade set.
type Metrics struct {
	WinPct      float64
	Sharpe      float64
	AvgReturn   float64
	TotalTrades int
	EdgeScore   float64
}

// Compute scores the trades with the given edge weights. Zero trades yield
// zeroed metrics; callers filter those out rather than rank them.
func Compute(trades []domain.Trade, weights domain.EdgeScoreWeights) Metrics {
	n := len(trades)
	if n == 0 {
		return Metrics{}
	}

	returns := make([]float64, n)
	wins := 0
	for i, t := range trades {
		returns[i] = t.ReturnPct
		if t.ReturnPct > 0 {
			wins++
		}
	}

	m := Metrics{
		WinPct:      float64(wins) / float64(n),
		Sharpe:      sharpe(returns),
		AvgReturn:   mean(returns),
		TotalTrades: n,
	}
	m.EdgeScore = EdgeScore(m.WinPct, m.Sharpe, weights)
	return m
}

// EdgeScore blends win rate and normalized Sharpe per the configured weights.
func EdgeScore(winPct, sharpeRatio float64, weights domain.EdgeScoreWeights) float64 {
	return weights.WinPct*winPct + weights.Sharpe*normalizeSharpe(sharpeRatio)
}

// normalizeSharpe maps a Sharpe ratio into [0,1]: negative ratios floor at 0,
// ratios at or above the ceiling cap at 1.
func normalizeSharpe(s float64) float64 {
	norm := s / sharpeNormCeiling
	if norm < 0 {
		return 0
	}
	if norm > 1 {
		return 1
	}
	return norm
}

// sharpe computes mean/stddev of per-trade returns with sample standard
// deviation (ddof=1). Fewer than two trades, or zero dispersion, score 0.
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mu := mean(returns)
	sd := stddev(returns, mu)
	if sd == 0 {
		return 0
	}
	return mu / sd
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev computes the sample standard deviation (ddof=1).
func stddev(values []float64, mu float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		d := v - mu
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}
