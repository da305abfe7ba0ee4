package rules

import (
	"fmt"
	"math"

	"equity-strategy-lab/internal/domain"
)

// SMACrossover signals when the fast SMA crosses above the slow SMA.
// Params: fast, slow (bar counts, fast < slow).
func SMACrossover(series domain.PriceSeries, params map[string]float64) ([]bool, error) {
	fast, slow, err := fastSlow(params)
	if err != nil {
		return nil, err
	}

	closes := series.Closes()
	return crossAbove(SMA(closes, fast), SMA(closes, slow), len(series)), nil
}

// EMACrossover signals when the fast EMA crosses above the slow EMA.
// Params: fast, slow (bar counts, fast < slow).
func EMACrossover(series domain.PriceSeries, params map[string]float64) ([]bool, error) {
	fast, slow, err := fastSlow(params)
	if err != nil {
		return nil, err
	}

	closes := series.Closes()
	return crossAbove(EMA(closes, fast), EMA(closes, slow), len(series)), nil
}

// PriceAboveSMA signals while the close sits above its own SMA.
// Params: period.
func PriceAboveSMA(series domain.PriceSeries, params map[string]float64) ([]bool, error) {
	period, err := paramInt(params, "period")
	if err != nil {
		return nil, err
	}

	closes := series.Closes()
	sma := SMA(closes, period)

	out := make([]bool, len(series))
	for i := range series {
		out[i] = !math.IsNaN(sma[i]) && closes[i] > sma[i]
	}
	return out, nil
}

// RSIOversold signals while the Wilder RSI sits below the threshold.
// Params: period, threshold (0-100).
func RSIOversold(series domain.PriceSeries, params map[string]float64) ([]bool, error) {
	period, err := paramInt(params, "period")
	if err != nil {
		return nil, err
	}
	threshold, err := param(params, "threshold")
	if err != nil {
		return nil, err
	}
	if threshold <= 0 || threshold >= 100 {
		return nil, fmt.Errorf("%w: threshold must be in (0,100), got %g", ErrInvalidParams, threshold)
	}

	rsi := RSI(series.Closes(), period)

	out := make([]bool, len(series))
	for i := range series {
		out[i] = !math.IsNaN(rsi[i]) && rsi[i] < threshold
	}
	return out, nil
}

// VolumeSpike signals when volume exceeds a multiple of its trailing average.
// Params: period, multiple (>1).
func VolumeSpike(series domain.PriceSeries, params map[string]float64) ([]bool, error) {
	period, err := paramInt(params, "period")
	if err != nil {
		return nil, err
	}
	multiple, err := param(params, "multiple")
	if err != nil {
		return nil, err
	}
	if multiple <= 1 {
		return nil, fmt.Errorf("%w: multiple must exceed 1, got %g", ErrInvalidParams, multiple)
	}

	volumes := make([]float64, len(series))
	for i, b := range series {
		volumes[i] = float64(b.Volume)
	}
	avg := SMA(volumes, period)

	out := make([]bool, len(series))
	for i := range series {
		out[i] = !math.IsNaN(avg[i]) && volumes[i] > multiple*avg[i]
	}
	return out, nil
}

// MomentumPositive signals while the close exceeds the close period bars ago.
// Params: period.
func MomentumPositive(series domain.PriceSeries, params map[string]float64) ([]bool, error) {
	period, err := paramInt(params, "period")
	if err != nil {
		return nil, err
	}

	out := make([]bool, len(series))
	for i := period; i < len(series); i++ {
		out[i] = series[i].Close > series[i-period].Close
	}
	return out, nil
}

// fastSlow reads and validates the fast/slow period pair.
func fastSlow(params map[string]float64) (int, int, error) {
	fast, err := paramInt(params, "fast")
	if err != nil {
		return 0, 0, err
	}
	slow, err := paramInt(params, "slow")
	if err != nil {
		return 0, 0, err
	}
	if fast >= slow {
		return 0, 0, fmt.Errorf("%w: fast (%d) must be less than slow (%d)", ErrInvalidParams, fast, slow)
	}
	return fast, slow, nil
}

// crossAbove signals at bars where fast moves above slow. A bar whose
// previous comparison is undefined counts as a cross when fast > slow, so
// the first defined bar of a trending series can still signal.
func crossAbove(fast, slow []float64, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) {
			continue
		}
		if fast[i] <= slow[i] {
			continue
		}
		if i == 0 || math.IsNaN(fast[i-1]) || math.IsNaN(slow[i-1]) {
			out[i] = true
			continue
		}
		out[i] = fast[i-1] <= slow[i-1]
	}
	return out
}
