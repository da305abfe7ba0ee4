package signal

import (
	"errors"
	"fmt"
	"math"

	"equity-strategy-lab/internal/domain"
	"equity-strategy-lab/internal/rules"
)

// Exit parsing errors.
var (
	ErrUnknownExitType = errors.New("unknown exit condition type")
	ErrInvalidExit     = errors.New("invalid exit condition")
)

// Exit condition type keys accepted in the rules catalogue.
const (
	ExitTypeStopLoss     = "stop_loss_pct"
	ExitTypeTakeProfit   = "take_profit_pct"
	ExitTypeTrailingStop = "trailing_stop_pct"
	ExitTypeChandelier   = "chandelier_exit"
)

// ExitConditions holds the parsed exit configuration for a position. Zero
// values disable the corresponding condition; the hold-period time exit is
// always active.
type ExitConditions struct {
	StopLossPct   float64 // fixed threshold below entry price
	TakeProfitPct float64 // fixed threshold above entry price
	TrailingPct   float64 // percentage off the high-water mark
	ATRPeriod     int     // chandelier lookback
	ATRMultiple   float64 // chandelier offset in ATR multiples
}

// ParseExitConditions builds ExitConditions from the catalogue definitions.
// Unknown types fail here, at load time, not during evaluation.
func ParseExitConditions(defs []domain.RuleDef) (ExitConditions, error) {
	var ec ExitConditions
	for _, def := range defs {
		switch def.Type {
		case ExitTypeStopLoss:
			pct, err := positivePct(def, "percentage")
			if err != nil {
				return ec, err
			}
			ec.StopLossPct = pct
		case ExitTypeTakeProfit:
			pct, err := positivePct(def, "percentage")
			if err != nil {
				return ec, err
			}
			ec.TakeProfitPct = pct
		case ExitTypeTrailingStop:
			pct, err := positivePct(def, "percentage")
			if err != nil {
				return ec, err
			}
			ec.TrailingPct = pct
		case ExitTypeChandelier:
			period, ok := def.Params["period"]
			if !ok || period < 1 || period != math.Trunc(period) {
				return ec, fmt.Errorf("%w: %s requires positive integer period", ErrInvalidExit, def.Type)
			}
			multiple, ok := def.Params["multiple"]
			if !ok || multiple <= 0 {
				return ec, fmt.Errorf("%w: %s requires positive multiple", ErrInvalidExit, def.Type)
			}
			ec.ATRPeriod = int(period)
			ec.ATRMultiple = multiple
		default:
			return ec, fmt.Errorf("%w: %q", ErrUnknownExitType, def.Type)
		}
	}
	return ec, nil
}

func positivePct(def domain.RuleDef, key string) (float64, error) {
	v, ok := def.Params[key]
	if !ok || v <= 0 || v >= 1 {
		return 0, fmt.Errorf("%w: %s requires %q in (0,1)", ErrInvalidExit, def.Type, key)
	}
	return v, nil
}

// Evaluator resolves the exit bar for open positions. The ATR column is
// computed once per series and shared across positions.
type Evaluator struct {
	conds      ExitConditions
	holdPeriod int
	atr        []float64
}

// NewEvaluator prepares an Evaluator for one price series. holdPeriod is the
// maximum bars a position may stay open.
func NewEvaluator(series domain.PriceSeries, conds ExitConditions, holdPeriod int) *Evaluator {
	var atr []float64
	if conds.ATRPeriod > 0 {
		atr = rules.ATR(series, conds.ATRPeriod)
	}
	return &Evaluator{conds: conds, holdPeriod: holdPeriod, atr: atr}
}

// FindExit scans forward from the bar after entry and returns the index and
// reason of the first exit. Conditions are evaluated on closes. Same-bar
// precedence: stop loss, then take profit, then trailing stops, then the
// hold-period time exit. Positions still open at the last bar close there.
func (e *Evaluator) FindExit(series domain.PriceSeries, entryIdx int, entryPrice float64) (int, string) {
	hwm := series[entryIdx].Close

	// Stops only tighten: each bar keeps the max of the previous level and
	// the freshly derived one.
	trailStop := math.Inf(-1)
	chandStop := math.Inf(-1)

	for i := entryIdx + 1; i < len(series); i++ {
		close := series[i].Close

		if close > hwm {
			hwm = close
		}

		if e.conds.TrailingPct > 0 {
			trailStop = math.Max(trailStop, hwm*(1-e.conds.TrailingPct))
		}
		if e.conds.ATRPeriod > 0 && !math.IsNaN(e.atr[i]) {
			chandStop = math.Max(chandStop, hwm-e.conds.ATRMultiple*e.atr[i])
		}

		if e.conds.StopLossPct > 0 && close <= entryPrice*(1-e.conds.StopLossPct) {
			return i, domain.ExitReasonStopLoss
		}
		if e.conds.TakeProfitPct > 0 && close >= entryPrice*(1+e.conds.TakeProfitPct) {
			return i, domain.ExitReasonTakeProfit
		}
		// Strict comparison: a flat series (zero ATR, stop at the
		// high-water mark) must never trigger a volatility exit.
		if e.conds.TrailingPct > 0 && close < trailStop {
			return i, domain.ExitReasonTrailingStop
		}
		if e.conds.ATRPeriod > 0 && close < chandStop {
			return i, domain.ExitReasonATRStop
		}
		if e.holdPeriod > 0 && i-entryIdx >= e.holdPeriod {
			return i, domain.ExitReasonHoldPeriod
		}
	}

	return len(series) - 1, domain.ExitReasonEndOfData
}

// TrailingStopLevels returns the trailing-stop level at each bar of an open
// position entered at entryIdx. Exposed for ratchet verification.
func (e *Evaluator) TrailingStopLevels(series domain.PriceSeries, entryIdx int) []float64 {
	hwm := series[entryIdx].Close
	level := math.Inf(-1)

	out := make([]float64, 0, len(series)-entryIdx-1)
	for i := entryIdx + 1; i < len(series); i++ {
		if series[i].Close > hwm {
			hwm = series[i].Close
		}
		if e.conds.TrailingPct > 0 {
			level = math.Max(level, hwm*(1-e.conds.TrailingPct))
		}
		if e.conds.ATRPeriod > 0 && !math.IsNaN(e.atr[i]) {
			level = math.Max(level, hwm-e.conds.ATRMultiple*e.atr[i])
		}
		out = append(out, level)
	}
	return out
}
