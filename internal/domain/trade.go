package domain

import "time"

// Trade represents one closed position. Immutable once created.
type Trade struct {
	EntryDate   time.Time
	EntryPrice  float64 // effective fill after costs
	ExitDate    time.Time
	ExitPrice   float64 // effective fill after costs
	ReturnPct   float64 // net return, costs included
	HoldingDays int
	ExitReason  string
}

// Exit reason codes.
const (
	ExitReasonStopLoss     = "STOP_LOSS"
	ExitReasonTakeProfit   = "TAKE_PROFIT"
	ExitReasonTrailingStop = "TRAILING_STOP"
	ExitReasonATRStop      = "ATR_TRAILING_STOP"
	ExitReasonHoldPeriod   = "HOLD_PERIOD"
	ExitReasonEndOfData    = "END_OF_DATA"
)
