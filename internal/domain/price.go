package domain

import (
	"fmt"
	"sort"
	"time"
)

// PriceBar represents one daily OHLCV bar.
type PriceBar struct {
	Date   time.Time // trading date (UTC midnight)
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// PriceSeries is an ordered-by-date sequence of bars with unique,
// monotonically increasing dates. The engine treats it as read-only.
type PriceSeries []PriceBar

// Validate checks ordering, date uniqueness, and the gap tolerance.
// A gap between consecutive bars larger than maxGap invalidates the
// series for walk-forward use.
func (s PriceSeries) Validate(maxGap time.Duration) error {
	for i := 1; i < len(s); i++ {
		prev, cur := s[i-1].Date, s[i].Date
		if !cur.After(prev) {
			return fmt.Errorf("%w: bar %d (%s) not after bar %d (%s)",
				ErrUnorderedSeries, i, cur.Format("2006-01-02"), i-1, prev.Format("2006-01-02"))
		}
		if maxGap > 0 && cur.Sub(prev) > maxGap {
			return fmt.Errorf("%w: %s gap between %s and %s exceeds %s",
				ErrSeriesGap, cur.Sub(prev), prev.Format("2006-01-02"), cur.Format("2006-01-02"), maxGap)
		}
	}
	return nil
}

// Closes returns the close column.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Clone returns a defensive copy. Callers that normalize or fill a series
// must clone first; the engine never mutates caller-supplied data.
func (s PriceSeries) Clone() PriceSeries {
	out := make(PriceSeries, len(s))
	copy(out, s)
	return out
}

// SortByDate sorts the series in place by ascending date.
func (s PriceSeries) SortByDate() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].Date.Before(s[j].Date)
	})
}

// IndexOfDate returns the position of date in the series, or -1.
func (s PriceSeries) IndexOfDate(date time.Time) int {
	for i, b := range s {
		if b.Date.Equal(date) {
			return i
		}
	}
	return -1
}
