package domain

import "errors"

// Series validation errors.
var (
	// ErrUnorderedSeries is returned when bar dates are not strictly increasing.
	ErrUnorderedSeries = errors.New("price series dates not strictly increasing")

	// ErrSeriesGap is returned when consecutive bars are separated by more
	// than the configured gap tolerance.
	ErrSeriesGap = errors.New("price series gap exceeds tolerance")
)
