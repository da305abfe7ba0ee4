// Package walkforward slices a price series into rolling train/test windows
// for out-of-sample evaluation.
package walkforward

import (
	"errors"
	"fmt"

	"equity-strategy-lab/internal/domain"
)

// ErrInsufficientData indicates the series cannot fit even one full window.
var ErrInsufficientData = errors.New("WALK-FORWARD FAILURE: insufficient data for a single window")

// Config controls window geometry, in bars.
type Config struct {
	TrainBars int `yaml:"train_bars" validate:"gt=0"`
	TestBars  int `yaml:"test_bars" validate:"gt=0"`
	StepBars  int `yaml:"step_bars" validate:"gt=0"`
}

// Windows generates every full train/test window that fits in a series of
// seriesLen bars, advancing by StepBars. Partial trailing windows are
// dropped: a truncated testing range would not be comparable to the others.
func Windows(series domain.PriceSeries, cfg Config) ([]domain.Window, error) {
	need := cfg.TrainBars + cfg.TestBars
	if len(series) < need {
		return nil, fmt.Errorf("%w: have %d bars, need %d (train %d + test %d)",
			ErrInsufficientData, len(series), need, cfg.TrainBars, cfg.TestBars)
	}

	var windows []domain.Window
	for start := 0; start+need <= len(series); start += cfg.StepBars {
		trainEnd := start + cfg.TrainBars - 1
		testStart := trainEnd + 1
		testEnd := testStart + cfg.TestBars - 1

		windows = append(windows, domain.Window{
			TrainStart: start,
			TrainEnd:   trainEnd,
			TestStart:  testStart,
			TestEnd:    testEnd,

			TrainStartDate: series[start].Date,
			TrainEndDate:   series[trainEnd].Date,
			TestStartDate:  series[testStart].Date,
			TestEndDate:    series[testEnd].Date,
		})
	}

	return windows, nil
}
