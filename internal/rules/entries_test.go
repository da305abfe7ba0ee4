package rules

import (
	"errors"
	"testing"

	"equity-strategy-lab/internal/domain"
)

func TestSMACrossover_SignalsOnCross(t *testing.T) {
	// Dip then recovery: fast SMA(2) crosses back above slow SMA(4).
	series := seriesFromCloses([]float64{10, 9, 8, 7, 6, 5, 9, 12, 14, 16})

	sig, err := SMACrossover(series, map[string]float64{"fast": 2, "slow": 4})
	if err != nil {
		t.Fatalf("SMACrossover failed: %v", err)
	}

	if len(sig) != len(series) {
		t.Fatalf("signal length %d != series length %d", len(sig), len(series))
	}

	// Downtrend region must never signal.
	for i := 0; i <= 5; i++ {
		if sig[i] {
			t.Errorf("unexpected signal at declining bar %d", i)
		}
	}

	// Recovery must produce at least one cross signal.
	var found bool
	for i := 6; i < len(sig); i++ {
		if sig[i] {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected a crossover signal during the recovery")
	}
}

func TestSMACrossover_TrendingSeriesSignalsAtFirstDefinedBar(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	series := seriesFromCloses(closes)

	sig, err := SMACrossover(series, map[string]float64{"fast": 10, "slow": 20})
	if err != nil {
		t.Fatalf("SMACrossover failed: %v", err)
	}

	// Slow SMA defined from index 19; fast is above slow there, and the
	// previous comparison is undefined, so index 19 signals.
	if !sig[19] {
		t.Error("expected signal at first bar where both averages are defined")
	}
	for i := 0; i < 19; i++ {
		if sig[i] {
			t.Errorf("unexpected signal in warm-up region at bar %d", i)
		}
	}
}

func TestSMACrossover_InsufficientDataAllFalse(t *testing.T) {
	series := seriesFromCloses([]float64{1, 2, 3})

	sig, err := SMACrossover(series, map[string]float64{"fast": 10, "slow": 20})
	if err != nil {
		t.Fatalf("short series should not error: %v", err)
	}
	for i, s := range sig {
		if s {
			t.Errorf("bar %d: expected all-false for insufficient data", i)
		}
	}
}

func TestSMACrossover_RejectsFastNotBelowSlow(t *testing.T) {
	series := seriesFromCloses([]float64{1, 2, 3})

	_, err := SMACrossover(series, map[string]float64{"fast": 20, "slow": 10})
	if !errors.Is(err, ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
}

func TestRSIOversold_SignalsBelowThreshold(t *testing.T) {
	// Steady decline pushes RSI to 0.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	series := seriesFromCloses(closes)

	sig, err := RSIOversold(series, map[string]float64{"period": 14, "threshold": 30})
	if err != nil {
		t.Fatalf("RSIOversold failed: %v", err)
	}

	if !sig[len(sig)-1] {
		t.Error("expected oversold signal at the end of a steady decline")
	}
	for i := 0; i < 14; i++ {
		if sig[i] {
			t.Errorf("bar %d: signal inside RSI warm-up region", i)
		}
	}
}

func TestVolumeSpike(t *testing.T) {
	series := seriesFromCloses([]float64{10, 10, 10, 10, 10, 10})
	for i := range series {
		series[i].Volume = 1000
	}
	series[5].Volume = 5000

	sig, err := VolumeSpike(series, map[string]float64{"period": 4, "multiple": 2})
	if err != nil {
		t.Fatalf("VolumeSpike failed: %v", err)
	}

	if !sig[5] {
		t.Error("expected spike signal on the 5x volume bar")
	}
	for i := 0; i < 5; i++ {
		if sig[i] {
			t.Errorf("bar %d: unexpected spike signal on flat volume", i)
		}
	}
}

func TestMomentumPositive(t *testing.T) {
	series := seriesFromCloses([]float64{10, 11, 12, 11, 10, 9})

	sig, err := MomentumPositive(series, map[string]float64{"period": 2})
	if err != nil {
		t.Fatalf("MomentumPositive failed: %v", err)
	}

	expected := []bool{false, false, true, false, false, false}
	for i, want := range expected {
		if sig[i] != want {
			t.Errorf("bar %d: expected %v, got %v", i, want, sig[i])
		}
	}
}

func TestRegistry_UnknownTypeFails(t *testing.T) {
	r := NewDefaultRegistry()
	series := seriesFromCloses([]float64{1, 2, 3})

	_, err := r.Signal(series, domain.RuleDef{Type: "no_such_rule"})
	if !errors.Is(err, ErrUnknownRuleType) {
		t.Errorf("expected ErrUnknownRuleType, got %v", err)
	}
}

func TestRegistry_DefaultTypes(t *testing.T) {
	r := NewDefaultRegistry()

	for _, ruleType := range []string{
		"sma_crossover", "ema_crossover", "price_above_sma",
		"rsi_oversold", "volume_spike", "momentum_positive",
	} {
		if !r.Has(ruleType) {
			t.Errorf("default registry missing %q", ruleType)
		}
	}
}
