package domain

import "testing"

func TestRuleDefKey_ParamOrderIndependent(t *testing.T) {
	a := RuleDef{Type: "sma_crossover", Params: map[string]float64{"fast": 10, "slow": 20}}
	b := RuleDef{Type: "sma_crossover", Params: map[string]float64{"slow": 20, "fast": 10}}

	if a.Key() != b.Key() {
		t.Errorf("keys differ for identical rules: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() != "sma_crossover(fast=10,slow=20)" {
		t.Errorf("unexpected key: %q", a.Key())
	}
}

func TestRuleDefKey_NoParams(t *testing.T) {
	r := RuleDef{Type: "momentum_positive"}
	if r.Key() != "momentum_positive" {
		t.Errorf("unexpected key: %q", r.Key())
	}
}

func TestRuleDefDisplayName_FallsBackToType(t *testing.T) {
	r := RuleDef{Type: "rsi_oversold"}
	if r.DisplayName() != "rsi_oversold" {
		t.Errorf("expected type fallback, got %q", r.DisplayName())
	}

	r.Name = "RSI dip"
	if r.DisplayName() != "RSI dip" {
		t.Errorf("expected name, got %q", r.DisplayName())
	}
}

func TestRuleStackEqual(t *testing.T) {
	s1 := RuleStack{
		{Type: "sma_crossover", Params: map[string]float64{"fast": 10, "slow": 20}},
		{Type: "rsi_oversold", Params: map[string]float64{"period": 14, "threshold": 30}},
	}
	s2 := RuleStack{
		{Name: "different display name", Type: "sma_crossover", Params: map[string]float64{"slow": 20, "fast": 10}},
		{Type: "rsi_oversold", Params: map[string]float64{"threshold": 30, "period": 14}},
	}

	if !s1.Equal(s2) {
		t.Errorf("stacks with identical type/params should be equal: %q vs %q", s1.Key(), s2.Key())
	}

	s3 := RuleStack{s1[1], s1[0]} // reversed order changes identity, not signal
	if s1.Equal(s3) {
		t.Error("stack identity should preserve member order")
	}
}
