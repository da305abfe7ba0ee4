// Package rules implements the entry-rule library: named boolean signal
// generators over a price series, dispatched through an explicit registry so
// unknown rule types fail at configuration load rather than at evaluation.
package rules

import (
	"errors"
	"fmt"
	"sort"

	"equity-strategy-lab/internal/domain"
)

// Registry errors.
var (
	ErrUnknownRuleType = errors.New("unknown rule type")
	ErrInvalidParams   = errors.New("invalid rule parameters")
)

// RuleFunc maps a price series to a boolean signal series of equal length.
// When the series is shorter than the rule's lookback, the rule yields
// all-false rather than an error.
type RuleFunc func(series domain.PriceSeries, params map[string]float64) ([]bool, error)

// Registry maps rule-type strings to their implementations.
type Registry struct {
	funcs map[string]RuleFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]RuleFunc)}
}

// NewDefaultRegistry creates a registry with all built-in rules registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("sma_crossover", SMACrossover)
	r.Register("ema_crossover", EMACrossover)
	r.Register("price_above_sma", PriceAboveSMA)
	r.Register("rsi_oversold", RSIOversold)
	r.Register("volume_spike", VolumeSpike)
	r.Register("momentum_positive", MomentumPositive)
	return r
}

// Register adds a rule implementation under the given type key.
func (r *Registry) Register(ruleType string, fn RuleFunc) {
	r.funcs[ruleType] = fn
}

// Has reports whether ruleType is registered.
func (r *Registry) Has(ruleType string) bool {
	_, ok := r.funcs[ruleType]
	return ok
}

// Types returns all registered rule types, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.funcs))
	for t := range r.funcs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Signal evaluates one rule definition against a price series.
func (r *Registry) Signal(series domain.PriceSeries, def domain.RuleDef) ([]bool, error) {
	fn, ok := r.funcs[def.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleType, def.Type)
	}
	sig, err := fn(series, def.Params)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", def.DisplayName(), err)
	}
	return sig, nil
}

// param reads a required parameter.
func param(params map[string]float64, key string) (float64, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrInvalidParams, key)
	}
	return v, nil
}

// paramInt reads a required positive integer parameter.
func paramInt(params map[string]float64, key string) (int, error) {
	v, err := param(params, key)
	if err != nil {
		return 0, err
	}
	n := int(v)
	if float64(n) != v || n <= 0 {
		return 0, fmt.Errorf("%w: %q must be a positive integer, got %g", ErrInvalidParams, key, v)
	}
	return n, nil
}
