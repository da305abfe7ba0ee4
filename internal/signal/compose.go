// Package signal composes entry-rule stacks into a single entry series and
// evaluates exit conditions for open positions.
package signal

import (
	"equity-strategy-lab/internal/domain"
	"equity-strategy-lab/internal/rules"
)

// EntrySeries evaluates every rule in the stack against the series and
// combines them with logical AND over the bar index. A missing or undefined
// rule value is false, never true.
func EntrySeries(series domain.PriceSeries, stack domain.RuleStack, registry *rules.Registry) ([]bool, error) {
	combined := make([]bool, len(series))
	for i := range combined {
		combined[i] = true
	}

	for _, def := range stack {
		sig, err := registry.Signal(series, def)
		if err != nil {
			return nil, err
		}
		for i := range combined {
			combined[i] = combined[i] && sig[i]
		}
	}
	return combined, nil
}

// AlignToDates maps a signal computed on one series onto the date index of
// another. Dates absent from the source series yield false: a missing
// context reading is no-signal, not permission.
func AlignToDates(sig []bool, source, target domain.PriceSeries) []bool {
	byDate := make(map[int64]bool, len(source))
	for i, b := range source {
		if i < len(sig) {
			byDate[b.Date.Unix()] = sig[i]
		}
	}

	out := make([]bool, len(target))
	for i, b := range target {
		out[i] = byDate[b.Date.Unix()]
	}
	return out
}

// And combines two aligned signal series pointwise.
func And(a, b []bool) []bool {
	out := make([]bool, len(a))
	for i := range a {
		out[i] = a[i] && i < len(b) && b[i]
	}
	return out
}
