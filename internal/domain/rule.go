package domain

import (
	"fmt"
	"sort"
	"strings"
)

// RuleDef identifies one indicator invocation: a registry type plus its
// parameters. Immutable value; Name is display-only and falls back to Type.
type RuleDef struct {
	Name   string             `yaml:"name" json:"name,omitempty"`
	Type   string             `yaml:"type" json:"type"`
	Params map[string]float64 `yaml:"params" json:"params,omitempty"`
}

// DisplayName returns Name, or Type when Name is empty.
func (r RuleDef) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Type
}

// Key returns a canonical identity string: type plus parameters in sorted
// order. Two RuleDefs with equal keys produce identical signals.
func (r RuleDef) Key() string {
	if len(r.Params) == 0 {
		return r.Type
	}
	keys := make([]string, 0, len(r.Params))
	for k := range r.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(r.Type)
	sb.WriteByte('(')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%s=%g", k, r.Params[k])
	}
	sb.WriteByte(')')
	return sb.String()
}

// RuleStack is an ordered sequence of entry rules combined by logical AND.
// Order does not affect the combined signal but is preserved for identity
// and display.
type RuleStack []RuleDef

// Key returns the canonical identity of the stack: member keys joined in
// stack order.
func (s RuleStack) Key() string {
	parts := make([]string, len(s))
	for i, r := range s {
		parts[i] = r.Key()
	}
	return strings.Join(parts, "+")
}

// String returns a human-readable label, e.g. "sma_crossover + rsi_oversold".
func (s RuleStack) String() string {
	parts := make([]string, len(s))
	for i, r := range s {
		parts[i] = r.DisplayName()
	}
	return strings.Join(parts, " + ")
}

// Equal reports structural equality of two stacks.
func (s RuleStack) Equal(other RuleStack) bool {
	return s.Key() == other.Key()
}
