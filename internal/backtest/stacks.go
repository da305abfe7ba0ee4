package backtest

import "equity-strategy-lab/internal/domain"

// enumerateStacks builds every candidate rule stack: each baseline rule
// alone (when MinStackSize allows), then each baseline combined with every
// combination of layer rules up to MaxStackSize. Layer order follows the
// catalogue, so enumeration is deterministic.
func enumerateStacks(cfg RulesConfig) []domain.RuleStack {
	var stacks []domain.RuleStack

	for _, base := range cfg.Baseline {
		for size := cfg.MinStackSize; size <= cfg.MaxStackSize; size++ {
			layerCount := size - 1
			if layerCount > len(cfg.Layers) {
				break
			}
			for _, combo := range combinations(cfg.Layers, layerCount) {
				stack := make(domain.RuleStack, 0, size)
				stack = append(stack, base)
				stack = append(stack, combo...)
				stacks = append(stacks, stack)
			}
		}
	}

	return stacks
}

// combinations returns all k-element combinations of defs, preserving
// catalogue order within each combination.
func combinations(defs []domain.RuleDef, k int) [][]domain.RuleDef {
	if k == 0 {
		return [][]domain.RuleDef{nil}
	}
	if k > len(defs) {
		return nil
	}

	var out [][]domain.RuleDef
	var walk func(start int, picked []domain.RuleDef)
	walk = func(start int, picked []domain.RuleDef) {
		if len(picked) == k {
			combo := make([]domain.RuleDef, k)
			copy(combo, picked)
			out = append(out, combo)
			return
		}
		for i := start; i <= len(defs)-(k-len(picked)); i++ {
			walk(i+1, append(picked, defs[i]))
		}
	}
	walk(0, nil)
	return out
}
