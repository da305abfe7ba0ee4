// Package consolidation folds per-window results into per-stack strategy
// results with a cross-window stability score.
package consolidation

import (
	"fmt"
	"sort"
	"strings"

	"equity-strategy-lab/internal/domain"
)

// DefaultStabilityThreshold flags strategies that win fewer than this
// fraction of windows.
const DefaultStabilityThreshold = 0.7

// Consolidator groups window results by rule stack and ranks the groups.
type Consolidator struct {
	stabilityThreshold float64
}

// New builds a Consolidator. A non-positive threshold falls back to the
// default.
func New(stabilityThreshold float64) *Consolidator {
	if stabilityThreshold <= 0 {
		stabilityThreshold = DefaultStabilityThreshold
	}
	return &Consolidator{stabilityThreshold: stabilityThreshold}
}

// Consolidate aggregates window results for one symbol into ranked strategy
// results, best mean edge score first. StabilityScore is the fraction of all
// totalWindows evaluated windows in which the stack was the top performer;
// windows where every stack was filtered out still count in the denominator.
// The representative (first-ranked) strategy carries an instability warning
// when its stability falls below the threshold.
func (c *Consolidator) Consolidate(symbol string, results []domain.WindowResult, totalWindows int) []domain.StrategyResult {
	if len(results) == 0 {
		return nil
	}
	if observed := countObservedWindows(results); totalWindows < observed {
		totalWindows = observed
	}

	groups := make(map[string][]domain.WindowResult)
	var order []string
	for _, r := range results {
		key := r.RuleStack.Key()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	windowWins := countWindowWins(results)

	out := make([]domain.StrategyResult, 0, len(groups))
	for _, key := range order {
		group := groups[key]
		out = append(out, consolidateGroup(symbol, group, windowWins[key], totalWindows))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EdgeScore != out[j].EdgeScore {
			return out[i].EdgeScore > out[j].EdgeScore
		}
		return out[i].RuleStack.Key() < out[j].RuleStack.Key()
	})

	if top := &out[0]; top.StabilityScore < c.stabilityThreshold {
		top.InstabilityWarning = fmt.Sprintf(
			"STRATEGY INSTABILITY DETECTED: best in %d of %d windows (stability %.2f, threshold %.2f); competitors: %s",
			windowWins[top.RuleStack.Key()], totalWindows, top.StabilityScore, c.stabilityThreshold,
			competitorSummary(top.RuleStack.Key(), windowWins))
	}

	return out
}

func consolidateGroup(symbol string, group []domain.WindowResult, wins, totalWindows int) domain.StrategyResult {
	var winPct, sharpe, avgReturn, edge float64
	trades := 0
	for _, r := range group {
		winPct += r.WinPct
		sharpe += r.Sharpe
		avgReturn += r.AvgReturn
		edge += r.EdgeScore
		trades += r.TotalTrades
	}
	n := float64(len(group))

	return domain.StrategyResult{
		Symbol:    symbol,
		RuleStack: group[0].RuleStack,

		WinPct:      winPct / n,
		Sharpe:      sharpe / n,
		AvgReturn:   avgReturn / n,
		TotalTrades: trades,
		EdgeScore:   edge / n,

		WindowCount:    len(group),
		StabilityScore: float64(wins) / float64(totalWindows),
	}
}

// competitorSummary lists the other stacks that won windows, most wins
// first, as "key (n wins)".
func competitorSummary(topKey string, wins map[string]int) string {
	type entry struct {
		key  string
		wins int
	}
	var entries []entry
	for key, n := range wins {
		if key != topKey && n > 0 {
			entries = append(entries, entry{key: key, wins: n})
		}
	}
	if len(entries) == 0 {
		return "none"
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].wins != entries[j].wins {
			return entries[i].wins > entries[j].wins
		}
		return entries[i].key < entries[j].key
	})

	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s (%d wins)", e.key, e.wins)
	}
	return strings.Join(parts, ", ")
}

// countWindowWins finds, per window, the stack with the highest edge score
// and tallies wins per stack key. Ties break toward the lexically smaller
// key so the tally is deterministic.
func countWindowWins(results []domain.WindowResult) map[string]int {
	type winner struct {
		key  string
		edge float64
	}
	best := make(map[int]winner)
	for _, r := range results {
		key := r.RuleStack.Key()
		w, ok := best[r.Window.TestStart]
		if !ok || r.EdgeScore > w.edge || (r.EdgeScore == w.edge && key < w.key) {
			best[r.Window.TestStart] = winner{key: key, edge: r.EdgeScore}
		}
	}

	wins := make(map[string]int)
	for _, w := range best {
		wins[w.key]++
	}
	return wins
}

// countObservedWindows counts the distinct windows that produced at least
// one result, as a floor for the stability denominator.
func countObservedWindows(results []domain.WindowResult) int {
	seen := make(map[int]struct{})
	for _, r := range results {
		seen[r.Window.TestStart] = struct{}{}
	}
	return len(seen)
}
