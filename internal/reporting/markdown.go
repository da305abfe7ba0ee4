package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Strategy Search Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Config: `%s` | Symbols: %d | Strategies: %d\n\n",
		shortHash(r.ConfigHash), r.SymbolCount, len(r.Strategies)))

	sb.WriteString("## Ranked Strategies\n\n")
	if len(r.Strategies) == 0 {
		sb.WriteString("No strategies survived the filters.\n\n")
	} else {
		sb.WriteString("| Rank | Symbol | Rule Stack | Edge | WinPct | Sharpe | AvgRet | Trades | Windows | Stability |\n")
		sb.WriteString("|------|--------|------------|------|--------|--------|--------|--------|---------|-----------|\n")
		for i, s := range r.Strategies {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.3f | %.1f%% | %.2f | %.2f%% | %d | %d | %.2f |\n",
				i+1, s.Symbol, s.RuleStack.String(),
				s.EdgeScore, s.WinPct*100, s.Sharpe, s.AvgReturn*100,
				s.TotalTrades, s.WindowCount, s.StabilityScore))
		}
		sb.WriteString("\n")
	}

	var warnings []string
	for _, s := range r.Strategies {
		if s.InstabilityWarning != "" {
			warnings = append(warnings, fmt.Sprintf("- **%s / %s**: %s",
				s.Symbol, s.RuleStack.String(), s.InstabilityWarning))
		}
	}
	if len(warnings) > 0 {
		sb.WriteString("## Stability Warnings\n\n")
		sb.WriteString(strings.Join(warnings, "\n"))
		sb.WriteString("\n\n")
	}

	if len(r.FailedSymbols) > 0 {
		sb.WriteString("## Failed Symbols\n\n")
		for _, f := range r.FailedSymbols {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", f.Symbol, f.Reason))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
