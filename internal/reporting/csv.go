package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// RenderCSV writes the ranked strategy table as CSV.
func RenderCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"rank", "symbol", "rule_stack", "edge_score", "win_pct", "sharpe",
		"avg_return", "total_trades", "window_count", "stability_score",
		"instability_warning", "config_hash", "run_at",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, s := range r.Strategies {
		row := []string{
			strconv.Itoa(i + 1),
			s.Symbol,
			s.RuleStack.Key(),
			formatFloat(s.EdgeScore),
			formatFloat(s.WinPct),
			formatFloat(s.Sharpe),
			formatFloat(s.AvgReturn),
			strconv.Itoa(s.TotalTrades),
			strconv.Itoa(s.WindowCount),
			formatFloat(s.StabilityScore),
			s.InstabilityWarning,
			s.ConfigHash,
			s.RunAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
