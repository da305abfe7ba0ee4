package reporting

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"equity-strategy-lab/internal/backtest"
	"equity-strategy-lab/internal/domain"
)

func sampleRuns() []*backtest.RunResult {
	stackA := domain.RuleStack{{Type: "sma_crossover", Params: map[string]float64{"fast": 10, "slow": 20}}}
	stackB := domain.RuleStack{{Type: "rsi_oversold", Params: map[string]float64{"period": 14, "threshold": 30}}}
	runAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	return []*backtest.RunResult{
		{
			Symbol: "AAPL",
			Strategies: []domain.StrategyResult{
				{
					Symbol: "AAPL", RuleStack: stackA,
					WinPct: 0.6, Sharpe: 1.2, AvgReturn: 0.015, TotalTrades: 20,
					EdgeScore: 0.5, WindowCount: 4, StabilityScore: 1.0,
					ConfigHash: "cfg-1", RunAt: runAt,
				},
			},
		},
		{
			Symbol: "MSFT",
			Strategies: []domain.StrategyResult{
				{
					Symbol: "MSFT", RuleStack: stackB,
					WinPct: 0.7, Sharpe: 2.0, AvgReturn: 0.02, TotalTrades: 15,
					EdgeScore: 0.68, WindowCount: 4, StabilityScore: 0.5,
					InstabilityWarning: "STRATEGY INSTABILITY DETECTED: best in 2 of 4 windows (stability 0.50, threshold 0.70); competitors: none",
					ConfigHash:         "cfg-1", RunAt: runAt,
				},
			},
		},
	}
}

func TestBuild_RanksAcrossSymbols(t *testing.T) {
	r := Build(sampleRuns(), nil, "cfg-1")

	if len(r.Strategies) != 2 {
		t.Fatalf("expected 2 strategies, got %d", len(r.Strategies))
	}
	if r.Strategies[0].Symbol != "MSFT" {
		t.Errorf("best edge score must rank first, got %s", r.Strategies[0].Symbol)
	}
	if r.SymbolCount != 2 {
		t.Errorf("symbol count: expected 2, got %d", r.SymbolCount)
	}
}

func TestRenderMarkdown(t *testing.T) {
	failures := []SymbolFailure{{Symbol: "NVDA", Reason: "insufficient data"}}
	md := RenderMarkdown(Build(sampleRuns(), failures, "cfg-1"))

	for _, want := range []string{
		"# Strategy Search Report",
		"| 1 | MSFT |",
		"| 2 | AAPL |",
		"STRATEGY INSTABILITY DETECTED",
		"## Failed Symbols",
		"NVDA: insufficient data",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_EmptyRun(t *testing.T) {
	md := RenderMarkdown(Build(nil, nil, "cfg-1"))
	if !strings.Contains(md, "No strategies survived") {
		t.Error("empty report must say so explicitly")
	}
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderCSV(&buf, Build(sampleRuns(), nil, "cfg-1")); err != nil {
		t.Fatalf("RenderCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "rank,symbol,rule_stack") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "MSFT") {
		t.Errorf("first data row must be the top strategy: %s", lines[1])
	}
}
