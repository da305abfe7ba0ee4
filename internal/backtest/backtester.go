// Package backtest drives the walk-forward search: it enumerates candidate
// rule stacks, evaluates each across rolling out-of-sample windows, scores
// and consolidates the results, and returns the ranked survivors.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"equity-strategy-lab/internal/consolidation"
	"equity-strategy-lab/internal/domain"
	"equity-strategy-lab/internal/idhash"
	"equity-strategy-lab/internal/observability"
	"equity-strategy-lab/internal/rules"
	"equity-strategy-lab/internal/scoring"
	"equity-strategy-lab/internal/signal"
	"equity-strategy-lab/internal/simulation"
	"equity-strategy-lab/internal/walkforward"
)

// ErrNoValidResults indicates that no rule stack produced a single valid
// out-of-sample result. This is a loud failure: an empty list would be
// indistinguishable from "nothing good was found".
var ErrNoValidResults = errors.New("WALK-FORWARD FAILURE: no valid out-of-sample results")

// Options for creating a Backtester.
type Options struct {
	Config   Config
	Rules    RulesConfig
	Registry *rules.Registry // nil means the default registry
	Indexes  IndexProvider   // required only when context filters are configured
	Logger   zerolog.Logger
	Metrics  *observability.Metrics // nil disables instrumentation
}

// Backtester runs the full strategy search for one symbol at a time. An
// instance is single-threaded; run symbols in parallel by giving each
// worker its own instance.
type Backtester struct {
	cfg          Config
	rules        RulesConfig
	registry     *rules.Registry
	exits        signal.ExitConditions
	consolidator *consolidation.Consolidator
	cache        *contextCache
	log          zerolog.Logger
	metrics      *observability.Metrics
	configHash   string
}

// New validates the configuration fail-fast and builds a Backtester.
// Unknown rule types, malformed exit conditions, and bad weights are caught
// here, before any window is evaluated.
func New(opts Options) (*Backtester, error) {
	registry := opts.Registry
	if registry == nil {
		registry = rules.NewDefaultRegistry()
	}

	if err := validate(opts.Config, opts.Rules, registry); err != nil {
		return nil, err
	}

	exits, err := signal.ParseExitConditions(opts.Rules.ExitConditions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &Backtester{
		cfg:          opts.Config,
		rules:        opts.Rules,
		registry:     registry,
		exits:        exits,
		consolidator: consolidation.New(opts.Config.StabilityThreshold),
		cache:        newContextCache(opts.Indexes),
		log:          opts.Logger,
		metrics:      opts.Metrics,
		configHash: idhash.ComputeConfigHash(
			opts.Config.HoldPeriod, opts.Config.MinTrades, opts.Config.Weights,
			opts.Config.Windows.TrainBars, opts.Config.Windows.TestBars, opts.Config.Windows.StepBars),
	}, nil
}

// ConfigHash is the deterministic identifier of this Backtester's
// configuration, used as part of persistence keys.
func (b *Backtester) ConfigHash() string {
	return b.configHash
}

// RunResult is the full outcome of one per-symbol search.
type RunResult struct {
	Symbol     string
	Strategies []domain.StrategyResult
	Windows    []domain.WindowResult
	RunAt      time.Time
	Elapsed    time.Duration
}

// Run searches one symbol and returns the ranked consolidated strategies.
func (b *Backtester) Run(ctx context.Context, symbol string, series domain.PriceSeries) ([]domain.StrategyResult, error) {
	res, err := b.Search(ctx, symbol, series)
	if err != nil {
		return nil, err
	}
	return res.Strategies, nil
}

// Search evaluates every candidate stack across every walk-forward window
// and returns both the consolidated ranking and the per-window results for
// persistence. Per-rule evaluation errors skip the stack and continue; zero
// valid results across all stacks is ErrNoValidResults.
func (b *Backtester) Search(ctx context.Context, symbol string, series domain.PriceSeries) (*RunResult, error) {
	started := time.Now()

	windows, err := walkforward.Windows(series, b.cfg.Windows)
	if err != nil {
		b.recordRun("insufficient_data")
		return nil, fmt.Errorf("symbol %s: %w", symbol, err)
	}

	regime, err := b.regimeMask(ctx, series)
	if err != nil {
		b.recordRun("error")
		return nil, fmt.Errorf("symbol %s: %w", symbol, err)
	}

	stacks := enumerateStacks(b.rules)
	b.log.Debug().
		Str("symbol", symbol).
		Int("stacks", len(stacks)).
		Int("windows", len(windows)).
		Msg("starting walk-forward search")

	var windowResults []domain.WindowResult
	for _, stack := range stacks {
		results, err := b.evaluateStack(series, stack, regime, windows, symbol)
		if err != nil {
			b.log.Warn().
				Err(err).
				Str("symbol", symbol).
				Str("stack", stack.Key()).
				Msg("rule evaluation failed, skipping stack")
			if b.metrics != nil {
				b.metrics.RuleErrors.WithLabelValues(stack[0].Type).Inc()
			}
			continue
		}
		windowResults = append(windowResults, results...)
		if b.metrics != nil {
			b.metrics.StacksEvaluated.Inc()
		}
	}

	if len(windowResults) == 0 {
		b.recordRun("no_valid_results")
		return nil, fmt.Errorf("symbol %s: %w across %d stacks and %d windows",
			symbol, ErrNoValidResults, len(stacks), len(windows))
	}

	runAt := time.Now().UTC()
	strategies := b.consolidator.Consolidate(symbol, windowResults, len(windows))
	strategies = b.applyThreshold(strategies)
	for i := range strategies {
		strategies[i].ConfigHash = b.configHash
		strategies[i].RunAt = runAt
	}

	elapsed := time.Since(started)
	b.recordRun("ok")
	if b.metrics != nil {
		b.metrics.RunDuration.Observe(elapsed.Seconds())
	}
	b.log.Info().
		Str("symbol", symbol).
		Int("strategies", len(strategies)).
		Int("window_results", len(windowResults)).
		Dur("elapsed", elapsed).
		Msg("walk-forward search finished")

	return &RunResult{
		Symbol:     symbol,
		Strategies: strategies,
		Windows:    windowResults,
		RunAt:      runAt,
		Elapsed:    elapsed,
	}, nil
}

// evaluateStack scores one candidate stack across all windows. Entry
// signals are computed once over the full series; lookback indicators only
// consume past bars, so bars before a window's testing range double as its
// warm-up.
func (b *Backtester) evaluateStack(series domain.PriceSeries, stack domain.RuleStack, regime []bool, windows []domain.Window, symbol string) ([]domain.WindowResult, error) {
	entries, err := signal.EntrySeries(series, stack, b.registry)
	if err != nil {
		return nil, err
	}
	if regime != nil {
		entries = signal.And(entries, regime)
	}

	evaluator := signal.NewEvaluator(series, b.exits, b.cfg.HoldPeriod)
	sim := simulation.New(b.cfg.Costs, evaluator)

	var out []domain.WindowResult
	for _, w := range windows {
		trades := sim.Run(series, entries, w.TestStart, w.TestEnd+1)
		if b.metrics != nil {
			b.metrics.WindowsEvaluated.Inc()
			b.metrics.TradesSimulated.Add(float64(len(trades)))
		}

		// Thin windows never reach the scorer.
		if len(trades) == 0 || len(trades) < b.cfg.MinTrades {
			continue
		}

		m := scoring.Compute(trades, b.cfg.Weights)
		out = append(out, domain.WindowResult{
			Symbol:      symbol,
			RuleStack:   stack,
			Window:      w,
			WinPct:      m.WinPct,
			Sharpe:      m.Sharpe,
			AvgReturn:   m.AvgReturn,
			TotalTrades: m.TotalTrades,
			EdgeScore:   m.EdgeScore,
		})
	}

	return out, nil
}

// regimeMask ANDs all configured context filters into one gate aligned to
// the symbol's dates, or nil when no filters are configured.
func (b *Backtester) regimeMask(ctx context.Context, series domain.PriceSeries) ([]bool, error) {
	if len(b.rules.ContextFilters) == 0 {
		return nil, nil
	}

	var combined []bool
	for _, filter := range b.rules.ContextFilters {
		mask, err := b.cache.mask(ctx, filter, series)
		if err != nil {
			return nil, err
		}
		if combined == nil {
			combined = mask
			continue
		}
		combined = signal.And(combined, mask)
	}
	return combined, nil
}

// applyThreshold drops strategies scoring below the configured edge-score
// floor, preserving rank order.
func (b *Backtester) applyThreshold(strategies []domain.StrategyResult) []domain.StrategyResult {
	if b.cfg.EdgeScoreThreshold <= 0 {
		return strategies
	}
	kept := strategies[:0]
	for _, s := range strategies {
		if s.EdgeScore >= b.cfg.EdgeScoreThreshold {
			kept = append(kept, s)
		}
	}
	return kept
}

func (b *Backtester) recordRun(status string) {
	if b.metrics != nil {
		b.metrics.RunsTotal.WithLabelValues(status).Inc()
	}
}
