package backtest

import (
	"errors"
	"fmt"
	"math"

	"equity-strategy-lab/internal/domain"
	"equity-strategy-lab/internal/rules"
	"equity-strategy-lab/internal/signal"
	"equity-strategy-lab/internal/simulation"
	"equity-strategy-lab/internal/walkforward"
)

// ErrInvalidConfig indicates a configuration problem caught before any
// window is evaluated.
var ErrInvalidConfig = errors.New("invalid backtest config")

// Config carries the engine-level knobs for one search run.
type Config struct {
	HoldPeriod         int                     `yaml:"hold_period" validate:"gt=0"`
	MinTrades          int                     `yaml:"min_trades_threshold" validate:"gte=0"`
	EdgeScoreThreshold float64                 `yaml:"edge_score_threshold" validate:"gte=0,lte=1"`
	StabilityThreshold float64                 `yaml:"stability_threshold" default:"0.7" validate:"gt=0,lte=1"`
	Weights            domain.EdgeScoreWeights `yaml:"edge_score_weights"`
	Costs              simulation.Costs        `yaml:"costs"`
	Windows            walkforward.Config      `yaml:"windows"`
}

// RulesConfig is the rule catalogue for one search run: baseline entry
// rules, optional layer rules stacked on top, exit conditions, and
// market-regime context filters.
type RulesConfig struct {
	Baseline       []domain.RuleDef `yaml:"baseline"`
	Layers         []domain.RuleDef `yaml:"layers"`
	ExitConditions []domain.RuleDef `yaml:"exit_conditions"`
	ContextFilters []ContextFilter  `yaml:"context_filters"`
	MinStackSize   int              `yaml:"min_stack_size" default:"1" validate:"gte=1"`
	MaxStackSize   int              `yaml:"max_stack_size" default:"2" validate:"gte=1"`
}

// ContextFilter gates all rule stacks on a market-regime condition: the
// index symbol's close must sit above its own SMA.
type ContextFilter struct {
	IndexSymbol string `yaml:"index_symbol" validate:"required"`
	SMAPeriod   int    `yaml:"sma_period" validate:"gt=0"`
}

// validate fails fast on anything that would make a run meaningless.
// Unknown rule types and malformed exit conditions surface here, before any
// window is evaluated.
func validate(cfg Config, rulesCfg RulesConfig, registry *rules.Registry) error {
	if cfg.HoldPeriod <= 0 {
		return fmt.Errorf("%w: hold period must be positive, got %d", ErrInvalidConfig, cfg.HoldPeriod)
	}
	if sum := cfg.Weights.WinPct + cfg.Weights.Sharpe; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("%w: edge score weights must sum to 1.0, got %g", ErrInvalidConfig, sum)
	}
	if cfg.Windows.TrainBars <= 0 || cfg.Windows.TestBars <= 0 || cfg.Windows.StepBars <= 0 {
		return fmt.Errorf("%w: window geometry must be positive: %+v", ErrInvalidConfig, cfg.Windows)
	}

	if len(rulesCfg.Baseline) == 0 {
		return fmt.Errorf("%w: empty baseline rule catalogue", ErrInvalidConfig)
	}
	if rulesCfg.MinStackSize < 1 || rulesCfg.MaxStackSize < rulesCfg.MinStackSize {
		return fmt.Errorf("%w: stack size bounds [%d, %d]", ErrInvalidConfig,
			rulesCfg.MinStackSize, rulesCfg.MaxStackSize)
	}

	for _, def := range append(append([]domain.RuleDef{}, rulesCfg.Baseline...), rulesCfg.Layers...) {
		if !registry.Has(def.Type) {
			return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, rules.ErrUnknownRuleType, def.Type)
		}
	}

	if _, err := signal.ParseExitConditions(rulesCfg.ExitConditions); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	for _, cf := range rulesCfg.ContextFilters {
		if cf.IndexSymbol == "" || cf.SMAPeriod <= 0 {
			return fmt.Errorf("%w: context filter needs index symbol and positive SMA period: %+v",
				ErrInvalidConfig, cf)
		}
	}

	return nil
}
