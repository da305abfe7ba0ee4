// Command backtest runs the walk-forward search for a single symbol and
// prints the ranked strategies as a human-readable table or JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"equity-strategy-lab/internal/backtest"
	"equity-strategy-lab/internal/config"
	"equity-strategy-lab/internal/data"
	"equity-strategy-lab/internal/rules"
	"equity-strategy-lab/internal/walkforward"
)

func main() {
	symbol := flag.String("symbol", "", "Symbol to backtest (required)")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	rulesPath := flag.String("rules", "", "Path to rules file (default: rules_file from config)")
	cacheDir := flag.String("cache-dir", "", "Price cache directory (default: data.cache_dir from config)")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	logger := newLogger()

	if *symbol == "" {
		logger.Fatal().Msg("--symbol is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if *rulesPath == "" {
		*rulesPath = cfg.RulesFile
	}
	if *cacheDir == "" {
		*cacheDir = cfg.Data.CacheDir
	}

	registry := rules.NewDefaultRegistry()
	rulesCfg, err := config.LoadRules(*rulesPath, registry)
	if err != nil {
		logger.Fatal().Err(err).Msg("load rules")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	provider := &data.FileProvider{
		Dir:    *cacheDir,
		Filter: data.Filter{YearsBack: cfg.Data.YearsBack, Freeze: cfg.Data.Freeze},
		MaxGap: cfg.Data.MaxGap,
	}

	series, err := provider.GetPriceData(ctx, *symbol)
	if err != nil {
		logger.Fatal().Err(err).Str("symbol", *symbol).Msg("load price data")
	}

	bt, err := backtest.New(backtest.Options{
		Config:  cfg.Backtest,
		Rules:   rulesCfg,
		Indexes: provider,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("configure backtester")
	}

	result, err := bt.Search(ctx, *symbol, series)
	if err != nil {
		if errors.Is(err, walkforward.ErrInsufficientData) || errors.Is(err, backtest.ErrNoValidResults) {
			logger.Fatal().Err(err).Msg("walk-forward failure")
		}
		logger.Fatal().Err(err).Msg("search failed")
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Strategies); err != nil {
			logger.Fatal().Err(err).Msg("encode results")
		}
		return
	}

	printTable(result)
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

func printTable(result *backtest.RunResult) {
	fmt.Printf("Symbol: %s | Strategies: %d | Windows evaluated: %d | Elapsed: %s\n\n",
		result.Symbol, len(result.Strategies), len(result.Windows), result.Elapsed.Round(time.Millisecond))

	fmt.Printf("%-4s %-50s %8s %8s %8s %8s %7s %9s\n",
		"#", "RULE STACK", "EDGE", "WIN%", "SHARPE", "AVGRET%", "TRADES", "STABILITY")
	for i, s := range result.Strategies {
		fmt.Printf("%-4d %-50s %8.3f %8.1f %8.2f %8.2f %7d %9.2f\n",
			i+1, s.RuleStack.String(),
			s.EdgeScore, s.WinPct*100, s.Sharpe, s.AvgReturn*100,
			s.TotalTrades, s.StabilityScore)
		if s.InstabilityWarning != "" {
			fmt.Printf("     ! %s\n", s.InstabilityWarning)
		}
	}
}
