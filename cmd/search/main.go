// Command search runs the walk-forward strategy search across a universe of
// symbols, persists the results, and writes markdown and CSV reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"equity-strategy-lab/internal/backtest"
	"equity-strategy-lab/internal/config"
	"equity-strategy-lab/internal/data"
	"equity-strategy-lab/internal/idhash"
	"equity-strategy-lab/internal/observability"
	"equity-strategy-lab/internal/reporting"
	"equity-strategy-lab/internal/rules"
	"equity-strategy-lab/internal/storage"
	chstore "equity-strategy-lab/internal/storage/clickhouse"
	"equity-strategy-lab/internal/storage/memory"
	"equity-strategy-lab/internal/storage/migrations"
	pgstore "equity-strategy-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	universePath := flag.String("universe", "", "Path to universe file (default: universe_file from config)")
	outputDir := flag.String("output", "reports", "Directory for report files")
	persist := flag.Bool("persist", true, "Persist results to configured storage")
	metricsAddr := flag.String("metrics-addr", "", "Address for the /metrics endpoint (empty disables)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := bootstrapLogger()
		boot.Fatal().Err(err).Msg("load config")
	}
	logger := newLogger(cfg.Logging)

	if *universePath == "" {
		*universePath = cfg.UniverseFile
	}
	if *universePath == "" {
		logger.Fatal().Msg("no universe file: set --universe or universe_file in config")
	}

	registry := rules.NewDefaultRegistry()
	rulesCfg, err := config.LoadRules(cfg.RulesFile, registry)
	if err != nil {
		logger.Fatal().Err(err).Msg("load rules")
	}

	symbols, err := data.LoadUniverse(*universePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load universe")
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

	metrics := observability.NewMetrics("")
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, logger)
	}

	strategyStore, windowStore, cleanup := buildStores(ctx, cfg, logger, metrics, *persist)
	defer cleanup()

	provider, closeProvider := buildProvider(ctx, cfg, logger, metrics)
	defer closeProvider()

	dataSource := "csv"
	if cfg.Storage.ClickhouseDSN != "" {
		dataSource = "clickhouse"
	}

	bt, err := backtest.New(backtest.Options{
		Config:   cfg.Backtest,
		Rules:    rulesCfg,
		Registry: registry,
		Indexes:  provider,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("configure backtester")
	}

	var runs []*backtest.RunResult
	var failures []reporting.SymbolFailure
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			logger.Warn().Msg("search interrupted")
			break
		}

		series, err := provider.GetPriceData(ctx, symbol)
		if err != nil {
			metrics.DataLoadErrors.WithLabelValues(dataSource).Inc()
			logger.Error().Err(err).Str("symbol", symbol).Msg("load price data")
			failures = append(failures, reporting.SymbolFailure{Symbol: symbol, Reason: err.Error()})
			continue
		}
		metrics.SymbolsLoaded.Inc()
		metrics.BarsLoaded.Add(float64(len(series)))

		result, err := bt.Search(ctx, symbol, series)
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("search failed")
			failures = append(failures, reporting.SymbolFailure{Symbol: symbol, Reason: err.Error()})
			continue
		}
		runs = append(runs, result)

		if *persist {
			if err := persistRun(ctx, strategyStore, windowStore, bt.ConfigHash(), result); err != nil {
				logger.Error().Err(err).Str("symbol", symbol).Msg("persist results")
			}
		}
	}

	report := reporting.Build(runs, failures, bt.ConfigHash())
	if err := writeReports(*outputDir, report); err != nil {
		logger.Fatal().Err(err).Msg("write reports")
	}
	metrics.ReportsGenerated.Inc()

	logger.Info().
		Int("symbols", len(symbols)).
		Int("succeeded", len(runs)).
		Int("failed", len(failures)).
		Int("strategies", len(report.Strategies)).
		Msg("search complete")
}

func bootstrapLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stderr)
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// buildProvider serves price data from the ClickHouse bar cache when a DSN
// is configured, falling back to the CSV cache directory.
func buildProvider(ctx context.Context, cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) (backtest.IndexProvider, func()) {
	filter := data.Filter{YearsBack: cfg.Data.YearsBack, Freeze: cfg.Data.Freeze}

	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect clickhouse")
		}
		logger.Info().Msg("serving price data from clickhouse")
		provider := &data.StoreProvider{
			Store:  chstore.NewPriceBarStore(conn).WithMetrics(metrics),
			Filter: filter,
			MaxGap: cfg.Data.MaxGap,
		}
		return provider, func() { conn.Close() }
	}

	provider := &data.FileProvider{
		Dir:    cfg.Data.CacheDir,
		Filter: filter,
		MaxGap: cfg.Data.MaxGap,
	}
	return provider, func() {}
}

// buildStores wires Postgres-backed stores when a DSN is configured and
// in-memory stores otherwise, so a run without infrastructure still works.
func buildStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics, persist bool) (storage.StrategyResultStore, storage.WindowResultStore, func()) {
	if !persist || cfg.Storage.PostgresDSN == "" {
		if persist {
			logger.Info().Msg("no postgres dsn configured, results kept in memory only")
		}
		return memory.NewStrategyResultStore(), memory.NewWindowResultStore(), func() {}
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		logger.Fatal().Err(err).Msg("apply postgres migrations")
	}

	return pgstore.NewStrategyResultStore(pool).WithMetrics(metrics),
		pgstore.NewWindowResultStore(pool).WithMetrics(metrics),
		pool.Close
}

func persistRun(ctx context.Context, strategies storage.StrategyResultStore, windows storage.WindowResultStore, configHash string, run *backtest.RunResult) error {
	for i := range run.Strategies {
		s := run.Strategies[i]
		record := &storage.StrategyResultRecord{
			ResultID:       idhash.ComputeResultID(s.Symbol, s.RuleStack.Key(), configHash, run.RunAt),
			StrategyResult: s,
		}
		if err := strategies.Insert(ctx, record); err != nil {
			return fmt.Errorf("insert strategy result: %w", err)
		}
	}

	records := make([]*storage.WindowResultRecord, len(run.Windows))
	for i := range run.Windows {
		records[i] = &storage.WindowResultRecord{
			ConfigHash:   configHash,
			RunAt:        run.RunAt,
			WindowResult: run.Windows[i],
		}
	}
	if err := windows.InsertBulk(ctx, records); err != nil {
		return fmt.Errorf("insert window results: %w", err)
	}
	return nil
}

func writeReports(dir string, report *reporting.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	stamp := report.GeneratedAt.Format("20060102-150405")

	mdPath := filepath.Join(dir, fmt.Sprintf("search-%s.md", stamp))
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}

	csvPath := filepath.Join(dir, fmt.Sprintf("search-%s.csv", stamp))
	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create csv report: %w", err)
	}
	defer f.Close()
	if err := reporting.RenderCSV(f, report); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}
	return nil
}

func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	logger.Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server stopped")
	}
}
