// Command ingest loads per-symbol CSV price files into the ClickHouse bar
// cache so searches can run against the store instead of the filesystem.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"equity-strategy-lab/internal/config"
	"equity-strategy-lab/internal/data"
	"equity-strategy-lab/internal/storage/clickhouse"
	"equity-strategy-lab/internal/storage/migrations"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	sourceDir := flag.String("source", "", "Directory of SYMBOL.csv files (default: data.cache_dir from config)")
	universePath := flag.String("universe", "", "Symbol list to ingest (default: universe_file from config)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if cfg.Storage.ClickhouseDSN == "" {
		logger.Fatal().Msg("no clickhouse dsn: set storage.clickhouse_dsn or CLICKHOUSE_DSN")
	}
	if *sourceDir == "" {
		*sourceDir = cfg.Data.CacheDir
	}
	if *universePath == "" {
		*universePath = cfg.UniverseFile
	}

	ctx := context.Background()

	symbols, err := resolveSymbols(*universePath, *sourceDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("resolve symbols")
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("apply clickhouse migrations")
	}
	defer conn.Close()
	store := clickhouse.NewPriceBarStore(conn)

	var ingested, failed int
	for _, symbol := range symbols {
		path := filepath.Join(*sourceDir, symbol+".csv")
		series, err := data.LoadCSV(path)
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("load csv")
			failed++
			continue
		}
		if err := store.InsertBulk(ctx, symbol, series); err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("insert bars")
			failed++
			continue
		}
		logger.Info().Str("symbol", symbol).Int("bars", len(series)).Msg("ingested")
		ingested++
	}

	logger.Info().Int("ingested", ingested).Int("failed", failed).Msg("ingest complete")
	if failed > 0 {
		os.Exit(1)
	}
}

// resolveSymbols uses the universe file when given, otherwise every CSV file
// in the source directory.
func resolveSymbols(universePath, sourceDir string) ([]string, error) {
	if universePath != "" {
		return data.LoadUniverse(universePath)
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, err
	}
	var symbols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		symbols = append(symbols, strings.ToUpper(strings.TrimSuffix(name, ".csv")))
	}
	return symbols, nil
}
