// Package config loads and validates the YAML configuration and the rules
// catalogue. Defaults are applied before decoding and every loaded struct is
// validated, so a bad file fails at startup rather than mid-run.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"equity-strategy-lab/internal/backtest"
	"equity-strategy-lab/internal/rules"
	"equity-strategy-lab/internal/signal"
)

// Config is the top-level application configuration.
type Config struct {
	Backtest backtest.Config `yaml:"backtest"`
	Data     DataConfig      `yaml:"data"`
	Storage  StorageConfig   `yaml:"storage"`
	Logging  LoggingConfig   `yaml:"logging"`

	RulesFile    string `yaml:"rules_file" default:"rules.yaml" validate:"required"`
	UniverseFile string `yaml:"universe_file"`
}

// DataConfig controls where price history comes from.
type DataConfig struct {
	CacheDir  string        `yaml:"cache_dir" default:"data/cache"`
	YearsBack int           `yaml:"years_back" default:"5" validate:"gte=0"`
	MaxGap    time.Duration `yaml:"max_gap" default:"168h"`
	Freeze    time.Time     `yaml:"freeze_date"`
}

// StorageConfig holds backing-store DSNs. Empty DSNs disable persistence
// for that store.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Pretty bool   `yaml:"pretty" default:"true"`
}

// Load reads, defaults, env-overrides, and validates the configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	applyEnvOverrides(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides lets deploy environments inject credentials without
// editing the config file.
func applyEnvOverrides(cfg *Config) {
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
	if dsn := os.Getenv("CLICKHOUSE_DSN"); dsn != "" {
		cfg.Storage.ClickhouseDSN = dsn
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// LoadRules reads the rules catalogue and verifies every entry rule type
// against the registry and every exit condition against the exit parser.
// Unknown types fail here, at load time.
func LoadRules(path string, registry *rules.Registry) (backtest.RulesConfig, error) {
	var rulesCfg backtest.RulesConfig

	raw, err := os.ReadFile(path)
	if err != nil {
		return rulesCfg, fmt.Errorf("read rules file: %w", err)
	}

	if err := defaults.Set(&rulesCfg); err != nil {
		return rulesCfg, fmt.Errorf("apply rules defaults: %w", err)
	}
	if err := yaml.Unmarshal(raw, &rulesCfg); err != nil {
		return rulesCfg, fmt.Errorf("parse rules file: %w", err)
	}

	for _, def := range rulesCfg.Baseline {
		if !registry.Has(def.Type) {
			return rulesCfg, fmt.Errorf("baseline rule %q: %w: %q",
				def.DisplayName(), rules.ErrUnknownRuleType, def.Type)
		}
	}
	for _, def := range rulesCfg.Layers {
		if !registry.Has(def.Type) {
			return rulesCfg, fmt.Errorf("layer rule %q: %w: %q",
				def.DisplayName(), rules.ErrUnknownRuleType, def.Type)
		}
	}
	if _, err := signal.ParseExitConditions(rulesCfg.ExitConditions); err != nil {
		return rulesCfg, fmt.Errorf("exit conditions: %w", err)
	}

	if err := validator.New().Struct(&rulesCfg); err != nil {
		return rulesCfg, fmt.Errorf("validate rules config: %w", err)
	}
	return rulesCfg, nil
}
