// Package config loads and validates the toolkit configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quantfolio/quantfolio/internal/backtest"
)

// Optimizer holds the optimization-path parameters.
type Optimizer struct {
	MaxAssets      int     `yaml:"max_assets"`       // universe cap before random sub-sampling
	MonteCarloRuns int     `yaml:"monte_carlo_runs"` // cloud size
	RiskFreeRate   float64 `yaml:"risk_free_rate"`   // annualized
	Seed           int64   `yaml:"seed"`             // 0 means non-reproducible
}

// Config is the whole file.
type Config struct {
	Database  string          `yaml:"database"`  // sqlite path or postgres URL
	Benchmark string          `yaml:"benchmark"` // regime gate + comparison series
	OutputDir string          `yaml:"output_dir"`
	Backtest  backtest.Config `yaml:"backtest"`
	Optimizer Optimizer       `yaml:"optimizer"`
	Blocklist []string        `yaml:"blocklist"` // extra exclusions on top of the built-ins
}

// Default mirrors the production parameters.
func Default() Config {
	return Config{
		Database:  "data/quantfolio.db",
		Benchmark: "SPY",
		OutputDir: "out",
		Backtest:  backtest.DefaultConfig(),
		Optimizer: Optimizer{
			MaxAssets:      50,
			MonteCarloRuns: 5000,
			RiskFreeRate:   0.04,
		},
	}
}

// Load reads path over the defaults; a missing file is not an error, the
// defaults simply apply.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate bounds every field before anything runs.
func (c Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("config: database must be set")
	}
	if c.Benchmark == "" {
		return fmt.Errorf("config: benchmark must be set")
	}
	if err := c.Backtest.Validate(); err != nil {
		return err
	}
	if c.Optimizer.MaxAssets < 2 {
		return fmt.Errorf("config: optimizer max_assets must be at least 2, got %d", c.Optimizer.MaxAssets)
	}
	if c.Optimizer.MonteCarloRuns <= 0 {
		return fmt.Errorf("config: optimizer monte_carlo_runs must be positive, got %d", c.Optimizer.MonteCarloRuns)
	}
	return nil
}
