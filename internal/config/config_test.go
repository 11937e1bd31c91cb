package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quantfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
benchmark: QQQ
backtest:
  top_n: 10
optimizer:
  seed: 42
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "QQQ", cfg.Benchmark)
	require.Equal(t, 10, cfg.Backtest.TopN)
	require.Equal(t, int64(42), cfg.Optimizer.Seed)
	// Untouched fields keep their defaults.
	require.Equal(t, 126, cfg.Backtest.MomentumWindow)
	require.Equal(t, 5000, cfg.Optimizer.MonteCarloRuns)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backtest:\n  top_n: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateOptimizerBounds(t *testing.T) {
	cfg := Default()
	cfg.Optimizer.MaxAssets = 1
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Optimizer.MonteCarloRuns = 0
	require.Error(t, cfg.Validate())
}
