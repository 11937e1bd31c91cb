package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/quantfolio/quantfolio/internal/panel"
	"github.com/quantfolio/quantfolio/internal/regime"
)

func testConfig() Config {
	return Config{
		TopN:           1,
		MomentumWindow: 20,
		MinHistoryDays: 100,
		MAWindow:       50,
		CostRate:       0.001,
		RiskFreeRate:   0.04,
	}
}

// syntheticPanel builds a deterministic 3-ticker panel plus benchmark.
func syntheticPanel(t *testing.T, days int) *panel.Panel {
	t.Helper()
	dates := make([]time.Time, days)
	prices := make([][]float64, days)
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		dates[i] = base.AddDate(0, 0, i)
		f := float64(i)
		prices[i] = []float64{
			100 * math.Pow(1.0015, f),              // A trends up
			100 * (1 + 0.05*math.Sin(f/7)),         // B oscillates
			100 * math.Pow(0.9995, f),              // C decays
			300 * math.Pow(1.0008, f),              // SPY benchmark
		}
	}
	p, err := panel.New(dates, []string{"A", "B", "C", "SPY"}, prices)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRunEmptyPanel(t *testing.T) {
	p, _ := panel.New(nil, nil, nil)
	_, err := Run(p, "SPY", testConfig())
	if !errors.Is(err, ErrDataInsufficient) {
		t.Fatalf("err = %v, want ErrDataInsufficient", err)
	}
}

func TestRunShortOverlap(t *testing.T) {
	cfg := testConfig()
	cfg.MinHistoryDays = 10
	p := syntheticPanel(t, 60) // below MinOverlapDays
	_, err := Run(p, "SPY", cfg)
	if !errors.Is(err, ErrDataInsufficient) {
		t.Fatalf("err = %v, want ErrDataInsufficient", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero_top_n", func(c *Config) { c.TopN = 0 }},
		{"negative_window", func(c *Config) { c.MomentumWindow = -1 }},
		{"cost_above_one", func(c *Config) { c.CostRate = 1.5 }},
		{"zero_min_history", func(c *Config) { c.MinHistoryDays = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

// Every weight row sums to 0 or 1 and no entry is negative.
func TestWeightRowsNormalized(t *testing.T) {
	p := syntheticPanel(t, 300)
	res, err := Run(p, "SPY", testConfig())
	if err != nil {
		t.Fatal(err)
	}
	for r, row := range res.Weights {
		var sum float64
		for _, w := range row {
			if w < 0 {
				t.Fatalf("day %d: negative weight %v", r, w)
			}
			sum += w
		}
		if math.Abs(sum) > 1e-9 && math.Abs(sum-1) > 1e-9 {
			t.Fatalf("day %d: weight sum %v, want 0 or 1", r, sum)
		}
	}
}

// Altering prices strictly after day t must not change the weights chosen for
// day t: the strategy only sees history.
func TestNoLookAhead(t *testing.T) {
	const cut = 200
	p1 := syntheticPanel(t, 300)
	p2 := syntheticPanel(t, 300)
	for r := cut + 1; r < 300; r++ {
		for c := range p2.Prices[r] {
			p2.Prices[r][c] *= 0.5 // crash the future
		}
	}

	cfg := testConfig()
	res1, err := Run(p1, "SPY", cfg)
	if err != nil {
		t.Fatal(err)
	}
	res2, err := Run(p2, "SPY", cfg)
	if err != nil {
		t.Fatal(err)
	}

	for r := 0; r <= cut; r++ {
		for c := range res1.Weights[r] {
			if res1.Weights[r][c] != res2.Weights[r][c] {
				t.Fatalf("day %d ticker %d: weight changed by future prices (%v vs %v)",
					r, c, res1.Weights[r][c], res2.Weights[r][c])
			}
		}
	}
}

func TestRunMetricsSane(t *testing.T) {
	p := syntheticPanel(t, 400)
	res, err := Run(p, "SPY", testConfig())
	if err != nil {
		t.Fatal(err)
	}
	m := res.Metrics
	if m.MaxDrawdown > 0 {
		t.Errorf("max drawdown %v should be <= 0", m.MaxDrawdown)
	}
	if m.WinRate < 0 || m.WinRate > 1 {
		t.Errorf("win rate %v outside [0,1]", m.WinRate)
	}
	if len(res.NAV) != len(res.Dates) || len(res.Drawdown) != len(res.Dates) {
		t.Error("series lengths disagree with date index")
	}
	if math.Abs(res.NAV[0]-NAVBase*(1+res.NetReturns[0])) > 1e-9 {
		t.Error("NAV should start from the base scaled by day-0 net return")
	}
	if len(res.Tickers) != 3 {
		t.Errorf("tradable tickers = %v, want A, B, C", res.Tickers)
	}
}

func TestWeightsGateOverridesSelection(t *testing.T) {
	mask := [][]bool{
		{true, false},
		{true, true},
	}
	gate := []regime.State{regime.Long, regime.Flat}
	w := Weights(mask, gate)
	if w[0][0] != 1 || w[0][1] != 0 {
		t.Errorf("row 0 = %v, want [1 0]", w[0])
	}
	if w[1][0] != 0 || w[1][1] != 0 {
		t.Errorf("row 1 = %v, want all zero under a flat gate", w[1])
	}
}

func TestTurnover(t *testing.T) {
	w := [][]float64{
		{0.5, 0.5},
		{0.5, 0.5},
		{1, 0},
		{0, 0},
	}
	got := Turnover(w)
	want := []float64{1, 0, 1, 1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("turnover[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
