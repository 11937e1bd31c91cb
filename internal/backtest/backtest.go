// Package backtest simulates the trailing-momentum strategy's profit and loss
// over a historical price panel.
package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantfolio/quantfolio/internal/panel"
	"github.com/quantfolio/quantfolio/internal/regime"
	"github.com/quantfolio/quantfolio/internal/signal"
	"github.com/quantfolio/quantfolio/internal/stats"
)

// MinOverlapDays is the shortest aligned history a backtest will accept.
const MinOverlapDays = 126

// NAVBase scales the cumulative growth index.
const NAVBase = 100.0

// ErrDataInsufficient marks a run that cannot produce meaningful statistics:
// empty universe, empty panel, or too little aligned history. Callers get no
// partial result.
var ErrDataInsufficient = errors.New("backtest: insufficient data")

// Config drives one simulation. All fields are validated before use.
type Config struct {
	TopN           int     `yaml:"top_n"`            // names held
	MomentumWindow int     `yaml:"mom_window"`       // lookback, trading days
	MinHistoryDays int     `yaml:"min_history_days"` // eligibility threshold per ticker
	MAWindow       int     `yaml:"ma_window"`        // regime gate moving average
	CostRate       float64 `yaml:"cost_rate"`        // cost per unit turnover
	RiskFreeRate   float64 `yaml:"risk_free_rate"`   // annualized
}

// DefaultConfig mirrors the strategy's production parameters.
func DefaultConfig() Config {
	return Config{
		TopN:           5,
		MomentumWindow: 126,
		MinHistoryDays: 252,
		MAWindow:       regime.DefaultMAWindow,
		CostRate:       0.001,
		RiskFreeRate:   0.04,
	}
}

// Validate rejects out-of-range parameters.
func (c Config) Validate() error {
	if c.TopN <= 0 {
		return fmt.Errorf("backtest: top_n must be positive, got %d", c.TopN)
	}
	if c.MomentumWindow <= 0 {
		return fmt.Errorf("backtest: mom_window must be positive, got %d", c.MomentumWindow)
	}
	if c.MinHistoryDays <= 0 {
		return fmt.Errorf("backtest: min_history_days must be positive, got %d", c.MinHistoryDays)
	}
	if c.MAWindow <= 0 {
		return fmt.Errorf("backtest: ma_window must be positive, got %d", c.MAWindow)
	}
	if c.CostRate < 0 || c.CostRate > 1 {
		return fmt.Errorf("backtest: cost_rate must be in [0,1], got %v", c.CostRate)
	}
	return nil
}

// Metrics are the scalar performance statistics of one run.
type Metrics struct {
	AnnualizedReturn     float64 `json:"annualized_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	Sharpe               float64 `json:"sharpe"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	WinRate              float64 `json:"win_rate"`
}

// Result is the full output of a simulation.
type Result struct {
	Dates        []time.Time
	Tickers      []string    // tradable names that survived filtering
	Weights      [][]float64 // final (gated) weights per day
	Turnover     []float64
	NetReturns   []float64
	NAV          []float64 // strategy, base 100
	BenchmarkNAV []float64 // benchmark, base 100
	Drawdown     []float64 // (NAV - running peak) / running peak
	Metrics      Metrics
	DroppedShort int // tickers removed by the history filter
}

// Run simulates the strategy over the panel. The benchmark ticker drives the
// regime gate and the comparison NAV; it is excluded from the tradable set.
// Failures are reported as wrapped ErrDataInsufficient, never as a partial
// or fabricated result.
func Run(p *panel.Panel, benchmark string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if p == nil || p.Rows() == 0 || len(p.Tickers) == 0 {
		return nil, fmt.Errorf("%w: empty price panel", ErrDataInsufficient)
	}

	filtered, dropped := p.FilterMinHistory(cfg.MinHistoryDays, benchmark)
	aligned := filtered.DropIncompleteRows()
	if aligned.Rows() < MinOverlapDays {
		return nil, fmt.Errorf("%w: aligned overlap %d rows, need %d", ErrDataInsufficient, aligned.Rows(), MinOverlapDays)
	}

	tradable := make([]string, 0, len(aligned.Tickers))
	for _, t := range aligned.Tickers {
		if t != benchmark {
			tradable = append(tradable, t)
		}
	}
	if len(tradable) == 0 {
		return nil, fmt.Errorf("%w: no tradable tickers after filtering", ErrDataInsufficient)
	}
	prices := aligned.Select(tradable)

	// The gate needs the benchmark series; without one the market filter is
	// disabled and the strategy stays fully invested.
	var gate []regime.State
	var benchRets []float64
	if bench, ok := aligned.Column(benchmark); ok {
		gate = regime.Gate(bench, cfg.MAWindow)
		benchRets = seriesReturns(bench)
	} else {
		log.Warn().Str("benchmark", benchmark).Msg("benchmark not in panel, market filter disabled")
		gate = make([]regime.State, aligned.Rows())
		for i := range gate {
			gate[i] = regime.Long
		}
		benchRets = make([]float64, aligned.Rows())
	}

	log.Info().
		Int("tickers", len(tradable)).
		Int("dropped_short_history", dropped).
		Int("days", prices.Rows()).
		Time("from", prices.Dates[0]).
		Time("to", prices.Dates[prices.Rows()-1]).
		Msg("running backtest")

	mom := signal.Momentum(prices, cfg.MomentumWindow)
	mask := signal.SelectTopN(signal.Ranks(mom), cfg.TopN)
	weights := Weights(mask, gate)
	turnover := Turnover(weights)

	rets := prices.Returns()
	n := prices.Rows()
	net := make([]float64, n)
	for t := 0; t < n; t++ {
		var gross float64
		if t > 0 {
			// Weights decided at close of t-1 earn day t's returns.
			for c := range weights[t-1] {
				r := rets[t][c]
				if panel.IsGap(r) {
					continue
				}
				gross += weights[t-1][c] * r
			}
		}
		net[t] = gross - turnover[t]*cfg.CostRate
	}

	nav := cumulateNAV(net)
	benchNAV := cumulateNAV(benchRets)
	drawdown := drawdownSeries(nav)

	m := Metrics{
		AnnualizedReturn:     stats.AnnualizedReturn(nav, prices.Dates),
		AnnualizedVolatility: stats.AnnualizedVolatility(net),
		Sharpe:               stats.SharpeRatio(net, cfg.RiskFreeRate),
		MaxDrawdown:          stats.MaxDrawdown(nav),
		WinRate:              stats.WinRate(net),
	}

	log.Info().
		Float64("ann_return", m.AnnualizedReturn).
		Float64("sharpe", m.Sharpe).
		Float64("max_drawdown", m.MaxDrawdown).
		Float64("win_rate", m.WinRate).
		Msg("backtest complete")

	return &Result{
		Dates:        prices.Dates,
		Tickers:      tradable,
		Weights:      weights,
		Turnover:     turnover,
		NetReturns:   net,
		NAV:          nav,
		BenchmarkNAV: benchNAV,
		Drawdown:     drawdown,
		Metrics:      m,
		DroppedShort: dropped,
	}, nil
}

func seriesReturns(prices []float64) []float64 {
	out := make([]float64, len(prices))
	for t := 1; t < len(prices); t++ {
		if prices[t-1] != 0 {
			out[t] = prices[t]/prices[t-1] - 1
		}
	}
	return out
}

func cumulateNAV(returns []float64) []float64 {
	nav := make([]float64, len(returns))
	acc := NAVBase
	for t, r := range returns {
		acc *= 1 + r
		nav[t] = acc
	}
	return nav
}

func drawdownSeries(nav []float64) []float64 {
	out := make([]float64, len(nav))
	peak := 0.0
	for t, v := range nav {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			out[t] = (v - peak) / peak
		}
	}
	return out
}
