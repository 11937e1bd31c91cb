// Package stats holds the performance and distribution statistics shared by
// the backtest and optimization paths.
package stats

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/quantfolio/quantfolio/internal/panel"
)

// TradingDaysPerYear annualizes daily moments.
const TradingDaysPerYear = 252

// epsilon floors volatility denominators in Sharpe-like ratios so a collapsed
// variance degrades to a huge-but-finite ratio instead of dividing by zero.
const epsilon = 1e-9

// AnnualizedReturn compounds a total NAV move over the calendar span of the
// run: (1+total)^(365.25/days) - 1. A span of zero days returns 0.
func AnnualizedReturn(nav []float64, dates []time.Time) float64 {
	if len(nav) < 2 || len(dates) != len(nav) {
		return 0
	}
	days := dates[len(dates)-1].Sub(dates[0]).Hours() / 24
	if days <= 0 {
		return 0
	}
	years := days / 365.25
	total := nav[len(nav)-1]/nav[0] - 1
	return math.Pow(1+total, 1/years) - 1
}

// AnnualizedVolatility scales the daily return standard deviation by √252.
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	return stat.StdDev(dailyReturns, nil) * math.Sqrt(TradingDaysPerYear)
}

// SharpeRatio computes mean excess daily return over its standard deviation,
// annualized by √252. The excess return subtracts annualRF/252 per day. A
// zero-variance series reports 0 rather than a division error.
func SharpeRatio(dailyReturns []float64, annualRF float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	excess := make([]float64, len(dailyReturns))
	rfDaily := annualRF / TradingDaysPerYear
	for i, r := range dailyReturns {
		excess[i] = r - rfDaily
	}
	sd := stat.StdDev(excess, nil)
	if sd <= 0 {
		return 0
	}
	return stat.Mean(excess, nil) / sd * math.Sqrt(TradingDaysPerYear)
}

// MaxDrawdown returns the most negative relative decline of nav from its
// running peak. The result is <= 0.
func MaxDrawdown(nav []float64) float64 {
	var worst float64
	peak := math.Inf(-1)
	for _, v := range nav {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (v - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// WinRate is the fraction of non-zero-return days that are positive. All-flat
// series report 0.
func WinRate(dailyReturns []float64) float64 {
	wins, active := 0, 0
	for _, r := range dailyReturns {
		if r == 0 {
			continue
		}
		active++
		if r > 0 {
			wins++
		}
	}
	if active == 0 {
		return 0
	}
	return float64(wins) / float64(active)
}

// AnnualizedMoments derives the annualized mean-return vector and covariance
// matrix from a complete daily return matrix (rows = days, cols = assets).
// Rows containing gaps are skipped.
func AnnualizedMoments(returns [][]float64, n int) ([]float64, *mat.SymDense) {
	cols := make([][]float64, n)
	for c := range cols {
		cols[c] = make([]float64, 0, len(returns))
	}
	for _, row := range returns {
		complete := true
		for c := 0; c < n; c++ {
			if panel.IsGap(row[c]) {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		for c := 0; c < n; c++ {
			cols[c] = append(cols[c], row[c])
		}
	}

	mu := make([]float64, n)
	for c := range cols {
		mu[c] = stat.Mean(cols[c], nil) * TradingDaysPerYear
	}
	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov := stat.Covariance(cols[i], cols[j], nil)
			sigma.SetSym(i, j, cov*TradingDaysPerYear)
		}
	}
	return mu, sigma
}

// PortfolioReturn is the weighted expected return μ'w.
func PortfolioReturn(weights, mu []float64) float64 {
	var r float64
	for i, w := range weights {
		r += w * mu[i]
	}
	return r
}

// PortfolioVolatility is sqrt(w'Σw).
func PortfolioVolatility(weights []float64, sigma *mat.SymDense) float64 {
	n := len(weights)
	var v float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v += weights[i] * weights[j] * sigma.At(i, j)
		}
	}
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

// PortfolioSharpe is (μ'w - rf) over volatility, with the epsilon floor.
func PortfolioSharpe(weights, mu []float64, sigma *mat.SymDense, riskFree float64) float64 {
	return (PortfolioReturn(weights, mu) - riskFree) / (PortfolioVolatility(weights, sigma) + epsilon)
}
