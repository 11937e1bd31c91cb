// Package optimizer solves the mean-variance portfolio problems: minimum
// volatility, maximum Sharpe, the efficient frontier between them, and the
// Monte Carlo cloud used to contextualize it.
//
// Constrained solves follow the penalty-method pattern: bound projection into
// [0,1], a quadratic penalty for the budget (and target-return) equality
// constraints, BFGS with a Nelder-Mead fallback, and a bounded iteration
// budget so every call terminates.
package optimizer

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/quantfolio/quantfolio/internal/panel"
	"github.com/quantfolio/quantfolio/internal/stats"
)

// Objective labels attached to solved portfolios.
const (
	LabelMinVolatility = "Min Volatility"
	LabelMaxSharpe     = "Max Sharpe"
	LabelEqualWeight   = "Equal Weight"
)

const (
	penaltyWeight   = 1000.0
	volatilityFloor = 1e-10
	// MinReturnRows is the shortest complete return history the optimizer
	// accepts.
	MinReturnRows = 60
	// iteration budget per solver call; the solver must terminate even on
	// pathological inputs.
	maxMajorIterations = 2000
	maxFuncEvaluations = 200000
)

// ErrDataInsufficient marks a universe too small or too short to optimize.
var ErrDataInsufficient = errors.New("optimizer: insufficient data")

// ErrNonConvergent marks a single objective's failed solve. The caller skips
// the objective rather than aborting the run.
var ErrNonConvergent = errors.New("optimizer: solve did not converge")

// Problem carries the annualized inputs of one optimization run.
type Problem struct {
	Tickers  []string
	Mu       []float64     // annualized mean returns
	Sigma    *mat.SymDense // annualized covariance
	RiskFree float64       // annualized
}

// Result is one solved (or fallback) portfolio.
type Result struct {
	Label      string    `json:"label"`
	Tickers    []string  `json:"tickers"`
	Weights    []float64 `json:"weights"`
	Return     float64   `json:"return"`
	Volatility float64   `json:"volatility"`
	Sharpe     float64   `json:"sharpe"`
}

// FromReturns builds a Problem from a daily return matrix (rows = days,
// cols = assets), annualizing moments by 252.
func FromReturns(tickers []string, returns [][]float64, riskFree float64) (Problem, error) {
	if len(tickers) < 2 {
		return Problem{}, fmt.Errorf("%w: %d assets, need at least 2", ErrDataInsufficient, len(tickers))
	}
	complete := 0
	for _, row := range returns {
		ok := true
		for _, v := range row {
			if panel.IsGap(v) {
				ok = false
				break
			}
		}
		if ok {
			complete++
		}
	}
	if complete < MinReturnRows {
		return Problem{}, fmt.Errorf("%w: %d complete return rows, need %d", ErrDataInsufficient, complete, MinReturnRows)
	}
	mu, sigma := stats.AnnualizedMoments(returns, len(tickers))
	return Problem{Tickers: tickers, Mu: mu, Sigma: sigma, RiskFree: riskFree}, nil
}

func (p Problem) assets() int { return len(p.Mu) }

func (p Problem) result(label string, weights []float64) Result {
	return Result{
		Label:      label,
		Tickers:    p.Tickers,
		Weights:    weights,
		Return:     stats.PortfolioReturn(weights, p.Mu),
		Volatility: stats.PortfolioVolatility(weights, p.Sigma),
		Sharpe:     stats.PortfolioSharpe(weights, p.Mu, p.Sigma, p.RiskFree),
	}
}

// MinVolatility solves min sqrt(w'Σw) s.t. Σw = 1, 0 <= w <= 1.
func (p Problem) MinVolatility() (Result, error) {
	w, err := p.solve(p.varianceObjective(), nil)
	if err != nil {
		return Result{}, err
	}
	return p.result(LabelMinVolatility, w), nil
}

// MaxSharpe minimizes the negative Sharpe ratio under the same constraints.
// The volatility denominator carries an epsilon floor so a collapsed variance
// cannot divide by zero.
func (p Problem) MaxSharpe() (Result, error) {
	w, err := p.solve(p.negSharpeObjective(), nil)
	if err != nil {
		return Result{}, err
	}
	return p.result(LabelMaxSharpe, w), nil
}

// minVarianceAtReturn solves the frontier variant: minimum variance subject
// to the additional equality constraint μ'w = target.
func (p Problem) minVarianceAtReturn(target float64) ([]float64, error) {
	return p.solve(p.varianceObjective(), &target)
}

// Solve runs both base objectives. A failed objective is skipped; when both
// fail the equal-weight portfolio is the sole output, so the caller always
// receives at least one feasible portfolio.
func (p Problem) Solve() []Result {
	results := make([]Result, 0, 2)
	if r, err := p.MinVolatility(); err == nil {
		results = append(results, r)
	} else {
		log.Warn().Err(err).Msg("min-volatility solve skipped")
	}
	if r, err := p.MaxSharpe(); err == nil {
		results = append(results, r)
	} else {
		log.Warn().Err(err).Msg("max-sharpe solve skipped")
	}
	if len(results) == 0 {
		log.Warn().Msg("both objectives failed, falling back to equal weights")
		results = append(results, p.result(LabelEqualWeight, equalWeights(p.assets())))
	}
	return results
}

// objective is the raw (unpenalized) function being minimized.
type objective struct {
	value func(w []float64) float64
	grad  func(dst, w []float64)
}

func (p Problem) varianceObjective() objective {
	n := p.assets()
	return objective{
		value: func(w []float64) float64 {
			var v float64
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					v += w[i] * w[j] * p.Sigma.At(i, j)
				}
			}
			return v
		},
		grad: func(dst, w []float64) {
			for i := 0; i < n; i++ {
				dst[i] = 0
				for j := 0; j < n; j++ {
					dst[i] += 2 * p.Sigma.At(i, j) * w[j]
				}
			}
		},
	}
}

func (p Problem) negSharpeObjective() objective {
	n := p.assets()
	return objective{
		value: func(w []float64) float64 {
			var ret, v float64
			for i := 0; i < n; i++ {
				ret += p.Mu[i] * w[i]
				for j := 0; j < n; j++ {
					v += w[i] * w[j] * p.Sigma.At(i, j)
				}
			}
			sd := math.Sqrt(math.Max(v, volatilityFloor))
			return -(ret - p.RiskFree) / (sd + 1e-9)
		},
		grad: func(dst, w []float64) {
			var ret, v float64
			for i := 0; i < n; i++ {
				ret += p.Mu[i] * w[i]
				for j := 0; j < n; j++ {
					v += w[i] * w[j] * p.Sigma.At(i, j)
				}
			}
			sd := math.Sqrt(math.Max(v, volatilityFloor))
			for i := 0; i < n; i++ {
				var dv float64
				for j := 0; j < n; j++ {
					dv += 2 * p.Sigma.At(i, j) * w[j]
				}
				dst[i] = -p.Mu[i]/sd + (ret-p.RiskFree)*dv/(2*sd*sd*sd)
			}
		},
	}
}

// solve minimizes obj + penalty terms from the equal-weight start, projecting
// iterates into [0,1] and normalizing the accepted solution onto the budget.
func (p Problem) solve(obj objective, targetReturn *float64) ([]float64, error) {
	n := p.assets()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty problem", ErrDataInsufficient)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w := clampUnit(x)
			val := obj.value(w)
			sum := 0.0
			for _, wi := range w {
				sum += wi
			}
			val += penaltyWeight * (sum - 1) * (sum - 1)
			if targetReturn != nil {
				ret := stats.PortfolioReturn(w, p.Mu)
				val += penaltyWeight * (ret - *targetReturn) * (ret - *targetReturn)
			}
			return val
		},
		Grad: func(grad, x []float64) {
			w := clampUnit(x)
			obj.grad(grad, w)
			sum := 0.0
			for _, wi := range w {
				sum += wi
			}
			for i := range grad {
				grad[i] += 2 * penaltyWeight * (sum - 1)
			}
			if targetReturn != nil {
				ret := stats.PortfolioReturn(w, p.Mu)
				for i := range grad {
					grad[i] += 2 * penaltyWeight * (ret - *targetReturn) * p.Mu[i]
				}
			}
		},
	}

	settings := &optimize.Settings{
		MajorIterations: maxMajorIterations,
		FuncEvaluations: maxFuncEvaluations,
	}
	initial := equalWeights(n)

	result, err := optimize.Minimize(problem, initial, settings, &optimize.BFGS{})
	if err != nil || !converged(result.Status) {
		result, err = optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNonConvergent, err)
		}
		if !converged(result.Status) {
			return nil, fmt.Errorf("%w: status %v", ErrNonConvergent, result.Status)
		}
	}

	w := clampUnit(result.X)
	sum := 0.0
	for _, wi := range w {
		sum += wi
	}
	if sum <= 0 {
		return nil, fmt.Errorf("%w: degenerate zero-weight solution", ErrNonConvergent)
	}
	for i := range w {
		w[i] /= sum
	}
	return w, nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence:
		return true
	}
	return false
}

func clampUnit(x []float64) []float64 {
	w := make([]float64, len(x))
	for i, v := range x {
		w[i] = math.Max(0, math.Min(1, v))
	}
	return w
}

func equalWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}
