package optimizer

import (
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/quantfolio/quantfolio/internal/stats"
)

// DefaultDraws is the size of the exploratory Monte Carlo cloud.
const DefaultDraws = 5000

// CloudPoint is one randomly sampled feasible portfolio, kept for
// visualization only; the sampler never picks a final portfolio.
type CloudPoint struct {
	Volatility float64 `json:"volatility"`
	Return     float64 `json:"return"`
	Sharpe     float64 `json:"sharpe"`
}

// MonteCarlo draws random long-only weight vectors by sampling uniforms and
// normalizing them to sum to 1 (not uniform over the simplex's natural
// measure, deliberately so). The caller supplies the random source, so seeded
// runs reproduce exactly; chunk seeds derive from it deterministically and
// the draw work runs in parallel per chunk.
func MonteCarlo(p Problem, draws int, rng *rand.Rand) []CloudPoint {
	n := p.assets()
	if n == 0 || draws <= 0 {
		return nil
	}

	const chunks = 4
	seeds := make([]int64, chunks)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	out := make([]CloudPoint, draws)
	per := (draws + chunks - 1) / chunks
	var g errgroup.Group
	for c := 0; c < chunks; c++ {
		lo := c * per
		hi := min(lo+per, draws)
		if lo >= hi {
			continue
		}
		seed := seeds[c]
		g.Go(func() error {
			local := rand.New(rand.NewSource(seed))
			for d := lo; d < hi; d++ {
				w := randomWeights(n, local)
				out[d] = CloudPoint{
					Volatility: stats.PortfolioVolatility(w, p.Sigma),
					Return:     stats.PortfolioReturn(w, p.Mu),
					Sharpe:     stats.PortfolioSharpe(w, p.Mu, p.Sigma, p.RiskFree),
				}
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never fail
	return out
}

// randomWeights samples n uniforms and normalizes them onto the budget.
func randomWeights(n int, rng *rand.Rand) []float64 {
	w := make([]float64, n)
	sum := 0.0
	for i := range w {
		w[i] = rng.Float64()
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// SampleUniverse caps an oversized candidate list by drawing max names at
// random, preserving nothing but feasible runtime; smaller lists pass
// through untouched.
func SampleUniverse(tickers []string, max int, rng *rand.Rand) []string {
	if len(tickers) <= max {
		return tickers
	}
	idx := rng.Perm(len(tickers))[:max]
	out := make([]string, 0, max)
	for _, i := range idx {
		out = append(out, tickers[i])
	}
	return out
}
