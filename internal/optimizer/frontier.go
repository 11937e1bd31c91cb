package optimizer

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// FrontierPoints is the number of target-return levels swept between the two
// base solutions.
const FrontierPoints = 20

// FrontierPoint is one solved (volatility, return) pair on the efficient
// frontier curve.
type FrontierPoint struct {
	Volatility float64 `json:"volatility"`
	Return     float64 `json:"return"`
}

// Frontier sweeps evenly spaced target returns from the min-volatility
// portfolio's return up to 1.1x the max-Sharpe portfolio's return, solving
// minimum variance at each target. Targets whose solve fails are skipped:
// the curve may have gaps but is never extrapolated. The per-target solves
// are independent and run concurrently.
func Frontier(ctx context.Context, p Problem, minVol, maxSharpe Result) []FrontierPoint {
	lo := minVol.Return
	hi := maxSharpe.Return * 1.1

	targets := make([]float64, FrontierPoints)
	for i := range targets {
		targets[i] = lo + (hi-lo)*float64(i)/float64(FrontierPoints-1)
	}

	points := make([]*FrontierPoint, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w, err := p.minVarianceAtReturn(target)
			if err != nil {
				log.Debug().Err(err).Float64("target_return", target).Msg("frontier point skipped")
				return nil
			}
			r := p.result("", w)
			points[i] = &FrontierPoint{Volatility: r.Volatility, Return: target}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("frontier sweep interrupted")
	}

	out := make([]FrontierPoint, 0, len(points))
	for _, pt := range points {
		if pt != nil {
			out = append(out, *pt)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Return < out[b].Return })
	return out
}
