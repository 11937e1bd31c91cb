package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantfolio/quantfolio/internal/config"
	"github.com/quantfolio/quantfolio/internal/optimizer"
	"github.com/quantfolio/quantfolio/internal/report"
	"github.com/quantfolio/quantfolio/internal/store"
	"github.com/quantfolio/quantfolio/internal/universe"
)

var flagSeed int64

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Solve the mean-variance portfolios and sweep the efficient frontier",
	Long: `Optimize solves the minimum-volatility and maximum-Sharpe portfolios over
the candidate universe, sweeps the efficient frontier between them, and draws
the Monte Carlo cloud used to contextualize it. Pass --seed for a
reproducible run; the default is non-reproducible.`,
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().Int64Var(&flagSeed, "seed", 0, "Random seed (0 uses the clock)")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	seed := flagSeed
	if seed == 0 {
		seed = cfg.Optimizer.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	s, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer s.Close()

	tickers, err := s.ListTickers()
	if err != nil {
		return err
	}
	candidates := universe.Filter(tickers, blocklist(cfg))
	if len(candidates) == 0 {
		return fmt.Errorf("universe is empty after exclusions, nothing to optimize")
	}
	sampled := optimizer.SampleUniverse(candidates, cfg.Optimizer.MaxAssets, rng)
	if len(sampled) < len(candidates) {
		log.Info().Int("from", len(candidates)).Int("to", len(sampled)).Msg("sub-sampled candidate universe")
	}

	p, err := s.LoadPanel(sampled)
	if err != nil {
		return err
	}
	aligned := p.DropIncompleteRows()

	problem, err := optimizer.FromReturns(aligned.Tickers, aligned.Returns(), cfg.Optimizer.RiskFreeRate)
	if err != nil {
		return err
	}

	results := problem.Solve()

	var frontier []optimizer.FrontierPoint
	var minVol, maxSharpe *optimizer.Result
	for i := range results {
		switch results[i].Label {
		case optimizer.LabelMinVolatility:
			minVol = &results[i]
		case optimizer.LabelMaxSharpe:
			maxSharpe = &results[i]
		}
	}
	if minVol != nil && maxSharpe != nil {
		frontier = optimizer.Frontier(cmd.Context(), problem, *minVol, *maxSharpe)
		log.Info().Int("points", len(frontier)).Msg("efficient frontier solved")
	}

	cloud := optimizer.MonteCarlo(problem, cfg.Optimizer.MonteCarloRuns, rng)

	w, err := report.NewWriter(cfg.OutputDir)
	if err != nil {
		return err
	}
	if err := w.WriteOptimization(results, cloud, frontier); err != nil {
		return err
	}

	fmt.Printf("Optimization %s (%d assets, seed %d)\n", w.RunID, len(aligned.Tickers), seed)
	for _, r := range results {
		fmt.Printf("  %-14s ret %.1f%%  vol %.1f%%  sharpe %.2f\n",
			r.Label, r.Return*100, r.Volatility*100, r.Sharpe)
	}
	fmt.Printf("  Artifacts: %s\n", w.Dir)
	return nil
}
