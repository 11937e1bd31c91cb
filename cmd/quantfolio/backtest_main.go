package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/internal/config"
	"github.com/quantfolio/quantfolio/internal/report"
	"github.com/quantfolio/quantfolio/internal/store"
	"github.com/quantfolio/quantfolio/internal/universe"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the momentum strategy simulation over the stored price history",
	Long: `Backtest ranks every eligible stock by trailing momentum, holds the top
names equally weighted behind the benchmark's 200-day regime gate, nets out
transaction costs, and reports annualized return, Sharpe, drawdown and win
rate. Artifacts land under a uuid-tagged run directory.`,
	RunE: runBacktest,
}

func init() {
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer s.Close()

	tickers, err := s.ListTickers()
	if err != nil {
		return err
	}
	tradable := universe.Filter(tickers, blocklist(cfg))
	if len(tradable) == 0 {
		return fmt.Errorf("universe is empty after exclusions, nothing to backtest")
	}
	log.Info().Int("raw", len(tickers)).Int("clean", len(tradable)).Msg("scanning universe")

	p, err := s.LoadPanel(append(tradable, cfg.Benchmark))
	if err != nil {
		return err
	}

	res, err := backtest.Run(p, cfg.Benchmark, cfg.Backtest)
	if err != nil {
		return err
	}

	w, err := report.NewWriter(cfg.OutputDir)
	if err != nil {
		return err
	}
	if err := w.WriteBacktest(res); err != nil {
		return err
	}

	m := res.Metrics
	fmt.Printf("Backtest %s (%d tickers, %d days)\n", w.RunID, len(res.Tickers), len(res.Dates))
	fmt.Printf("  CAGR: %.1f%%  Sharpe: %.2f  MaxDD: %.1f%%  WinRate: %.1f%%\n",
		m.AnnualizedReturn*100, m.Sharpe, m.MaxDrawdown*100, m.WinRate*100)
	fmt.Printf("  Artifacts: %s\n", w.Dir)
	return nil
}

func blocklist(cfg config.Config) map[string]struct{} {
	block := universe.DefaultBlocklist()
	for _, t := range cfg.Blocklist {
		block[t] = struct{}{}
	}
	// The benchmark never trades, whatever it is named.
	block[cfg.Benchmark] = struct{}{}
	return block
}
