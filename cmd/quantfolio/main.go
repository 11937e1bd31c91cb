package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagConfig  string
	flagVerbose bool
)

// rootCmd is the base command for the quantfolio CLI
var rootCmd = &cobra.Command{
	Use:   "quantfolio",
	Short: "Quantfolio momentum backtester and portfolio optimizer",
	Long: `Quantfolio is a single-asset-class quantitative research toolkit: it ranks
stocks by trailing momentum behind a market-regime filter, simulates the
strategy's P&L, and solves mean-variance portfolio problems over a candidate
universe (Markowitz frontier plus Monte Carlo exploration).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config/quantfolio.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
}

func setupLogging(verbose bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
