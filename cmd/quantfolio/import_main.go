package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantfolio/quantfolio/internal/config"
	"github.com/quantfolio/quantfolio/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Load daily close prices from CSV files into the price store",
	Long: `Import reads one or more CSV files with a date,ticker,close header and
upserts the rows into the configured price store. Re-importing the same
file is safe; existing observations are overwritten in place.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer s.Close()

	total := 0
	for _, path := range args {
		bars, err := readBars(path)
		if err != nil {
			return err
		}
		if err := s.SaveBars(bars); err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		log.Info().Str("file", path).Int("rows", len(bars)).Msg("imported price file")
		total += len(bars)
	}
	fmt.Printf("Imported %d observations from %d file(s)\n", total, len(args))
	return nil
}

func readBars(path string) ([]store.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("import %s: read header: %w", path, err)
	}
	if header[0] != "date" || header[1] != "ticker" || header[2] != "close" {
		return nil, fmt.Errorf("import %s: want header date,ticker,close, got %v", path, header)
	}

	var bars []store.Bar
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", path, err)
		}
		line++
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return nil, fmt.Errorf("import %s line %d: bad date %q", path, line, rec[0])
		}
		px, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("import %s line %d: bad close %q", path, line, rec[2])
		}
		if px <= 0 {
			return nil, fmt.Errorf("import %s line %d: non-positive close %v", path, line, px)
		}
		bars = append(bars, store.Bar{Date: date, Ticker: rec[1], Close: px})
	}
	return bars, nil
}
