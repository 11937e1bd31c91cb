// Package report turns engine results into the artifacts a reporting layer
// consumes: weight tables, chart-ready CSV series and rendered PNG charts.
// Each run writes under its own uuid-tagged directory.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/internal/optimizer"
)

// WeightThreshold drops dust positions from exported weight tables.
const WeightThreshold = 0.0001

// WeightRow is one exported allocation line.
type WeightRow struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

// WeightTable filters weights above the export threshold and sorts them
// descending.
func WeightTable(tickers []string, weights []float64) []WeightRow {
	rows := make([]WeightRow, 0, len(tickers))
	for i, t := range tickers {
		if weights[i] > WeightThreshold {
			rows = append(rows, WeightRow{Ticker: t, Weight: weights[i]})
		}
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].Weight > rows[b].Weight })
	return rows
}

// Writer lays run artifacts out under baseDir/<run-id>/.
type Writer struct {
	RunID string
	Dir   string
}

// NewWriter creates the run directory.
func NewWriter(baseDir string) (*Writer, error) {
	id := uuid.NewString()
	dir := filepath.Join(baseDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create %s: %w", dir, err)
	}
	return &Writer{RunID: id, Dir: dir}, nil
}

// WriteBacktest exports the metrics record, the NAV/drawdown series and the
// rendered NAV chart.
func (w *Writer) WriteBacktest(res *backtest.Result) error {
	if err := w.writeJSON("metrics.json", res.Metrics); err != nil {
		return err
	}
	rows := make([][]string, 0, len(res.Dates)+1)
	rows = append(rows, []string{"date", "nav", "benchmark_nav", "drawdown"})
	for i, d := range res.Dates {
		rows = append(rows, []string{
			d.Format("2006-01-02"),
			formatFloat(res.NAV[i]),
			formatFloat(res.BenchmarkNAV[i]),
			formatFloat(res.Drawdown[i]),
		})
	}
	if err := w.writeCSV("nav.csv", rows); err != nil {
		return err
	}

	// Chart failures never void the numerical artifacts.
	if png, err := RenderNAVChart(res.Dates, res.NAV, res.BenchmarkNAV); err != nil {
		log.Warn().Err(err).Msg("NAV chart rendering failed")
	} else if err := w.writeFile("nav.png", png); err != nil {
		return err
	}
	if png, err := RenderDrawdownChart(res.Dates, res.Drawdown); err != nil {
		log.Warn().Err(err).Msg("drawdown chart rendering failed")
	} else if err := w.writeFile("drawdown.png", png); err != nil {
		return err
	}
	return nil
}

// WriteOptimization exports the weight tables, the Monte Carlo cloud, the
// frontier polyline and the frontier chart.
func (w *Writer) WriteOptimization(results []optimizer.Result, cloud []optimizer.CloudPoint, frontier []optimizer.FrontierPoint) error {
	for _, r := range results {
		table := WeightTable(r.Tickers, r.Weights)
		rows := make([][]string, 0, len(table)+1)
		rows = append(rows, []string{"ticker", "weight"})
		for _, row := range table {
			rows = append(rows, []string{row.Ticker, formatFloat(row.Weight)})
		}
		if err := w.writeCSV("weights_"+slug(r.Label)+".csv", rows); err != nil {
			return err
		}
	}

	cloudRows := make([][]string, 0, len(cloud)+1)
	cloudRows = append(cloudRows, []string{"volatility", "return", "sharpe"})
	for _, pt := range cloud {
		cloudRows = append(cloudRows, []string{
			formatFloat(pt.Volatility), formatFloat(pt.Return), formatFloat(pt.Sharpe),
		})
	}
	if err := w.writeCSV("montecarlo.csv", cloudRows); err != nil {
		return err
	}

	if len(frontier) > 0 {
		frontierRows := make([][]string, 0, len(frontier)+1)
		frontierRows = append(frontierRows, []string{"volatility", "return"})
		for _, pt := range frontier {
			frontierRows = append(frontierRows, []string{formatFloat(pt.Volatility), formatFloat(pt.Return)})
		}
		if err := w.writeCSV("frontier.csv", frontierRows); err != nil {
			return err
		}
		png, err := RenderFrontierChart(frontier, results)
		if err != nil {
			log.Warn().Err(err).Msg("frontier chart rendering failed")
			return nil
		}
		return w.writeFile("frontier.png", png)
	}
	return nil
}

func (w *Writer) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal %s: %w", name, err)
	}
	return w.writeFile(name, data)
}

func (w *Writer) writeCSV(name string, rows [][]string) error {
	f, err := os.Create(filepath.Join(w.Dir, name))
	if err != nil {
		return fmt.Errorf("report: create %s: %w", name, err)
	}
	defer f.Close()
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("report: write %s: %w", name, err)
	}
	return nil
}

func (w *Writer) writeFile(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(w.Dir, name), data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", name, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func slug(label string) string {
	out := make([]rune, 0, len(label))
	for _, r := range label {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+'a'-'A')
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			out = append(out, r)
		case r == ' ':
			out = append(out, '_')
		}
	}
	return string(out)
}

func dateLabels(dates []time.Time) []string {
	labels := make([]string, len(dates))
	for i, d := range dates {
		labels[i] = d.Format("2006-01-02")
	}
	return labels
}
