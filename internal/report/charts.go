package report

import (
	"fmt"
	"time"

	"github.com/vicanso/go-charts/v2"

	"github.com/quantfolio/quantfolio/internal/optimizer"
)

// RenderNAVChart draws the strategy NAV against the benchmark NAV.
func RenderNAVChart(dates []time.Time, nav, benchmark []float64) ([]byte, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("report: no data to chart")
	}
	painter, err := charts.LineRender([][]float64{nav, benchmark},
		charts.TitleTextOptionFunc("Strategy vs Benchmark (NAV, base 100)"),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        dateLabels(dates),
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: 10,
		}),
		charts.LegendOptionFunc(charts.LegendOption{Data: []string{"Strategy", "Benchmark"}}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("report: render NAV chart: %w", err)
	}
	return painter.Bytes()
}

// RenderDrawdownChart draws the strategy's drawdown series.
func RenderDrawdownChart(dates []time.Time, drawdown []float64) ([]byte, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("report: no data to chart")
	}
	painter, err := charts.LineRender([][]float64{drawdown},
		charts.TitleTextOptionFunc("Strategy Drawdown"),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        dateLabels(dates),
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: 10,
		}),
		charts.LegendOptionFunc(charts.LegendOption{Data: []string{"Drawdown"}}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("report: render drawdown chart: %w", err)
	}
	return painter.Bytes()
}

// RenderFrontierChart draws the efficient-frontier polyline in
// (volatility, return) space; solved portfolios appear as their own
// single-point series.
func RenderFrontierChart(frontier []optimizer.FrontierPoint, results []optimizer.Result) ([]byte, error) {
	if len(frontier) == 0 {
		return nil, fmt.Errorf("report: empty frontier")
	}
	labels := make([]string, len(frontier))
	values := [][]float64{make([]float64, len(frontier))}
	names := []string{"Efficient Frontier"}
	for i, pt := range frontier {
		labels[i] = fmt.Sprintf("%.1f%%", pt.Volatility*100)
		values[0][i] = pt.Return
	}
	subtitle := ""
	for i, r := range results {
		if i > 0 {
			subtitle += "  "
		}
		subtitle += fmt.Sprintf("%s: ret %.1f%% vol %.1f%%", r.Label, r.Return*100, r.Volatility*100)
	}
	painter, err := charts.LineRender(values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Efficient Frontier (%d points)", len(frontier)), subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: 8,
		}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("report: render frontier chart: %w", err)
	}
	return painter.Bytes()
}
