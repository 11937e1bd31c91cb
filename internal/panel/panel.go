// Package panel holds the in-memory price panel the quant engine operates on.
// A Panel is an immutable snapshot: every derivation returns a fresh value and
// never mutates its receiver, so the backtest and optimization paths can share
// one input without coupling.
package panel

import (
	"fmt"
	"math"
	"time"
)

// Gap marks a missing observation inside a panel row. Missing prices are
// explicit gaps, never zero.
func Gap() float64 { return math.NaN() }

// IsGap reports whether v is a missing observation.
func IsGap(v float64) bool { return math.IsNaN(v) }

// Panel is a date-indexed, ticker-keyed table of closing prices. Rows follow
// Dates, columns follow Tickers. Dates are strictly increasing and each
// (date, ticker) pair appears at most once.
type Panel struct {
	Dates   []time.Time
	Tickers []string
	Prices  [][]float64 // Prices[row][col], Gap() where no close exists

	cols map[string]int
}

// New validates and assembles a panel. Prices must have one row per date and
// one column per ticker.
func New(dates []time.Time, tickers []string, prices [][]float64) (*Panel, error) {
	if len(prices) != len(dates) {
		return nil, fmt.Errorf("panel: %d price rows for %d dates", len(prices), len(dates))
	}
	for i, row := range prices {
		if len(row) != len(tickers) {
			return nil, fmt.Errorf("panel: row %d has %d cells for %d tickers", i, len(row), len(tickers))
		}
	}
	cols := make(map[string]int, len(tickers))
	for i, t := range tickers {
		if _, dup := cols[t]; dup {
			return nil, fmt.Errorf("panel: duplicate ticker %q", t)
		}
		cols[t] = i
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("panel: dates not strictly increasing at row %d (%s)", i, dates[i].Format("2006-01-02"))
		}
	}
	return &Panel{Dates: dates, Tickers: tickers, Prices: prices, cols: cols}, nil
}

// Rows returns the number of trading days in the panel.
func (p *Panel) Rows() int { return len(p.Dates) }

// Column returns the price series for one ticker.
func (p *Panel) Column(ticker string) ([]float64, bool) {
	c, ok := p.cols[ticker]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(p.Prices))
	for r := range p.Prices {
		out[r] = p.Prices[r][c]
	}
	return out, true
}

// ValidCount returns the number of non-gap observations for a ticker, the
// panel's notion of trading history length.
func (p *Panel) ValidCount(ticker string) int {
	c, ok := p.cols[ticker]
	if !ok {
		return 0
	}
	n := 0
	for r := range p.Prices {
		if !IsGap(p.Prices[r][c]) {
			n++
		}
	}
	return n
}

// Select returns a panel restricted to the given tickers, keeping only names
// the panel actually has. Column order follows the request.
func (p *Panel) Select(tickers []string) *Panel {
	keep := make([]int, 0, len(tickers))
	names := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if c, ok := p.cols[t]; ok {
			keep = append(keep, c)
			names = append(names, t)
		}
	}
	prices := make([][]float64, len(p.Prices))
	for r := range p.Prices {
		row := make([]float64, len(keep))
		for i, c := range keep {
			row[i] = p.Prices[r][c]
		}
		prices[r] = row
	}
	cols := make(map[string]int, len(names))
	for i, t := range names {
		cols[t] = i
	}
	return &Panel{Dates: p.Dates, Tickers: names, Prices: prices, cols: cols}
}

// FilterMinHistory drops tickers with fewer than minDays valid observations.
// Tickers listed in keep survive regardless (the benchmark must not be dropped
// by the history filter). Short-history names are removed entirely, never
// partially included.
func (p *Panel) FilterMinHistory(minDays int, keep ...string) (*Panel, int) {
	always := make(map[string]bool, len(keep))
	for _, t := range keep {
		always[t] = true
	}
	names := make([]string, 0, len(p.Tickers))
	dropped := 0
	for _, t := range p.Tickers {
		if always[t] || p.ValidCount(t) >= minDays {
			names = append(names, t)
		} else {
			dropped++
		}
	}
	return p.Select(names), dropped
}

// DropIncompleteRows removes every row containing at least one gap, aligning
// all remaining series onto a common complete date index.
func (p *Panel) DropIncompleteRows() *Panel {
	dates := make([]time.Time, 0, len(p.Dates))
	prices := make([][]float64, 0, len(p.Prices))
	for r, row := range p.Prices {
		complete := true
		for _, v := range row {
			if IsGap(v) {
				complete = false
				break
			}
		}
		if complete {
			dates = append(dates, p.Dates[r])
			prices = append(prices, row)
		}
	}
	cols := make(map[string]int, len(p.Tickers))
	for i, t := range p.Tickers {
		cols[t] = i
	}
	return &Panel{Dates: dates, Tickers: p.Tickers, Prices: prices, cols: cols}
}

// Returns computes simple daily returns, ret[t] = price[t]/price[t-1] - 1.
// Row 0 is undefined and carries gaps, as does any step touching a gap.
func (p *Panel) Returns() [][]float64 {
	out := make([][]float64, len(p.Prices))
	for r := range p.Prices {
		row := make([]float64, len(p.Tickers))
		for c := range row {
			if r == 0 || IsGap(p.Prices[r][c]) || IsGap(p.Prices[r-1][c]) || p.Prices[r-1][c] == 0 {
				row[c] = Gap()
				continue
			}
			row[c] = p.Prices[r][c]/p.Prices[r-1][c] - 1
		}
		out[r] = row
	}
	return out
}
