package backtest

import "github.com/quantfolio/quantfolio/internal/regime"

// Weights converts the selection mask into target portfolio weights: an equal
// split across the names selected in a row, then the whole row zeroed when
// the regime gate is flat. Exposure is all or nothing; there is no partial
// de-risking. Every row sums to 0 or 1 and no entry is negative.
func Weights(mask [][]bool, gate []regime.State) [][]float64 {
	out := make([][]float64, len(mask))
	for r, row := range mask {
		w := make([]float64, len(row))
		if gate[r] == regime.Flat {
			out[r] = w
			continue
		}
		count := 0
		for _, sel := range row {
			if sel {
				count++
			}
		}
		if count == 0 {
			out[r] = w
			continue
		}
		for c, sel := range row {
			if sel {
				w[c] = 1 / float64(count)
			}
		}
		out[r] = w
	}
	return out
}

// Turnover is the total absolute weight change between consecutive rows. Row
// 0 is measured against an all-zero book, so the first allocation counts as a
// full buy.
func Turnover(weights [][]float64) []float64 {
	out := make([]float64, len(weights))
	for r, row := range weights {
		var sum float64
		for c, w := range row {
			prev := 0.0
			if r > 0 {
				prev = weights[r-1][c]
			}
			d := w - prev
			if d < 0 {
				d = -d
			}
			sum += d
		}
		out[r] = sum
	}
	return out
}
