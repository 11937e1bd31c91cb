// Package signal computes the trailing-momentum ranking signal.
package signal

import (
	"sort"

	"github.com/quantfolio/quantfolio/internal/panel"
)

// Momentum computes trailing window-over-window simple percentage change,
// mom[t][c] = price[t]/price[t-window] - 1. The first window rows are
// undefined, as is any cell whose lookback touches a gap.
func Momentum(p *panel.Panel, window int) [][]float64 {
	out := make([][]float64, p.Rows())
	for r := 0; r < p.Rows(); r++ {
		row := make([]float64, len(p.Tickers))
		for c := range row {
			if r < window {
				row[c] = panel.Gap()
				continue
			}
			cur, prev := p.Prices[r][c], p.Prices[r-window][c]
			if panel.IsGap(cur) || panel.IsGap(prev) || prev == 0 {
				row[c] = panel.Gap()
				continue
			}
			row[c] = cur/prev - 1
		}
		out[r] = row
	}
	return out
}

// RankDescending assigns cross-sectional ranks to one row of scores, rank 1
// for the highest value. Ties share the average of the positional ranks they
// span, so a tie straddling the selection boundary can admit more or fewer
// names than top_n. Undefined scores get an undefined rank and are excluded
// from ranking.
func RankDescending(scores []float64) []float64 {
	type scored struct {
		idx int
		val float64
	}
	valid := make([]scored, 0, len(scores))
	for i, v := range scores {
		if !panel.IsGap(v) {
			valid = append(valid, scored{i, v})
		}
	}
	sort.SliceStable(valid, func(a, b int) bool { return valid[a].val > valid[b].val })

	ranks := make([]float64, len(scores))
	for i := range ranks {
		ranks[i] = panel.Gap()
	}
	for i := 0; i < len(valid); {
		j := i
		for j < len(valid) && valid[j].val == valid[i].val {
			j++
		}
		// Positions i..j-1 are tied; they share the average rank.
		avg := float64(i+j+1) / 2 // mean of ranks i+1 .. j
		for k := i; k < j; k++ {
			ranks[valid[k].idx] = avg
		}
		i = j
	}
	return ranks
}

// Ranks applies RankDescending to every row of a momentum matrix.
func Ranks(mom [][]float64) [][]float64 {
	out := make([][]float64, len(mom))
	for r, row := range mom {
		out[r] = RankDescending(row)
	}
	return out
}

// SelectTopN builds the selection mask, true where rank <= topN.
func SelectTopN(ranks [][]float64, topN int) [][]bool {
	out := make([][]bool, len(ranks))
	for r, row := range ranks {
		mask := make([]bool, len(row))
		for c, rk := range row {
			mask[c] = !panel.IsGap(rk) && rk <= float64(topN)
		}
		out[r] = mask
	}
	return out
}
