package signal

import (
	"math"
	"testing"
	"time"

	"github.com/quantfolio/quantfolio/internal/panel"
)

func makePanel(t *testing.T, tickers []string, prices [][]float64) *panel.Panel {
	t.Helper()
	dates := make([]time.Time, len(prices))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = base.AddDate(0, 0, i)
	}
	p, err := panel.New(dates, tickers, prices)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestMomentum(t *testing.T) {
	p := makePanel(t, []string{"A", "B"}, [][]float64{
		{100, 50},
		{110, 50},
		{121, 40},
	})
	mom := Momentum(p, 2)

	if !panel.IsGap(mom[0][0]) || !panel.IsGap(mom[1][0]) {
		t.Error("rows before the window should be undefined")
	}
	if math.Abs(mom[2][0]-0.21) > 1e-12 {
		t.Errorf("mom A = %v, want 0.21", mom[2][0])
	}
	if math.Abs(mom[2][1]-(-0.20)) > 1e-12 {
		t.Errorf("mom B = %v, want -0.20", mom[2][1])
	}
}

func TestRankDescending(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   []float64
	}{
		{"plain", []float64{0.3, 0.1, 0.2}, []float64{1, 3, 2}},
		{"two_way_tie", []float64{0.5, 0.5, 0.1}, []float64{1.5, 1.5, 3}},
		{"three_way_tie", []float64{0.2, 0.2, 0.2}, []float64{2, 2, 2}},
		{"gap_excluded", []float64{0.3, math.NaN(), 0.2}, []float64{1, math.NaN(), 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankDescending(tt.scores)
			for i := range tt.want {
				switch {
				case math.IsNaN(tt.want[i]):
					if !panel.IsGap(got[i]) {
						t.Errorf("rank[%d] = %v, want gap", i, got[i])
					}
				case math.Abs(got[i]-tt.want[i]) > 1e-12:
					t.Errorf("rank[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// A tie exactly at the top_n boundary follows the average-rank convention:
// with top_n=1 and two equal leaders both carry rank 1.5, selecting nobody.
func TestSelectTopNBoundaryTie(t *testing.T) {
	ranks := [][]float64{RankDescending([]float64{0.5, 0.5, 0.1})}

	mask := SelectTopN(ranks, 1)
	if mask[0][0] || mask[0][1] || mask[0][2] {
		t.Errorf("top_n=1 with a two-way leader tie should select nobody, got %v", mask[0])
	}

	mask = SelectTopN(ranks, 2)
	if !mask[0][0] || !mask[0][1] || mask[0][2] {
		t.Errorf("top_n=2 should select both tied leaders, got %v", mask[0])
	}
}

// Scenario from the strategy contract: three tickers, top_n=1. Wherever A's
// trailing return strictly exceeds B's and C's, A is the sole selection.
func TestTopPickIsStrictWinner(t *testing.T) {
	const days = 300
	const window = 126
	prices := make([][]float64, days)
	for i := range prices {
		// A trends up hard, B drifts, C decays.
		prices[i] = []float64{
			100 * math.Pow(1.002, float64(i)),
			100 * math.Pow(1.0005, float64(i)),
			100 * math.Pow(0.999, float64(i)),
		}
	}
	p := makePanel(t, []string{"A", "B", "C"}, prices)

	mom := Momentum(p, window)
	mask := SelectTopN(Ranks(mom), 1)

	for r := window; r < days; r++ {
		if mom[r][0] > mom[r][1] && mom[r][0] > mom[r][2] {
			if !mask[r][0] || mask[r][1] || mask[r][2] {
				t.Fatalf("day %d: want sole selection A, got %v", r, mask[r])
			}
		}
	}
}
