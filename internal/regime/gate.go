// Package regime derives the binary market-exposure gate from a benchmark
// price series.
package regime

import "github.com/quantfolio/quantfolio/internal/panel"

// DefaultMAWindow is the trailing simple-moving-average lookback, in trading
// days, behind the long/flat switch.
const DefaultMAWindow = 200

// State is the gate value for one trading day.
type State int

const (
	Flat State = iota
	Long
)

func (s State) String() string {
	if s == Long {
		return "long"
	}
	return "flat"
}

// SMA computes the trailing simple moving average of prices. The first
// window-1 entries are undefined.
func SMA(prices []float64, window int) []float64 {
	out := make([]float64, len(prices))
	var sum float64
	for i, v := range prices {
		sum += v
		if i >= window {
			sum -= prices[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = panel.Gap()
		}
	}
	return out
}

// Gate computes the effective exposure gate for each trading day: raw[t] is
// Long while the benchmark closes above its trailing MA, and the effective
// gate applies yesterday's raw state, gate[t] = raw[t-1], so no trading day
// uses information from its own close.
//
// While the MA is still undefined (the first window rows) the gate reads
// Long: the strategy stays invested until the average exists.
func Gate(benchmark []float64, window int) []State {
	ma := SMA(benchmark, window)
	raw := make([]State, len(benchmark))
	for t := range benchmark {
		if panel.IsGap(ma[t]) {
			raw[t] = Long
			continue
		}
		if benchmark[t] > ma[t] {
			raw[t] = Long
		} else {
			raw[t] = Flat
		}
	}
	gate := make([]State, len(benchmark))
	for t := range gate {
		if t == 0 {
			gate[t] = Long
			continue
		}
		gate[t] = raw[t-1]
	}
	return gate
}
