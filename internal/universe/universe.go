// Package universe cleans the raw ticker list before it reaches the engine.
package universe

// DefaultBlocklist lists instruments that live in the price store but must
// never enter the tradable universe: benchmark ETFs, macro/FRED series and
// the internal factor columns.
func DefaultBlocklist() map[string]struct{} {
	names := []string{
		// Benchmark ETFs
		"SPY", "QQQ", "IWM", "DIA",
		// Macro series
		"^VIX", "^TNX", "DGS10", "DGS3MO", "T5YIE",
		// Factor columns stored alongside prices
		"smb", "hml", "mom", "mkt",
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Filter removes blocklisted entries from tickers, preserving order. An empty
// input yields an empty output; the caller decides whether that is fatal.
func Filter(tickers []string, blocklist map[string]struct{}) []string {
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if _, blocked := blocklist[t]; blocked {
			continue
		}
		out = append(out, t)
	}
	return out
}
