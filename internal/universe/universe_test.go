package universe

import (
	"reflect"
	"testing"
)

func TestFilter(t *testing.T) {
	block := DefaultBlocklist()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty", nil, []string{}},
		{"no_blocked", []string{"AAPL", "MSFT"}, []string{"AAPL", "MSFT"}},
		{"drops_benchmark_and_macro", []string{"SPY", "AAPL", "^VIX", "NVDA", "DGS3MO"}, []string{"AAPL", "NVDA"}},
		{"drops_factor_columns", []string{"smb", "hml", "JPM", "mom", "mkt"}, []string{"JPM"}},
		{"order_preserved", []string{"NVDA", "QQQ", "AAPL"}, []string{"NVDA", "AAPL"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(tt.in, block)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFilterCustomBlocklist(t *testing.T) {
	block := map[string]struct{}{"AAPL": {}}
	got := Filter([]string{"AAPL", "MSFT"}, block)
	if len(got) != 1 || got[0] != "MSFT" {
		t.Errorf("Filter = %v, want [MSFT]", got)
	}
}
