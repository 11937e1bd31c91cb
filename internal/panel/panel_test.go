package panel

import (
	"math"
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestNewValidation(t *testing.T) {
	t.Run("rejects_non_increasing_dates", func(t *testing.T) {
		_, err := New([]time.Time{day(1), day(1)}, []string{"AAPL"}, [][]float64{{1}, {2}})
		if err == nil {
			t.Fatal("expected error for duplicate dates")
		}
	})

	t.Run("rejects_duplicate_tickers", func(t *testing.T) {
		_, err := New([]time.Time{day(0)}, []string{"AAPL", "AAPL"}, [][]float64{{1, 2}})
		if err == nil {
			t.Fatal("expected error for duplicate ticker")
		}
	})

	t.Run("rejects_ragged_rows", func(t *testing.T) {
		_, err := New([]time.Time{day(0)}, []string{"AAPL", "MSFT"}, [][]float64{{1}})
		if err == nil {
			t.Fatal("expected error for ragged row")
		}
	})
}

func TestFilterMinHistory(t *testing.T) {
	p, err := New(
		[]time.Time{day(0), day(1), day(2)},
		[]string{"AAPL", "NEWCO", "SPY"},
		[][]float64{
			{100, Gap(), 400},
			{101, Gap(), 401},
			{102, 10, 402},
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	got, dropped := p.FilterMinHistory(3, "SPY")
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(got.Tickers) != 2 || got.Tickers[0] != "AAPL" || got.Tickers[1] != "SPY" {
		t.Errorf("tickers = %v, want [AAPL SPY]", got.Tickers)
	}

	// The benchmark survives even with a short history.
	short, _ := p.FilterMinHistory(100, "SPY")
	if len(short.Tickers) != 1 || short.Tickers[0] != "SPY" {
		t.Errorf("tickers = %v, want [SPY]", short.Tickers)
	}
}

func TestDropIncompleteRows(t *testing.T) {
	p, _ := New(
		[]time.Time{day(0), day(1), day(2)},
		[]string{"A", "B"},
		[][]float64{
			{1, 2},
			{1, Gap()},
			{3, 4},
		},
	)
	got := p.DropIncompleteRows()
	if got.Rows() != 2 {
		t.Fatalf("rows = %d, want 2", got.Rows())
	}
	if !got.Dates[1].Equal(day(2)) {
		t.Errorf("second surviving date = %v, want %v", got.Dates[1], day(2))
	}
}

func TestReturns(t *testing.T) {
	p, _ := New(
		[]time.Time{day(0), day(1), day(2)},
		[]string{"A"},
		[][]float64{{100}, {110}, {99}},
	)
	rets := p.Returns()
	if !IsGap(rets[0][0]) {
		t.Error("first return row should be undefined")
	}
	if math.Abs(rets[1][0]-0.10) > 1e-12 {
		t.Errorf("ret[1] = %v, want 0.10", rets[1][0])
	}
	if math.Abs(rets[2][0]-(-0.10)) > 1e-12 {
		t.Errorf("ret[2] = %v, want -0.10", rets[2][0])
	}
}

func TestColumnAndValidCount(t *testing.T) {
	p, _ := New(
		[]time.Time{day(0), day(1)},
		[]string{"A", "B"},
		[][]float64{{1, Gap()}, {2, 5}},
	)
	col, ok := p.Column("B")
	if !ok {
		t.Fatal("missing column B")
	}
	if !IsGap(col[0]) || col[1] != 5 {
		t.Errorf("column B = %v", col)
	}
	if n := p.ValidCount("B"); n != 1 {
		t.Errorf("ValidCount(B) = %d, want 1", n)
	}
	if _, ok := p.Column("ZZZ"); ok {
		t.Error("unexpected column ZZZ")
	}
}
