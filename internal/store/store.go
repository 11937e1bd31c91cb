// Package store persists closing prices and serves them back as aligned
// panels. The schema is deliberately small: one (date, ticker, close) row per
// observation.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	// Database drivers; the DSN picks one.
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/quantfolio/quantfolio/internal/panel"
)

const dateLayout = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS stock_prices (
	date   TEXT NOT NULL,
	ticker TEXT NOT NULL,
	close  REAL NOT NULL,
	PRIMARY KEY (date, ticker)
)`

// Store wraps the price database.
type Store struct {
	db *sqlx.DB
}

// Open connects to the DSN and ensures the schema exists. A postgres:// URL
// selects the Postgres driver; anything else is treated as a SQLite path.
func Open(dsn string) (*Store, error) {
	driver := "sqlite3"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "postgres"
	} else if dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create %s: %w", dir, err)
			}
		}
	}
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect %s: %w", driver, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// Bar is one closing-price observation.
type Bar struct {
	Date   time.Time
	Ticker string
	Close  float64
}

// SaveBars upserts observations inside one transaction.
func (s *Store) SaveBars(bars []Bar) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	stmt := s.db.Rebind(`INSERT INTO stock_prices (date, ticker, close) VALUES (?, ?, ?)
		ON CONFLICT (date, ticker) DO UPDATE SET close = excluded.close`)
	for _, b := range bars {
		if _, err := tx.Exec(stmt, b.Date.Format(dateLayout), b.Ticker, b.Close); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: save %s %s: %w", b.Ticker, b.Date.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

// ListTickers returns every ticker present in the store, sorted.
func (s *Store) ListTickers() ([]string, error) {
	var tickers []string
	if err := s.db.Select(&tickers, `SELECT DISTINCT ticker FROM stock_prices ORDER BY ticker`); err != nil {
		return nil, fmt.Errorf("store: list tickers: %w", err)
	}
	return tickers, nil
}

type priceRow struct {
	Date   string  `db:"date"`
	Ticker string  `db:"ticker"`
	Close  float64 `db:"close"`
}

// LoadPanel assembles a wide panel for the requested tickers over the union
// of their dates. Missing observations stay explicit gaps; alignment onto a
// complete index is the caller's decision.
func (s *Store) LoadPanel(tickers []string) (*panel.Panel, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("store: no tickers requested")
	}
	query, args, err := sqlx.In(
		`SELECT date, ticker, close FROM stock_prices WHERE ticker IN (?) ORDER BY date`, tickers)
	if err != nil {
		return nil, fmt.Errorf("store: build query: %w", err)
	}
	var rows []priceRow
	if err := s.db.Select(&rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("store: load prices: %w", err)
	}

	dateSet := make(map[string]struct{})
	present := make(map[string]bool)
	for _, r := range rows {
		dateSet[r.Date] = struct{}{}
		present[r.Ticker] = true
	}
	dateKeys := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dateKeys = append(dateKeys, d)
	}
	sort.Strings(dateKeys)

	names := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if present[t] {
			names = append(names, t)
		}
	}

	dates := make([]time.Time, len(dateKeys))
	rowIdx := make(map[string]int, len(dateKeys))
	for i, d := range dateKeys {
		ts, err := time.Parse(dateLayout, d)
		if err != nil {
			return nil, fmt.Errorf("store: bad date %q: %w", d, err)
		}
		dates[i] = ts
		rowIdx[d] = i
	}
	colIdx := make(map[string]int, len(names))
	for i, t := range names {
		colIdx[t] = i
	}

	prices := make([][]float64, len(dates))
	for i := range prices {
		row := make([]float64, len(names))
		for c := range row {
			row[c] = panel.Gap()
		}
		prices[i] = row
	}
	for _, r := range rows {
		prices[rowIdx[r.Date]][colIdx[r.Ticker]] = r.Close
	}

	return panel.New(dates, names, prices)
}
