package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"sunrise/internal/adapters/perf"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy it.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*TimedDB)(nil)
)

// DefaultSlowQuery is the threshold above which a query is logged at WARN.
const DefaultSlowQuery = 50 * time.Millisecond

// TimedDB wraps a *sql.DB, logging slow queries and recording every call to a collector.
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	slowMs    float64
}

// NewTimedDB wraps db. A zero slow threshold falls back to DefaultSlowQuery; collector may be nil.
// PRE: db is a valid database connection
// POST: returns a TimedDB ready to hand to store constructors
func NewTimedDB(db *sql.DB, collector *perf.Collector, slow time.Duration) *TimedDB {
	if slow <= 0 {
		slow = DefaultSlowQuery
	}
	return &TimedDB{db: db, collector: collector, slowMs: float64(slow.Microseconds()) / 1000.0}
}

// RawDB returns the underlying connection for schema setup and pool tuning.
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

func (t *TimedDB) observe(op string, start time.Time, err error) {
	status := 0
	if err != nil && err != sql.ErrNoRows {
		status = -1
	}
	ms := t.collector.Observe(perf.KindQuery, op, status, start)
	switch {
	case err != nil && status < 0:
		slog.Warn("query_failed", "op", op, "duration_ms", ms, "error", err)
	case ms >= t.slowMs:
		slog.Warn("slow_query", "op", op, "duration_ms", ms)
	default:
		slog.Debug("query", "op", op, "duration_ms", ms)
	}
}

// ExecContext runs a statement with timing.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, query, args...)
	t.observe("ExecContext", start, err)
	return result, err
}

// QueryContext runs a query with timing.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.observe("QueryContext", start, err)
	return rows, err
}

// QueryRowContext runs a single-row query with timing. Scan errors are not visible here.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe("QueryRowContext", start, row.Err())
	return row
}

// BeginTx starts a transaction with timing.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.observe("BeginTx", start, err)
	return tx, err
}

// Close closes the underlying connection.
func (t *TimedDB) Close() error {
	return t.db.Close()
}
