package types

import (
	"context"
	"database/sql"
	"time"
)

// Names of the supported database/sql drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Querier exposes only methods for running SQL queries, and some helper functions.
type Querier interface {
	NewContext() context.Context
	TimeNow() time.Time
	Driver() string
	ExecContext(ctx context.Context, sql string, arguments ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxQuerier is a Querier that can also start transactions. Migration steps are
// applied inside a transaction so a failing step never leaves the schema half
// changed.
type TxQuerier interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
}

// Executor runs statements either directly on a connection or within a
// transaction.
type Executor interface {
	ExecContext(ctx context.Context, sql string, arguments ...any) (sql.Result, error)
}

// Tx is an in-progress transaction.
type Tx interface {
	Executor
	Commit() error
	Rollback() error
}
