package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/glebarez/go-sqlite"
	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/jackc/pgx/v5/stdlib"

	"go.shoplens.io/shoplens/db/migrator"
	"go.shoplens.io/shoplens/db/types"
)

// DB wraps sql.DB with additional context and migration functionality.
type DB struct {
	*sql.DB
	ctx     context.Context
	timeNow func() time.Time
	uri     string
	driver  string
	chain   *migrator.Chain
}

var _ types.TxQuerier = (*DB)(nil)

// Open creates and configures a new database connection with migrations
// support. The driver is selected from the URI: postgres:// and postgresql://
// URIs connect via pgx, everything else is treated as a SQLite path or DSN.
func Open(
	ctx context.Context, uri string, timeNow func() time.Time,
	migrations []*migrator.Migration,
) (*DB, error) {
	driver := types.DriverSQLite
	if strings.HasPrefix(uri, "postgres://") || strings.HasPrefix(uri, "postgresql://") {
		driver = types.DriverPostgres
	}

	var d *DB
	if driver == types.DriverSQLite &&
		(strings.Contains(uri, "mode=memory") || strings.Contains(uri, ":memory:")) {
		defer func() {
			if d != nil {
				// See https://github.com/mattn/go-sqlite3#faq
				d.SetMaxIdleConns(10)
				d.SetConnMaxLifetime(time.Duration(math.Inf(1)))
			}
		}()
	}

	sqlDB, err := sql.Open(driver, uri)
	if err != nil {
		return nil, fmt.Errorf("failed opening database: %w", err)
	}

	d = &DB{DB: sqlDB, ctx: ctx, timeNow: timeNow, uri: uri, driver: driver}

	if driver == types.DriverSQLite {
		// Migrations execute strictly sequentially, and the pragma below only
		// applies to the session it runs on, so keep everything on a single
		// connection.
		d.SetMaxOpenConns(1)

		// Enable foreign key enforcement
		if _, err = d.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
			return nil, fmt.Errorf("failed enabling foreign key enforcement: %w", err)
		}
	}

	chain, err := migrator.NewChain(migrations)
	if err != nil {
		return nil, err
	}
	d.chain = chain

	return d, nil
}

// Chain returns the validated migration chain loaded into this database.
func (d *DB) Chain() *migrator.Chain {
	return d.chain
}

// CurrentRevision returns the currently applied schema revision, or an empty
// string if the store is unmigrated.
func (d *DB) CurrentRevision() (string, error) {
	return migrator.Current(d, d.chain)
}

// Driver returns the name of the database/sql driver in use.
func (d *DB) Driver() string {
	return d.driver
}

// Migrate moves the schema to the target revision in the given direction, and
// returns the revision applied afterwards.
func (d *DB) Migrate(
	dir migrator.Direction, target string, logger *slog.Logger,
) (string, error) {
	// The URI may embed credentials, so only the driver name is logged.
	return migrator.Run(d, d.chain, dir, target, logger.With("driver", d.driver))
}

// NewContext returns a new child context of the main database context.
func (d *DB) NewContext() context.Context {
	// TODO: Return cancel func?
	ctx, _ := context.WithCancel(d.ctx) //nolint:govet // I'll handle this later...
	return ctx
}

// TimeNow returns the current system time.
func (d *DB) TimeNow() time.Time {
	return d.timeNow()
}

// Begin starts a transaction whose statements go through the same placeholder
// rebinding as the connection itself.
func (d *DB) Begin(ctx context.Context) (types.Tx, error) {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx, rebind: d.rebind}, nil
}

// ExecContext runs a statement after rebinding its placeholders for the
// active driver.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.DB.ExecContext(ctx, d.rebind(query), args...)
}

// QueryContext runs a query after rebinding its placeholders for the active
// driver.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.DB.QueryContext(ctx, d.rebind(query), args...)
}

// QueryRowContext runs a single-row query after rebinding its placeholders
// for the active driver.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.DB.QueryRowContext(ctx, d.rebind(query), args...)
}

// rebind rewrites ?-style placeholders to the $n form PostgreSQL expects.
// Queries are written with ? throughout; SQLite accepts them as-is.
func (d *DB) rebind(query string) string {
	if d.driver != types.DriverPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// Tx wraps sql.Tx with the connection's placeholder rebinding.
type Tx struct {
	tx     *sql.Tx
	rebind func(string) string
}

var _ types.Tx = (*Tx)(nil)

// ExecContext runs a statement within the transaction.
func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.rebind(query), args...)
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}
