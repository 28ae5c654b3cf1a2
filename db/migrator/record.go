package migrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.shoplens.io/shoplens/db/types"
)

// Bookkeeping tables. The underscore prefix keeps them out of the product
// schema; they are created lazily and never dropped by a downgrade.
var trackingDDL = []string{
	`CREATE TABLE IF NOT EXISTS _schema_revisions (
		revision TEXT PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS _schema_history (
		run_id TEXT NOT NULL,
		revision TEXT NOT NULL,
		direction TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL,
		PRIMARY KEY (run_id, revision)
	)`,
	`CREATE TABLE IF NOT EXISTS _schema_lock (
		id INTEGER PRIMARY KEY,
		owner TEXT NOT NULL,
		acquired_at TIMESTAMP NOT NULL
	)`,
}

func ensureTracking(ctx context.Context, e types.Executor) error {
	for _, stmt := range trackingDDL {
		if _, err := e.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed creating migration tracking tables: %w", err)
		}
	}

	return nil
}

func appliedRevisions(ctx context.Context, d types.Querier) (map[string]time.Time, error) {
	rows, err := d.QueryContext(ctx, `SELECT revision, applied_at FROM _schema_revisions`)
	if err != nil {
		return nil, fmt.Errorf("failed loading applied revisions: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]time.Time)
	for rows.Next() {
		var revision string
		var appliedAt time.Time
		if err = rows.Scan(&revision, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed scanning applied revision: %w", err)
		}
		applied[revision] = appliedAt
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating over applied revisions: %w", err)
	}

	return applied, nil
}

// acquireLock claims the single-row lock record. Only one migration run may
// hold write access to the revision bookkeeping at a time; a second runner
// fails fast with a LockHeldError naming the holder.
func acquireLock(ctx context.Context, d types.Querier, owner string) error {
	_, err := d.ExecContext(ctx,
		`INSERT INTO _schema_lock (id, owner, acquired_at) VALUES (1, ?, ?)`,
		owner, d.TimeNow().UTC())
	if err == nil {
		return nil
	}

	var cvErr types.ConstraintViolationError
	if !errors.As(types.Err("", err), &cvErr) {
		return fmt.Errorf("failed acquiring schema lock: %w", err)
	}

	var holder string
	var acquiredAt time.Time
	serr := d.QueryRowContext(ctx,
		`SELECT owner, acquired_at FROM _schema_lock WHERE id = 1`).
		Scan(&holder, &acquiredAt)
	if serr != nil {
		return fmt.Errorf("failed reading schema lock holder: %w", serr)
	}

	return types.LockHeldError{Owner: holder, AcquiredAt: acquiredAt}
}

func releaseLock(ctx context.Context, d types.Querier, owner string) error {
	res, err := d.ExecContext(ctx, `DELETE FROM _schema_lock WHERE id = 1 AND owner = ?`, owner)
	if err != nil {
		return fmt.Errorf("failed releasing schema lock: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("schema lock no longer held by runner %s", owner)
	}

	return nil
}

// recordUp marks a revision as applied. It runs in the same transaction as the
// revision's DDL, so the bookkeeping only advances once the step is durable.
func recordUp(ctx context.Context, e types.Executor, runID, revision string, now time.Time) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO _schema_revisions (revision, applied_at) VALUES (?, ?)`, revision, now)
	if err != nil {
		return fmt.Errorf("failed recording applied revision '%s': %w", revision, err)
	}

	return recordHistory(ctx, e, runID, revision, DirectionUp, now)
}

// recordDown removes a revision from the applied set, in the same transaction
// as the revision's inverse DDL.
func recordDown(ctx context.Context, e types.Executor, runID, revision string, now time.Time) error {
	_, err := e.ExecContext(ctx,
		`DELETE FROM _schema_revisions WHERE revision = ?`, revision)
	if err != nil {
		return fmt.Errorf("failed recording reverted revision '%s': %w", revision, err)
	}

	return recordHistory(ctx, e, runID, revision, DirectionDown, now)
}

func recordHistory(
	ctx context.Context, e types.Executor,
	runID, revision string, dir Direction, now time.Time,
) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO _schema_history (run_id, revision, direction, applied_at)
		VALUES (?, ?, ?, ?)`, runID, revision, string(dir), now)
	if err != nil {
		return fmt.Errorf("failed recording history for revision '%s': %w", revision, err)
	}

	return nil
}

// HistoryEntry is a single chronological record of a revision being applied
// or reverted.
type HistoryEntry struct {
	RunID     string
	Revision  string
	Direction Direction
	AppliedAt time.Time
}

// History returns the full chronological migration history, oldest first.
func History(d types.Querier) (entries []HistoryEntry, rerr error) {
	ctx := d.NewContext()
	if err := ensureTracking(ctx, d); err != nil {
		return nil, err
	}

	rows, err := d.QueryContext(ctx,
		`SELECT run_id, revision, direction, applied_at FROM _schema_history
		ORDER BY applied_at ASC, revision ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed loading migration history: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			rerr = fmt.Errorf("failed closing history rows: %w", err)
		}
	}()

	for rows.Next() {
		var e HistoryEntry
		var dir string
		if err = rows.Scan(&e.RunID, &e.Revision, &dir, &e.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed scanning history entry: %w", err)
		}
		e.Direction = Direction(dir)
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating over history rows: %w", err)
	}

	return entries, nil
}

// Current returns the currently applied revision: the deepest revision on the
// chain that is recorded as applied. It returns an empty string if the store
// is unmigrated.
func Current(d types.Querier, chain *Chain) (string, error) {
	ctx := d.NewContext()
	if err := ensureTracking(ctx, d); err != nil {
		return "", err
	}

	applied, err := appliedRevisions(ctx, d)
	if err != nil {
		return "", err
	}

	return deepest(chain, applied), nil
}

func deepest(chain *Chain, applied map[string]time.Time) string {
	current := ""
	for _, m := range chain.steps {
		if _, ok := applied[m.Revision]; ok {
			current = m.Revision
		}
	}

	return current
}

// RevisionStatus describes one chain revision and whether it has been applied.
type RevisionStatus struct {
	Revision  string
	Label     string
	Applied   bool
	AppliedAt time.Time
}

// Status returns the state of every revision in the chain, base first.
func Status(d types.Querier, chain *Chain) ([]RevisionStatus, error) {
	ctx := d.NewContext()
	if err := ensureTracking(ctx, d); err != nil {
		return nil, err
	}

	applied, err := appliedRevisions(ctx, d)
	if err != nil {
		return nil, err
	}

	statuses := make([]RevisionStatus, 0, len(chain.steps))
	for _, m := range chain.steps {
		appliedAt, ok := applied[m.Revision]
		statuses = append(statuses, RevisionStatus{
			Revision:  m.Revision,
			Label:     m.Label,
			Applied:   ok,
			AppliedAt: appliedAt,
		})
	}

	return statuses, nil
}
