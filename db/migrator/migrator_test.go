package migrator_test

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.shoplens.io/shoplens/db"
	"go.shoplens.io/shoplens/db/migrator"
	"go.shoplens.io/shoplens/db/queries"
	"go.shoplens.io/shoplens/db/schema"
	"go.shoplens.io/shoplens/db/types"
)

var timeNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func timeNowFn() time.Time {
	return timeNow
}

func storesMigration() *migrator.Migration {
	return &migrator.Migration{
		Revision: "0001",
		Label:    "stores",
		Tables: []schema.Table{
			{
				Name: "stores",
				Columns: []schema.Column{
					schema.ID(),
					{Name: "name", Type: schema.Varchar(255)},
				},
			},
			{
				Name: "items",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("store_id", "stores"),
					{Name: "label", Type: schema.Varchar(255), Nullable: true},
				},
			},
		},
	}
}

func notesMigration() *migrator.Migration {
	return &migrator.Migration{
		Revision: "0002",
		Parent:   "0001",
		Label:    "notes",
		Tables: []schema.Table{
			{
				Name: "notes",
				Columns: []schema.Column{
					schema.ID(),
					{Name: "body", Type: schema.Text(), Nullable: true},
				},
			},
		},
	}
}

func fixtureMigrations() []*migrator.Migration {
	return []*migrator.Migration{storesMigration(), notesMigration()}
}

// openTestDB opens a uniquely named in-memory SQLite database, so parallel
// tests don't share state.
func openTestDB(t *testing.T, migrations []*migrator.Migration) *db.DB {
	t.Helper()

	rndName := make([]byte, 12)
	_, err := rand.Read(rndName)
	require.NoError(t, err)

	// Not using just :memory: to avoid 'no such table' issue.
	// See https://github.com/mattn/go-sqlite3#faq
	d, err := db.Open(t.Context(),
		fmt.Sprintf("file:shoplens-%x?mode=memory&cache=shared", rndName),
		timeNowFn, migrations)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = d.Close()
	})

	return d
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNewChainValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		migrations []*migrator.Migration
		expErr     string
	}{
		{
			name:       "ok",
			migrations: fixtureMigrations(),
		},
		{
			name: "err/duplicate_revision",
			migrations: []*migrator.Migration{
				{Revision: "0001"}, {Revision: "0001"},
			},
			expErr: "duplicate revision '0001'",
		},
		{
			name: "err/unknown_parent",
			migrations: []*migrator.Migration{
				{Revision: "0001"},
				{Revision: "0002", Parent: "0001"},
				{Revision: "0003", Parent: "0002a"},
			},
			expErr: "unknown revision '0002a'",
		},
		{
			name: "err/ambiguous_head",
			migrations: []*migrator.Migration{
				{Revision: "0001"},
				{Revision: "0002", Parent: "0001"},
				{Revision: "0002b", Parent: "0001"},
			},
			expErr: "ambiguous head: revisions 0002, 0002b have no successor",
		},
		{
			name: "err/no_base",
			migrations: []*migrator.Migration{
				{Revision: "0001", Parent: "0002"},
				{Revision: "0002", Parent: "0001"},
			},
			expErr: "migration chain has no base revision",
		},
		{
			name: "err/multiple_bases",
			migrations: []*migrator.Migration{
				{Revision: "0001"}, {Revision: "0002"},
			},
			expErr: "multiple base revisions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			chain, err := migrator.NewChain(tt.migrations)
			if tt.expErr != "" {
				assert.Nil(t, chain)
				assert.ErrorContains(t, err, tt.expErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "0002", chain.Head())
		})
	}
}

func TestChainValidationErrorTypes(t *testing.T) {
	t.Parallel()

	_, err := migrator.NewChain([]*migrator.Migration{
		{Revision: "0001"},
		{Revision: "0002", Parent: "0001x"},
	})
	var unknownErr types.UnknownRevisionError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "0001x", unknownErr.Revision)

	_, err = migrator.NewChain([]*migrator.Migration{
		{Revision: "0001"},
		{Revision: "0002", Parent: "0001"},
		{Revision: "0002b", Parent: "0001"},
	})
	var headErr types.AmbiguousHeadError
	require.ErrorAs(t, err, &headErr)
	assert.Equal(t, []string{"0002", "0002b"}, headErr.Revisions)
}

func TestChainPlan(t *testing.T) {
	t.Parallel()

	chain, err := migrator.NewChain(fixtureMigrations())
	require.NoError(t, err)

	tests := []struct {
		name            string
		current, target string
		dir             migrator.Direction
		expRevisions    []string
		expErr          string
	}{
		{
			name:   "up/base_to_head",
			target: migrator.TargetHead, dir: migrator.DirectionUp,
			expRevisions: []string{"0001", "0002"},
		},
		{
			name:   "up/base_to_revision",
			target: "0001", dir: migrator.DirectionUp,
			expRevisions: []string{"0001"},
		},
		{
			name:    "up/noop_at_target",
			current: "0002", target: "0002", dir: migrator.DirectionUp,
			expRevisions: []string{},
		},
		{
			name:    "down/head_to_base",
			current: "0002", target: migrator.TargetBase, dir: migrator.DirectionDown,
			expRevisions: []string{"0002", "0001"},
		},
		{
			name:    "down/head_to_revision",
			current: "0002", target: "0001", dir: migrator.DirectionDown,
			expRevisions: []string{"0002"},
		},
		{
			name:    "err/up_behind_current",
			current: "0002", target: "0001", dir: migrator.DirectionUp,
			expErr: "is behind the current revision",
		},
		{
			name:   "err/down_ahead_of_current",
			target: "0002", dir: migrator.DirectionDown,
			expErr: "is ahead of the current revision",
		},
		{
			name:   "err/unknown_target",
			target: "0099", dir: migrator.DirectionUp,
			expErr: "unknown revision '0099'",
		},
		{
			name:    "err/unknown_current",
			current: "0099", target: migrator.TargetHead, dir: migrator.DirectionUp,
			expErr: "unknown revision '0099'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			plan, err := chain.Plan(tt.current, tt.target, tt.dir)
			if tt.expErr != "" {
				assert.ErrorContains(t, err, tt.expErr)
				return
			}
			require.NoError(t, err)

			revisions := make([]string, 0, len(plan))
			for _, m := range plan {
				revisions = append(revisions, m.Revision)
			}
			assert.Equal(t, tt.expRevisions, revisions)
		})
	}
}

func TestRunRoundTrip(t *testing.T) {
	t.Parallel()

	d := openTestDB(t, fixtureMigrations())
	chain := d.Chain()
	ctx := d.NewContext()

	current, err := migrator.Run(d, chain, migrator.DirectionUp, migrator.TargetHead, discard())
	require.NoError(t, err)
	assert.Equal(t, "0002", current)

	tables, err := queries.Tables(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{
		"stores": {}, "items": {}, "notes": {},
	}, tables)

	current, err = migrator.Run(d, chain, migrator.DirectionDown, migrator.TargetBase, discard())
	require.NoError(t, err)
	assert.Equal(t, "", current)

	tables, err = queries.Tables(ctx, d)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestRunIdempotent(t *testing.T) {
	t.Parallel()

	d := openTestDB(t, fixtureMigrations())
	chain := d.Chain()

	current, err := migrator.Run(d, chain, migrator.DirectionUp, migrator.TargetHead, discard())
	require.NoError(t, err)
	assert.Equal(t, "0002", current)

	entries, err := migrator.History(d)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// A second run to the same target is a no-op and records nothing.
	current, err = migrator.Run(d, chain, migrator.DirectionUp, migrator.TargetHead, discard())
	require.NoError(t, err)
	assert.Equal(t, "0002", current)

	entries, err = migrator.History(d)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRunPartialDowngrade(t *testing.T) {
	t.Parallel()

	d := openTestDB(t, fixtureMigrations())
	chain := d.Chain()
	ctx := d.NewContext()

	_, err := migrator.Run(d, chain, migrator.DirectionUp, migrator.TargetHead, discard())
	require.NoError(t, err)

	current, err := migrator.Run(d, chain, migrator.DirectionDown, "0001", discard())
	require.NoError(t, err)
	assert.Equal(t, "0001", current)

	tables, err := queries.Tables(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"stores": {}, "items": {}}, tables)
}

func TestDownOutOfOrderConstraintViolation(t *testing.T) {
	t.Parallel()

	d := openTestDB(t, fixtureMigrations())
	chain := d.Chain()
	ctx := d.NewContext()

	_, err := migrator.Run(d, chain, migrator.DirectionUp, migrator.TargetHead, discard())
	require.NoError(t, err)

	storeID := uuid.NewString()
	_, err = d.ExecContext(ctx,
		`INSERT INTO stores (id, name) VALUES (?, ?)`, storeID, "corner shop")
	require.NoError(t, err)
	_, err = d.ExecContext(ctx,
		`INSERT INTO items (id, store_id) VALUES (?, ?)`, uuid.NewString(), storeID)
	require.NoError(t, err)

	// Dropping the parent table while dependent rows exist in the child table
	// must be rejected by the store. The correct inverse drops items first.
	_, err = d.ExecContext(ctx, `DROP TABLE stores`)
	var cvErr types.ConstraintViolationError
	require.ErrorAs(t, types.Err("0001", err), &cvErr)
	assert.Equal(t, "0001", cvErr.Revision)

	// The migration's own Down succeeds, because it drops children first.
	_, err = d.ExecContext(ctx, `DELETE FROM items`)
	require.NoError(t, err)
	_, err = d.ExecContext(ctx, `DELETE FROM stores`)
	require.NoError(t, err)
	_, err = migrator.Run(d, chain, migrator.DirectionDown, migrator.TargetBase, discard())
	require.NoError(t, err)
}

func TestRunFailureLeavesCurrentDurable(t *testing.T) {
	t.Parallel()

	bad := fixtureMigrations()
	// Sabotage the second revision so its only table collides with one that
	// already exists.
	bad[1].Tables = []schema.Table{storesMigration().Tables[0]}

	d := openTestDB(t, bad)
	chain := d.Chain()

	current, err := migrator.Run(d, chain, migrator.DirectionUp, migrator.TargetHead, discard())
	require.Error(t, err)
	assert.Equal(t, "0001", current)

	// The failed step wasn't committed, so the recorded revision is still the
	// last durable one and a later run can resume from it.
	rev, err := migrator.Current(d, chain)
	require.NoError(t, err)
	assert.Equal(t, "0001", rev)
}

func TestRunLockHeld(t *testing.T) {
	t.Parallel()

	d := openTestDB(t, fixtureMigrations())
	chain := d.Chain()
	ctx := d.NewContext()

	// Creates the bookkeeping tables.
	_, err := migrator.Current(d, chain)
	require.NoError(t, err)

	_, err = d.ExecContext(ctx,
		`INSERT INTO _schema_lock (id, owner, acquired_at) VALUES (1, ?, ?)`,
		"rival-runner", timeNow)
	require.NoError(t, err)

	_, err = migrator.Run(d, chain, migrator.DirectionUp, migrator.TargetHead, discard())
	var lockErr types.LockHeldError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, "rival-runner", lockErr.Owner)

	// Releasing the lock unblocks the next run.
	_, err = d.ExecContext(ctx, `DELETE FROM _schema_lock WHERE id = 1`)
	require.NoError(t, err)
	current, err := migrator.Run(d, chain, migrator.DirectionUp, migrator.TargetHead, discard())
	require.NoError(t, err)
	assert.Equal(t, "0002", current)
}

func TestHistoryAndStatus(t *testing.T) {
	t.Parallel()

	d := openTestDB(t, fixtureMigrations())
	chain := d.Chain()

	_, err := migrator.Run(d, chain, migrator.DirectionUp, migrator.TargetHead, discard())
	require.NoError(t, err)
	_, err = migrator.Run(d, chain, migrator.DirectionDown, "0001", discard())
	require.NoError(t, err)

	entries, err := migrator.History(d)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.NotEmpty(t, e.RunID)
		assert.Equal(t, timeNow, e.AppliedAt.UTC())
	}

	statuses, err := migrator.Status(d, chain)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "0001", statuses[0].Revision)
	assert.True(t, statuses[0].Applied)
	assert.Equal(t, "0002", statuses[1].Revision)
	assert.False(t, statuses[1].Applied)
}

func TestCurrentUnmigrated(t *testing.T) {
	t.Parallel()

	d := openTestDB(t, fixtureMigrations())
	rev, err := migrator.Current(d, d.Chain())
	require.NoError(t, err)
	assert.Equal(t, "", rev)
}
