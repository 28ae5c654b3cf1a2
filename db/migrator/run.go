package migrator

import (
	"crypto/rand"
	"fmt"
	"log/slog"

	"github.com/mr-tron/base58"
	"github.com/nrednav/cuid2"

	"go.shoplens.io/shoplens/db/types"
)

// Run executes the migration plan from the currently applied revision to the
// target, in the given direction. Each step runs in its own transaction
// together with its bookkeeping, so the recorded current revision only
// advances past a step once that step is durable. The first failing step
// aborts the remaining chain. Run returns the revision applied after the last
// durable step.
func Run(
	d types.TxQuerier, chain *Chain, dir Direction, target string, logger *slog.Logger,
) (current string, rerr error) {
	ctx := d.NewContext()
	if err := ensureTracking(ctx, d); err != nil {
		return "", err
	}

	ownerb := make([]byte, 8)
	if _, err := rand.Read(ownerb); err != nil {
		return "", fmt.Errorf("failed generating lock owner token: %w", err)
	}
	owner := base58.Encode(ownerb)

	if err := acquireLock(ctx, d, owner); err != nil {
		return "", err
	}
	defer func() {
		if err := releaseLock(ctx, d, owner); err != nil && rerr == nil {
			rerr = err
		}
	}()

	applied, err := appliedRevisions(ctx, d)
	if err != nil {
		return "", err
	}
	current = deepest(chain, applied)

	plan, err := chain.Plan(current, target, dir)
	if err != nil {
		return current, err
	}
	if len(plan) == 0 {
		logger.Info("schema is up to date", "current", display(current))
		return current, nil
	}

	runID := cuid2.Generate()
	rlogger := logger.With("run_id", runID)

	for _, m := range plan {
		_, isApplied := applied[m.Revision]

		// Steps already in the requested state are skipped, not failed, so
		// re-running against an already-migrated store is a no-op.
		if dir == DirectionUp && isApplied {
			rlogger.Debug("revision already applied, skipping", "revision", m.Revision)
			current = m.Revision
			continue
		}
		if dir == DirectionDown && !isApplied {
			rlogger.Debug("revision not applied, skipping", "revision", m.Revision)
			current = m.Parent
			continue
		}

		tx, err := d.Begin(ctx)
		if err != nil {
			return current, fmt.Errorf("failed starting transaction for revision '%s': %w",
				m.Revision, err)
		}

		now := d.TimeNow().UTC()
		if dir == DirectionUp {
			err = m.Up(ctx, tx)
			if err == nil {
				err = recordUp(ctx, tx, runID, m.Revision, now)
			}
		} else {
			err = m.Down(ctx, tx)
			if err == nil {
				err = recordDown(ctx, tx, runID, m.Revision, now)
			}
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				rlogger.Warn("failed rolling back revision",
					"revision", m.Revision, "error", rbErr)
			}
			return current, err
		}
		if err = tx.Commit(); err != nil {
			return current, fmt.Errorf("failed committing revision '%s': %w", m.Revision, err)
		}

		if dir == DirectionUp {
			current = m.Revision
			rlogger.Info("applied revision", "revision", m.Revision, "name", m.Label)
		} else {
			current = m.Parent
			rlogger.Info("reverted revision", "revision", m.Revision, "name", m.Label)
		}
	}

	return current, nil
}

func display(revision string) string {
	if revision == "" {
		return "none"
	}

	return revision
}
