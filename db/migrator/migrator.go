package migrator

import (
	"context"
	"fmt"
	"slices"

	"go.shoplens.io/shoplens/db/schema"
	"go.shoplens.io/shoplens/db/types"
)

// Direction of a migration run.
type Direction string

// Migration directions.
const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Symbolic revision targets.
const (
	// TargetHead is the most recent revision in the chain.
	TargetHead = "head"
	// TargetBase is the state before any migration was applied.
	TargetBase = "base"
)

// Migration is a single reversible schema change. Each migration names the
// revision that precedes it; the first migration in the chain has an empty
// Parent.
type Migration struct {
	Revision string
	Parent   string
	Label    string
	Tables   []schema.Table
}

// Up applies the forward transformation: it creates the migration's tables and
// their indexes, in declaration order (parents before children).
func (m *Migration) Up(ctx context.Context, e types.Executor) error {
	for _, t := range m.Tables {
		if _, err := e.ExecContext(ctx, t.CreateSQL()); err != nil {
			return types.Err(m.Revision, err)
		}
		for _, stmt := range t.IndexSQL() {
			if _, err := e.ExecContext(ctx, stmt); err != nil {
				return types.Err(m.Revision, err)
			}
		}
	}

	return nil
}

// Down applies the exact structural inverse of Up: it drops the migration's
// tables in reverse declaration order, so dependent tables are removed before
// the tables they reference.
func (m *Migration) Down(ctx context.Context, e types.Executor) error {
	for i := len(m.Tables) - 1; i >= 0; i-- {
		if _, err := e.ExecContext(ctx, m.Tables[i].DropSQL()); err != nil {
			return types.Err(m.Revision, err)
		}
	}

	return nil
}

// Chain is a validated, strictly ordered sequence of migrations, from the base
// revision to the head.
type Chain struct {
	steps []*Migration
	byRev map[string]*Migration
}

// NewChain validates the given migrations and orders them by following each
// migration's parent link. It fails if a parent token doesn't resolve, if more
// than one migration has no successor, or if the links form a cycle.
func NewChain(migrations []*Migration) (*Chain, error) {
	byRev := make(map[string]*Migration, len(migrations))
	for _, m := range migrations {
		if m.Revision == "" {
			return nil, fmt.Errorf("migration '%s' has no revision token", m.Label)
		}
		if _, ok := byRev[m.Revision]; ok {
			return nil, fmt.Errorf("duplicate revision '%s'", m.Revision)
		}
		byRev[m.Revision] = m
	}

	childOf := make(map[string]string, len(migrations))
	var base *Migration
	for _, m := range migrations {
		if m.Parent == "" {
			if base != nil {
				return nil, fmt.Errorf("multiple base revisions: '%s' and '%s'",
					base.Revision, m.Revision)
			}
			base = m
			continue
		}
		if _, ok := byRev[m.Parent]; !ok {
			return nil, types.UnknownRevisionError{Revision: m.Parent}
		}
		childOf[m.Parent] = m.Revision
	}

	var heads []string
	for _, m := range migrations {
		if _, ok := childOf[m.Revision]; !ok {
			heads = append(heads, m.Revision)
		}
	}
	if len(heads) > 1 {
		slices.Sort(heads)
		return nil, types.AmbiguousHeadError{Revisions: heads}
	}

	if base == nil {
		return nil, fmt.Errorf("migration chain has no base revision")
	}

	steps := make([]*Migration, 0, len(migrations))
	for m := base; m != nil; m = byRev[childOf[m.Revision]] {
		steps = append(steps, m)
	}
	if len(steps) != len(migrations) {
		return nil, fmt.Errorf("migration chain is not a single unbranched sequence")
	}

	return &Chain{steps: steps, byRev: byRev}, nil
}

// Head returns the most recent revision in the chain.
func (c *Chain) Head() string {
	return c.steps[len(c.steps)-1].Revision
}

// Steps returns the migrations in chain order, base first.
func (c *Chain) Steps() []*Migration {
	return slices.Clone(c.steps)
}

// position returns the index of the given revision in the chain, or -1 for
// the empty (unmigrated) revision.
func (c *Chain) position(revision string) (int, error) {
	if revision == "" {
		return -1, nil
	}
	for i, m := range c.steps {
		if m.Revision == revision {
			return i, nil
		}
	}

	return 0, types.UnknownRevisionError{Revision: revision}
}

// Plan returns the totally ordered sequence of migrations to execute to move
// the schema from the current revision to the target, in the given direction.
// The current revision may be empty, meaning no migration has been applied.
// The target may be a revision token, TargetHead (up) or TargetBase (down).
func (c *Chain) Plan(current, target string, dir Direction) ([]*Migration, error) {
	curIdx, err := c.position(current)
	if err != nil {
		return nil, err
	}

	var targetIdx int
	switch {
	case dir == DirectionUp && target == TargetHead:
		targetIdx = len(c.steps) - 1
	case dir == DirectionDown && target == TargetBase:
		targetIdx = -1
	default:
		if targetIdx, err = c.position(target); err != nil {
			return nil, err
		}
	}

	switch dir {
	case DirectionUp:
		if targetIdx < curIdx {
			return nil, fmt.Errorf(
				"target revision '%s' is behind the current revision '%s'; use downgrade",
				target, current)
		}
		return slices.Clone(c.steps[curIdx+1 : targetIdx+1]), nil
	case DirectionDown:
		if targetIdx > curIdx {
			return nil, fmt.Errorf(
				"target revision '%s' is ahead of the current revision '%s'; use upgrade",
				target, current)
		}
		plan := slices.Clone(c.steps[targetIdx+1 : curIdx+1])
		slices.Reverse(plan)
		return plan, nil
	}

	return nil, fmt.Errorf("invalid migration direction '%s'", dir)
}
