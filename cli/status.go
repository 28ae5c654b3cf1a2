package cli

import (
	"fmt"
	"time"

	actx "go.shoplens.io/shoplens/app/context"
	"go.shoplens.io/shoplens/db/migrator"
)

// The Status command shows every revision in the chain and whether it has
// been applied.
type Status struct{}

// Run the status command.
func (c *Status) Run(appCtx *actx.Context) error {
	statuses, err := migrator.Status(appCtx.DB, appCtx.DB.Chain())
	if err != nil {
		return err
	}

	data := make([][]string, len(statuses))
	for i, s := range statuses {
		state, appliedAt := "pending", ""
		if s.Applied {
			state = "applied"
			appliedAt = s.AppliedAt.Format(time.RFC3339)
		}
		data[i] = []string{s.Revision, s.Label, state, appliedAt}
	}

	err = renderTable([]string{"Revision", "Name", "State", "Applied At"}, data, appCtx.Stdout)
	if err != nil {
		return fmt.Errorf("failed rendering status table: %w", err)
	}

	return nil
}
