package cli

import (
	"fmt"
	"time"

	actx "go.shoplens.io/shoplens/app/context"
	"go.shoplens.io/shoplens/db/migrator"
)

// The History command shows the chronological log of applied and reverted
// revisions.
type History struct{}

// Run the history command.
func (c *History) Run(appCtx *actx.Context) error {
	entries, err := migrator.History(appCtx.DB)
	if err != nil {
		return err
	}

	data := make([][]string, len(entries))
	for i, e := range entries {
		data[i] = []string{
			e.AppliedAt.Format(time.RFC3339), e.Revision, string(e.Direction), e.RunID,
		}
	}

	err = renderTable([]string{"Time", "Revision", "Direction", "Run ID"}, data, appCtx.Stdout)
	if err != nil {
		return fmt.Errorf("failed rendering history table: %w", err)
	}

	return nil
}
