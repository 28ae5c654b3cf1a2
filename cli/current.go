package cli

import (
	"fmt"

	actx "go.shoplens.io/shoplens/app/context"
)

// The Current command prints the currently applied revision token, or "none"
// if the store is unmigrated.
type Current struct{}

// Run the current command.
func (c *Current) Run(appCtx *actx.Context) error {
	rev, err := appCtx.DB.CurrentRevision()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(appCtx.Stdout, revOrNone(rev))

	return err
}
