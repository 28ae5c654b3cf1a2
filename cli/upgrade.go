package cli

import (
	actx "go.shoplens.io/shoplens/app/context"
	aerrors "go.shoplens.io/shoplens/app/errors"
	"go.shoplens.io/shoplens/db/migrator"
)

// The Upgrade command applies forward migrations in revision order, up to the
// target revision. Steps already applied are skipped.
type Upgrade struct {
	Target string `kong:"arg,help='Target revision token, or \"head\" for the most recent revision.'"`
}

// Run the upgrade command.
func (c *Upgrade) Run(appCtx *actx.Context) error {
	rev, err := appCtx.DB.Migrate(migrator.DirectionUp, c.Target, appCtx.Logger)
	if err != nil {
		return aerrors.With(err, "current", revOrNone(rev))
	}

	return nil
}
