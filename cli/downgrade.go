package cli

import (
	actx "go.shoplens.io/shoplens/app/context"
	aerrors "go.shoplens.io/shoplens/app/errors"
	"go.shoplens.io/shoplens/db/migrator"
)

// The Downgrade command reverts migrations in reverse revision order, down to
// the target revision. Each step drops its tables children-first.
type Downgrade struct {
	Target string `kong:"arg,help='Target revision token, or \"base\" for the unmigrated state.'"`
}

// Run the downgrade command.
func (c *Downgrade) Run(appCtx *actx.Context) error {
	rev, err := appCtx.DB.Migrate(migrator.DirectionDown, c.Target, appCtx.Logger)
	if err != nil {
		return aerrors.With(err, "current", revOrNone(rev))
	}

	return nil
}
