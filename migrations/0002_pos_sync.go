package migrations

import (
	"go.shoplens.io/shoplens/db/migrator"
	"go.shoplens.io/shoplens/db/schema"
)

// posSyncRuns adds a log of POS integration sync attempts, so failed pulls
// from a shop's point-of-sale provider can be inspected and retried.
func posSyncRuns() *migrator.Migration {
	return &migrator.Migration{
		Revision: "0002",
		Parent:   "0001",
		Label:    "pos sync runs",
		Tables: []schema.Table{
			{
				Name: "pos_sync_runs",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("shop_id", "shops"),
					{Name: "status", Type: schema.Varchar(20), Default: schema.DefaultText("pending")},
					{Name: "started_at", Type: schema.Timestamp(), Nullable: true},
					{Name: "finished_at", Type: schema.Timestamp(), Nullable: true},
					{Name: "error", Type: schema.Text(), Nullable: true},
					createdAt(),
				},
			},
		},
	}
}
