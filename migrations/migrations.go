// Package migrations defines the schema revision chain of the shoplens
// analytics store. Each revision declares the tables it introduces; creation
// order within a revision is parents before children, and the inverse drops
// in exact reverse order, so foreign keys are always satisfied in both
// directions.
package migrations

import (
	"go.shoplens.io/shoplens/db/migrator"
	"go.shoplens.io/shoplens/db/schema"
)

// All returns the full migration chain, base revision first.
func All() []*migrator.Migration {
	return []*migrator.Migration{
		initialSchema(),
		posSyncRuns(),
		agents(),
		agentTasks(),
	}
}

func createdAt() schema.Column {
	return schema.Column{
		Name: "created_at", Type: schema.Timestamp(), Default: schema.DefaultNow(),
	}
}

func updatedAt() schema.Column {
	return schema.Column{
		Name: "updated_at", Type: schema.Timestamp(), Default: schema.DefaultNow(),
	}
}
