package migrations

import (
	"go.shoplens.io/shoplens/db/migrator"
	"go.shoplens.io/shoplens/db/schema"
)

// agentTasks adds the queue of work items agents pick up per shop.
func agentTasks() *migrator.Migration {
	return &migrator.Migration{
		Revision: "0004",
		Parent:   "0003",
		Label:    "agent tasks",
		Tables: []schema.Table{
			{
				Name: "agent_tasks",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("shop_id", "shops"),
					{
						Name: "agent_id", Type: schema.Char36(), Nullable: true, Index: true,
						References: &schema.Ref{Table: "agents", Column: "id"},
					},
					{Name: "status", Type: schema.Varchar(20), Default: schema.DefaultText("pending")},
					{Name: "priority", Type: schema.Integer(), Default: schema.DefaultInt(0)},
					{Name: "scheduled_at", Type: schema.Timestamp(), Nullable: true},
					{Name: "started_at", Type: schema.Timestamp(), Nullable: true},
					{Name: "completed_at", Type: schema.Timestamp(), Nullable: true},
					{Name: "result", Type: schema.JSON(), Nullable: true},
					createdAt(),
					updatedAt(),
				},
			},
		},
	}
}
