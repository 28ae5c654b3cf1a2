package migrations

import (
	"go.shoplens.io/shoplens/db/migrator"
	"go.shoplens.io/shoplens/db/schema"
)

// agents adds the AI agent automation tables: the agents configured per shop
// and the activity log of the actions they take.
func agents() *migrator.Migration {
	return &migrator.Migration{
		Revision: "0003",
		Parent:   "0002",
		Label:    "agents",
		Tables: []schema.Table{
			{
				Name: "agents",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("shop_id", "shops"),
					{Name: "type", Type: schema.Varchar(50)},
					{Name: "active", Type: schema.Boolean(), Default: schema.DefaultBool(true)},
					{Name: "config", Type: schema.JSON(), Nullable: true},
					createdAt(),
					updatedAt(),
				},
			},
			{
				Name: "agent_activities",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("agent_id", "agents"),
					schema.FK("shop_id", "shops"),
					{Name: "action_type", Type: schema.Varchar(50)},
					{Name: "description", Type: schema.Text(), Nullable: true},
					{Name: "details", Type: schema.JSON(), Nullable: true},
					createdAt(),
				},
			},
		},
	}
}
