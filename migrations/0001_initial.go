package migrations

import (
	"github.com/shopspring/decimal"

	"go.shoplens.io/shoplens/db/migrator"
	"go.shoplens.io/shoplens/db/schema"
)

// initialSchema creates the core multi-tenant tables: accounts and shops, the
// sales data recorded from POS integrations, the derived analytics snapshots,
// and the review/competitor/alert tables.
func initialSchema() *migrator.Migration {
	return &migrator.Migration{
		Revision: "0001",
		Parent:   "",
		Label:    "initial schema",
		Tables: []schema.Table{
			{
				Name: "users",
				Columns: []schema.Column{
					schema.ID(),
					{Name: "email", Type: schema.Varchar(255), Unique: true},
					{Name: "password_hash", Type: schema.Varchar(255)},
					{Name: "plan", Type: schema.Varchar(50), Default: schema.DefaultText("free")},
					createdAt(),
					updatedAt(),
				},
			},
			{
				Name: "shops",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("user_id", "users"),
					{Name: "name", Type: schema.Varchar(255)},
					{Name: "pos_provider", Type: schema.Varchar(100), Nullable: true},
					{Name: "pos_config", Type: schema.JSON(), Nullable: true},
					{Name: "address", Type: schema.Varchar(255), Nullable: true},
					{Name: "latitude", Type: schema.Decimal(9, 6), Nullable: true},
					{Name: "longitude", Type: schema.Decimal(9, 6), Nullable: true},
					createdAt(),
					updatedAt(),
				},
			},
			{
				Name: "products",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("shop_id", "shops"),
					{Name: "name", Type: schema.Varchar(255)},
					{Name: "category", Type: schema.Varchar(100), Nullable: true, Index: true},
					{Name: "price", Type: schema.Money(), Default: schema.DefaultMoney(decimal.Zero)},
					{Name: "cost", Type: schema.Money(), Nullable: true},
					{Name: "active", Type: schema.Boolean(), Default: schema.DefaultBool(true)},
					createdAt(),
					updatedAt(),
				},
			},
			{
				Name: "customers",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("shop_id", "shops"),
					{Name: "visit_count", Type: schema.Integer(), Default: schema.DefaultInt(0)},
					{Name: "total_spent", Type: schema.Money(), Default: schema.DefaultMoney(decimal.Zero)},
					{Name: "first_seen_at", Type: schema.Timestamp(), Nullable: true},
					{Name: "last_seen_at", Type: schema.Timestamp(), Nullable: true},
					createdAt(),
				},
			},
			{
				Name: "transactions",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("shop_id", "shops"),
					{
						Name: "customer_id", Type: schema.Char36(), Nullable: true, Index: true,
						References: &schema.Ref{Table: "customers", Column: "id"},
					},
					{Name: "subtotal", Type: schema.Money()},
					{Name: "tax", Type: schema.Money(), Default: schema.DefaultMoney(decimal.Zero)},
					{Name: "total", Type: schema.Money()},
					{Name: "item_count", Type: schema.Integer(), Default: schema.DefaultInt(0)},
					{Name: "occurred_at", Type: schema.Timestamp(), Index: true, Default: schema.DefaultNow()},
				},
			},
			{
				Name: "transaction_items",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("transaction_id", "transactions"),
					schema.FK("product_id", "products"),
					{Name: "quantity", Type: schema.Integer(), Default: schema.DefaultInt(1)},
					{Name: "unit_price", Type: schema.Money()},
					{Name: "line_total", Type: schema.Money()},
				},
			},
			{
				Name: "daily_snapshots",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("shop_id", "shops"),
					{Name: "snapshot_date", Type: schema.Date()},
					{Name: "revenue", Type: schema.Money(), Default: schema.DefaultMoney(decimal.Zero)},
					{Name: "transaction_count", Type: schema.Integer(), Default: schema.DefaultInt(0)},
					{Name: "customer_count", Type: schema.Integer(), Default: schema.DefaultInt(0)},
					{Name: "avg_transaction", Type: schema.Money(), Default: schema.DefaultMoney(decimal.Zero)},
					createdAt(),
				},
			},
			{
				Name: "hourly_snapshots",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("shop_id", "shops"),
					{Name: "snapshot_hour", Type: schema.Timestamp()},
					{Name: "revenue", Type: schema.Money(), Default: schema.DefaultMoney(decimal.Zero)},
					{Name: "transaction_count", Type: schema.Integer(), Default: schema.DefaultInt(0)},
					{Name: "customer_count", Type: schema.Integer(), Default: schema.DefaultInt(0)},
					createdAt(),
				},
			},
			{
				Name: "reviews",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("shop_id", "shops"),
					{Name: "rating", Type: schema.Integer()},
					{Name: "text", Type: schema.Text(), Nullable: true},
					{Name: "sentiment", Type: schema.Varchar(20), Nullable: true},
					{Name: "source", Type: schema.Varchar(50), Nullable: true},
					{Name: "posted_at", Type: schema.Timestamp(), Nullable: true},
					createdAt(),
				},
			},
			{
				Name: "competitors",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("shop_id", "shops"),
					{Name: "name", Type: schema.Varchar(255)},
					{Name: "address", Type: schema.Varchar(255), Nullable: true},
					{Name: "latitude", Type: schema.Decimal(9, 6), Nullable: true},
					{Name: "longitude", Type: schema.Decimal(9, 6), Nullable: true},
					{Name: "rating", Type: schema.Decimal(3, 2), Nullable: true},
					{Name: "review_count", Type: schema.Integer(), Default: schema.DefaultInt(0)},
					createdAt(),
				},
			},
			{
				Name: "competitor_snapshots",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("competitor_id", "competitors"),
					{Name: "rating", Type: schema.Decimal(3, 2), Nullable: true},
					{Name: "review_count", Type: schema.Integer(), Default: schema.DefaultInt(0)},
					{Name: "captured_at", Type: schema.Timestamp(), Default: schema.DefaultNow()},
				},
			},
			{
				Name: "alerts",
				Columns: []schema.Column{
					schema.ID(),
					schema.FK("shop_id", "shops"),
					{Name: "type", Type: schema.Varchar(50)},
					{Name: "severity", Type: schema.Varchar(20), Default: schema.DefaultText("info")},
					{Name: "message", Type: schema.Text(), Nullable: true},
					{Name: "read", Type: schema.Boolean(), Default: schema.DefaultBool(false)},
					createdAt(),
				},
			},
		},
	}
}
