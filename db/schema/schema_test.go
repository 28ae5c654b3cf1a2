package schema

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTypeSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ Type
		exp string
	}{
		{Char36(), "CHAR(36)"},
		{Varchar(255), "VARCHAR(255)"},
		{Text(), "TEXT"},
		{Integer(), "INTEGER"},
		{Money(), "DECIMAL(12,2)"},
		{Decimal(9, 6), "DECIMAL(9,6)"},
		{Boolean(), "BOOLEAN"},
		{Timestamp(), "TIMESTAMP"},
		{Date(), "DATE"},
		{JSON(), "JSON"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.exp, tt.typ.SQL())
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  Default
		exp  string
	}{
		{"now", DefaultNow(), "CURRENT_TIMESTAMP"},
		{"int", DefaultInt(42), "42"},
		{"bool_true", DefaultBool(true), "TRUE"},
		{"bool_false", DefaultBool(false), "FALSE"},
		{"text", DefaultText("free"), "'free'"},
		{"text_escaped", DefaultText("it's"), "'it''s'"},
		{"money_zero", DefaultMoney(decimal.Zero), "0.00"},
		{"money_exact", DefaultMoney(decimal.New(1999, -2)), "19.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.def.set)
			assert.Equal(t, tt.exp, tt.def.expr)
		})
	}
}

func TestTableCreateSQL(t *testing.T) {
	t.Parallel()

	table := Table{
		Name: "products",
		Columns: []Column{
			ID(),
			FK("shop_id", "shops"),
			{Name: "name", Type: Varchar(255)},
			{Name: "sku", Type: Varchar(100), Nullable: true, Unique: true},
			{Name: "price", Type: Money(), Default: DefaultMoney(decimal.Zero)},
			{Name: "active", Type: Boolean(), Default: DefaultBool(true)},
		},
	}

	exp := `CREATE TABLE products (
	id CHAR(36) PRIMARY KEY,
	shop_id CHAR(36) NOT NULL REFERENCES shops (id),
	name VARCHAR(255) NOT NULL,
	sku VARCHAR(100) UNIQUE,
	price DECIMAL(12,2) NOT NULL DEFAULT 0.00,
	active BOOLEAN NOT NULL DEFAULT TRUE
)`
	assert.Equal(t, exp, table.CreateSQL())
}

func TestTableIndexSQL(t *testing.T) {
	t.Parallel()

	table := Table{
		Name: "transactions",
		Columns: []Column{
			ID(),
			FK("shop_id", "shops"),
			{Name: "total", Type: Money()},
			{Name: "occurred_at", Type: Timestamp(), Index: true, Default: DefaultNow()},
		},
	}

	assert.Equal(t, []string{
		"CREATE INDEX idx_transactions_shop_id ON transactions (shop_id)",
		"CREATE INDEX idx_transactions_occurred_at ON transactions (occurred_at)",
	}, table.IndexSQL())
}

func TestTableDropSQL(t *testing.T) {
	t.Parallel()

	table := Table{Name: "alerts", Columns: []Column{ID()}}
	assert.Equal(t, "DROP TABLE alerts", table.DropSQL())
}
