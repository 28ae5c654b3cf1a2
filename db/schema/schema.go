// Package schema models tables as immutable declarative data. A single table
// declaration drives both the forward DDL (CREATE TABLE and its indexes) and
// the inverse DDL (DROP TABLE), so the two can never drift apart.
package schema

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type kind int

const (
	kindChar36 kind = iota
	kindVarchar
	kindText
	kindInteger
	kindDecimal
	kindBoolean
	kindTimestamp
	kindDate
	kindJSON
)

// Type is the data type of a column.
type Type struct {
	kind             kind
	size             int
	precision, scale int
}

// Char36 is a fixed-width 36-character opaque identifier (UUID-shaped).
func Char36() Type { return Type{kind: kindChar36} }

// Varchar is a variable-length string with a maximum size.
func Varchar(size int) Type { return Type{kind: kindVarchar, size: size} }

// Text is an unbounded string.
func Text() Type { return Type{kind: kindText} }

// Integer is a signed integer.
func Integer() Type { return Type{kind: kindInteger} }

// Decimal is an exact fixed-point number with the given precision and scale.
func Decimal(precision, scale int) Type {
	return Type{kind: kindDecimal, precision: precision, scale: scale}
}

// Money is the exact decimal type used for all monetary values. Binary floats
// are never used for money, since they accumulate rounding error in revenue
// aggregates.
func Money() Type { return Decimal(12, 2) }

// Boolean is a true/false flag.
func Boolean() Type { return Type{kind: kindBoolean} }

// Timestamp is a point in time.
func Timestamp() Type { return Type{kind: kindTimestamp} }

// Date is a calendar date without a time component.
func Date() Type { return Type{kind: kindDate} }

// JSON is a free-form JSON document.
func JSON() Type { return Type{kind: kindJSON} }

// SQL returns the SQL type name. The names are deliberately restricted to the
// portable subset accepted by both SQLite and PostgreSQL.
func (t Type) SQL() string {
	switch t.kind {
	case kindChar36:
		return "CHAR(36)"
	case kindVarchar:
		return fmt.Sprintf("VARCHAR(%d)", t.size)
	case kindText:
		return "TEXT"
	case kindInteger:
		return "INTEGER"
	case kindDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", t.precision, t.scale)
	case kindBoolean:
		return "BOOLEAN"
	case kindTimestamp:
		return "TIMESTAMP"
	case kindDate:
		return "DATE"
	case kindJSON:
		return "JSON"
	}
	panic(fmt.Sprintf("unknown column type kind: %d", t.kind))
}

// Default is a column default value, already rendered as a SQL literal.
type Default struct {
	expr string
	set  bool
}

// NoDefault is the zero Default; the column has no default value.
var NoDefault = Default{}

// DefaultNow defaults the column to the store's current time.
func DefaultNow() Default { return Default{expr: "CURRENT_TIMESTAMP", set: true} }

// DefaultInt defaults the column to an integer literal.
func DefaultInt(n int64) Default { return Default{expr: fmt.Sprintf("%d", n), set: true} }

// DefaultBool defaults the column to a boolean literal.
func DefaultBool(b bool) Default {
	if b {
		return Default{expr: "TRUE", set: true}
	}
	return Default{expr: "FALSE", set: true}
}

// DefaultText defaults the column to a string literal.
func DefaultText(s string) Default {
	return Default{expr: fmt.Sprintf("'%s'", strings.ReplaceAll(s, "'", "''")), set: true}
}

// DefaultMoney defaults the column to an exact decimal literal, rendered with
// two fraction digits.
func DefaultMoney(d decimal.Decimal) Default {
	return Default{expr: d.StringFixed(2), set: true}
}

// Ref declares a foreign key target.
type Ref struct {
	Table  string
	Column string
}

// Column is a single column declaration.
type Column struct {
	Name       string
	Type       Type
	PrimaryKey bool
	Nullable   bool
	Unique     bool
	Index      bool
	Default    Default
	References *Ref
}

// ID returns the conventional primary key column: a 36-character opaque
// identifier.
func ID() Column {
	return Column{Name: "id", Type: Char36(), PrimaryKey: true}
}

// FK returns an indexed, non-nullable foreign key column referencing the id
// column of the given table.
func FK(name, table string) Column {
	return Column{
		Name:       name,
		Type:       Char36(),
		Index:      true,
		References: &Ref{Table: table, Column: "id"},
	}
}

// Table is a complete table declaration.
type Table struct {
	Name    string
	Columns []Column
}

func (c Column) definition() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteString(" ")
	b.WriteString(c.Type.SQL())
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	} else if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	if c.Default.set {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default.expr)
	}
	if c.References != nil {
		fmt.Fprintf(&b, " REFERENCES %s (%s)", c.References.Table, c.References.Column)
	}

	return b.String()
}

// CreateSQL renders the CREATE TABLE statement for the table.
func (t Table) CreateSQL() string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = "\t" + c.definition()
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", t.Name, strings.Join(defs, ",\n"))
}

// IndexSQL renders one CREATE INDEX statement per indexed column.
func (t Table) IndexSQL() []string {
	var stmts []string
	for _, c := range t.Columns {
		if c.Index {
			stmts = append(stmts, fmt.Sprintf(
				"CREATE INDEX idx_%s_%s ON %s (%s)", t.Name, c.Name, t.Name, c.Name))
		}
	}

	return stmts
}

// DropSQL renders the DROP TABLE statement that undoes CreateSQL.
func (t Table) DropSQL() string {
	return fmt.Sprintf("DROP TABLE %s", t.Name)
}
