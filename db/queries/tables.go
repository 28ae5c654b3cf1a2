package queries

import (
	"context"
	"strings"

	"go.shoplens.io/shoplens/db/types"
)

// Tables returns a map of all table names in the database that belong to the
// product schema. Internal bookkeeping tables (underscore-prefixed) are
// excluded.
func Tables(ctx context.Context, d types.Querier) (map[string]struct{}, error) {
	query := `SELECT name FROM sqlite_master WHERE type = 'table'`
	if d.Driver() == types.DriverPostgres {
		query = `SELECT tablename FROM pg_tables WHERE schemaname = 'public'`
	}

	tables := make(map[string]struct{})
	rows, err := d.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, err
		}

		// Exclude internal tables
		if !strings.HasPrefix(name, "_") {
			tables[name] = struct{}{}
		}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tables, nil
}
