package clickhouse

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Table identifies one target table. Database may be empty, in which case
// statements run against the connection's current database.
type Table struct {
	Database string
	Name     string
}

// FullName returns the backtick-quoted qualified name, suitable for direct
// interpolation into maintenance statements.
//
// Examples:
//   - {analytics events} -> "`analytics`.`events`"
//   - {"" events}        -> "`events`"
func (t *Table) FullName() string {
	if t.Database == "" {
		return backtick(t.Name)
	}
	return backtick(t.Database) + "." + backtick(t.Name)
}

// ParseTable parses "name" or "database.name" into a Table.
func ParseTable(name string) (*Table, error) {
	parts := strings.Split(name, ".")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return nil, errors.Errorf("invalid table name %q", name)
		}
		return &Table{Name: parts[0]}, nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return nil, errors.Errorf("invalid table name %q", name)
		}
		return &Table{Database: parts[0], Name: parts[1]}, nil
	default:
		return nil, errors.Errorf("invalid table name %q: expected [database.]name", name)
	}
}

// ListTables returns all regular tables of a database, in name order.
// Views, temporary tables, and the internal tables backing materialized
// views are excluded, as are ClickHouse system databases.
func ListTables(ctx context.Context, ch ClickHouse, database string) ([]*Table, error) {
	query := `
		SELECT database, name
		FROM system.tables
		WHERE database = ?
		  AND database NOT IN ('system', 'information_schema', 'INFORMATION_SCHEMA')
		  AND engine NOT IN ('View', 'MaterializedView')
		  AND is_temporary = 0
		  AND name NOT LIKE '.inner%'
		ORDER BY database, name
	`

	rows, err := ch.Query(ctx, query, database)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list tables of %s", database)
	}
	defer rows.Close()

	var tables []*Table
	for rows.Next() {
		var db, name string
		if err := rows.Scan(&db, &name); err != nil {
			return nil, errors.Wrap(err, "failed to scan table row")
		}
		tables = append(tables, &Table{Database: db, Name: name})
	}

	return tables, rows.Err()
}

// ResolveTables resolves a configured object list into concrete tables.
// Entries are either explicit names ("db.events", "events") or wildcard
// patterns ("db.*") expanded from system.tables. Resolution happens once,
// before execution begins; the result preserves entry order, with wildcard
// expansions in name order.
func ResolveTables(ctx context.Context, ch ClickHouse, names []string) ([]*Table, error) {
	var tables []*Table
	for _, name := range names {
		database, ok := strings.CutSuffix(name, ".*")
		if !ok {
			table, err := ParseTable(name)
			if err != nil {
				return nil, err
			}
			tables = append(tables, table)
			continue
		}

		if database == "" || strings.Contains(database, ".") {
			return nil, errors.Errorf("invalid table pattern %q", name)
		}
		if ch == nil {
			return nil, errors.Errorf("cannot expand pattern %q without a connection", name)
		}

		expanded, err := ListTables(ctx, ch, database)
		if err != nil {
			return nil, err
		}
		tables = append(tables, expanded...)
	}
	return tables, nil
}

// backtick quotes a single identifier.
func backtick(name string) string {
	if len(name) >= 2 && name[0] == '`' && name[len(name)-1] == '`' {
		return name
	}
	return "`" + name + "`"
}
