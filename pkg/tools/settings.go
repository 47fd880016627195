package tools

import (
	"context"

	"github.com/angusholder/sqltool/pkg/clickhouse"
	"github.com/angusholder/sqltool/pkg/tool"
	"github.com/pkg/errors"
)

// TableSettings is the settings base shared by all table-targeting tools.
// It resolves the "objects" property (explicit "db.table" names or "db.*"
// patterns) into concrete tables, once, before execution begins. Tool
// settings embed it and layer their own properties on top.
type TableSettings struct {
	ch     clickhouse.ClickHouse
	tables []*clickhouse.Table
}

// ObjectList returns the resolved target tables in configuration order.
func (s *TableSettings) ObjectList() []*clickhouse.Table {
	return s.tables
}

// LoadConfiguration resolves the target table list from the "objects"
// property. Wildcard patterns are expanded from system.tables at resolution
// time; after this call the list is immutable for the rest of the run.
func (s *TableSettings) LoadConfiguration(ctx context.Context, properties map[string]any) error {
	names, err := tool.RequiredStringListProperty(properties, "objects")
	if err != nil {
		return err
	}

	tables, err := clickhouse.ResolveTables(ctx, s.ch, names)
	if err != nil {
		return &tool.ConfigurationError{Property: "objects", Err: err}
	}
	if len(tables) == 0 {
		return &tool.ConfigurationError{Property: "objects", Err: errors.New("resolved to no tables")}
	}

	s.tables = tables
	return nil
}
