package tools

import (
	"context"
	"strings"

	"github.com/angusholder/sqltool/pkg/clickhouse"
	"github.com/angusholder/sqltool/pkg/tool"
	"github.com/pkg/errors"
)

type (
	// OptimizeTool generates OPTIMIZE TABLE statements. It is
	// statistics-capable: after each optimize it reports the table's active
	// part rollup from system.parts.
	OptimizeTool struct {
		ch clickhouse.ClickHouse
	}

	// OptimizeSettings configures the optimize tool.
	//
	// Properties:
	//   - objects:     target tables (required)
	//   - final:       bool, add FINAL to force merging down to one part
	//   - deduplicate: bool, add DEDUPLICATE to drop fully duplicate rows
	//   - partition:   string, restrict the optimize to one partition
	OptimizeSettings struct {
		TableSettings

		Final       bool
		Deduplicate bool
		Partition   string
	}

	// OptimizeStatistics describes the state of one table after an optimize:
	// remaining active parts and their size.
	OptimizeStatistics struct {
		tool.ExecutionStatistics

		Parts       uint64
		Rows        uint64
		BytesOnDisk uint64
	}
)

// NewOptimizeTool creates the optimize tool. The client is used for
// wildcard resolution and statistics queries.
func NewOptimizeTool(ch clickhouse.ClickHouse) *OptimizeTool {
	return &OptimizeTool{ch: ch}
}

func (t *OptimizeTool) CreateSettings() *OptimizeSettings {
	return &OptimizeSettings{TableSettings: TableSettings{ch: t.ch}}
}

// LoadConfiguration resolves the target tables, then the optimize-specific
// properties.
func (s *OptimizeSettings) LoadConfiguration(ctx context.Context, properties map[string]any) error {
	if err := s.TableSettings.LoadConfiguration(ctx, properties); err != nil {
		return err
	}

	var err error
	if s.Final, err = tool.BoolProperty(properties, "final", false); err != nil {
		return err
	}
	if s.Deduplicate, err = tool.BoolProperty(properties, "deduplicate", false); err != nil {
		return err
	}
	if s.Partition, err = tool.StringProperty(properties, "partition", ""); err != nil {
		return err
	}
	return nil
}

// GenerateActions produces a comment header plus one OPTIMIZE TABLE
// statement for the table.
func (t *OptimizeTool) GenerateActions(
	ctx context.Context,
	session tool.Session,
	settings *OptimizeSettings,
	table *clickhouse.Table,
) ([]*tool.Action, error) {
	var sb strings.Builder
	sb.WriteString("OPTIMIZE TABLE ")
	sb.WriteString(table.FullName())
	if settings.Partition != "" {
		sb.WriteString(" PARTITION ")
		sb.WriteString(settings.Partition)
	}
	if settings.Final {
		sb.WriteString(" FINAL")
	}
	if settings.Deduplicate {
		sb.WriteString(" DEDUPLICATE")
	}

	return []*tool.Action{
		tool.NewComment("-- optimize " + table.FullName()),
		tool.NewAction("Optimize "+table.FullName(), sb.String()),
	}, nil
}

// ExecuteStatistics reports the table's post-optimize part rollup.
func (t *OptimizeTool) ExecuteStatistics(
	ctx context.Context,
	table *clickhouse.Table,
	settings *OptimizeSettings,
	action *tool.Action,
	session tool.Session,
) ([]tool.Statistics, error) {
	query := `
		SELECT count(), sum(rows), sum(bytes_on_disk)
		FROM system.parts
		WHERE database = if(empty(?), currentDatabase(), ?)
		  AND table = ?
		  AND active
	`

	rows, err := t.ch.Query(ctx, query, table.Database, table.Database, table.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query parts of %s", table.FullName())
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	stats := &OptimizeStatistics{}
	if err := rows.Scan(&stats.Parts, &stats.Rows, &stats.BytesOnDisk); err != nil {
		return nil, errors.Wrap(err, "failed to scan parts rollup")
	}

	return []tool.Statistics{stats}, nil
}
