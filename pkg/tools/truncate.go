package tools

import (
	"context"

	"github.com/angusholder/sqltool/pkg/clickhouse"
	"github.com/angusholder/sqltool/pkg/tool"
)

type (
	// TruncateTool generates TRUNCATE TABLE statements. Because it discards
	// data, it declares the confirmation capability; the CLI prompts before
	// running it unless explicitly overridden.
	TruncateTool struct {
		ch clickhouse.ClickHouse
	}

	// TruncateSettings configures the truncate tool. It only carries the
	// target table list.
	TruncateSettings struct {
		TableSettings
	}
)

// NewTruncateTool creates the truncate tool.
func NewTruncateTool(ch clickhouse.ClickHouse) *TruncateTool {
	return &TruncateTool{ch: ch}
}

func (t *TruncateTool) CreateSettings() *TruncateSettings {
	return &TruncateSettings{TableSettings: TableSettings{ch: t.ch}}
}

// NeedsConfirmation marks the tool as destructive.
func (t *TruncateTool) NeedsConfirmation() bool { return true }

func (t *TruncateTool) GenerateActions(
	ctx context.Context,
	session tool.Session,
	settings *TruncateSettings,
	table *clickhouse.Table,
) ([]*tool.Action, error) {
	return []*tool.Action{
		tool.NewComment("-- truncate " + table.FullName()),
		tool.NewAction("Truncate "+table.FullName(), "TRUNCATE TABLE "+table.FullName()),
	}, nil
}
