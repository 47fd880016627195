package tools

import (
	"context"

	"github.com/angusholder/sqltool/pkg/clickhouse"
	"github.com/angusholder/sqltool/pkg/tool"
)

type (
	// CheckTool generates CHECK TABLE statements. It declares no optional
	// capabilities: no statistics, no confirmation.
	CheckTool struct {
		ch clickhouse.ClickHouse
	}

	// CheckSettings configures the check tool. It only carries the target
	// table list.
	CheckSettings struct {
		TableSettings
	}
)

// NewCheckTool creates the check tool.
func NewCheckTool(ch clickhouse.ClickHouse) *CheckTool {
	return &CheckTool{ch: ch}
}

func (t *CheckTool) CreateSettings() *CheckSettings {
	return &CheckSettings{TableSettings: TableSettings{ch: t.ch}}
}

func (t *CheckTool) GenerateActions(
	ctx context.Context,
	session tool.Session,
	settings *CheckSettings,
	table *clickhouse.Table,
) ([]*tool.Action, error) {
	return []*tool.Action{
		tool.NewAction("Check "+table.FullName(), "CHECK TABLE "+table.FullName()),
	}, nil
}
