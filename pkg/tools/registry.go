package tools

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/angusholder/sqltool/pkg/clickhouse"
	"github.com/angusholder/sqltool/pkg/engine"
	"github.com/angusholder/sqltool/pkg/progress"
	"github.com/angusholder/sqltool/pkg/tool"
	"github.com/pkg/errors"
)

type (
	// Runner is the type-erased front of one registered tool. Each runner
	// owns an engine parameterized with the tool's concrete settings type;
	// callers (the CLI) only deal with tasks and this interface.
	Runner interface {
		// Name is the registered tool name used in task definitions.
		Name() string

		// Usage is a one-line description for listings.
		Usage() string

		// Capabilities returns the tool's resolved capability set.
		Capabilities() tool.Capabilities

		// Run resolves the task's settings and executes the tool.
		Run(ctx context.Context, task *tool.Task, mon progress.Monitor, listener tool.Listener, logStream io.Writer) (*engine.RunSummary, error)

		// Script resolves the task's settings and generates the equivalent
		// script without executing anything.
		Script(ctx context.Context, task *tool.Task, mon progress.Monitor) (string, error)
	}

	// Deps are the collaborators shared by all runners. Client may be nil
	// for operations that never touch the database, such as listing tools.
	Deps struct {
		Client *clickhouse.Client
		Logger *slog.Logger
	}

	// Registry holds the available tools by name.
	Registry struct {
		runners map[string]Runner
	}

	// runner binds one handler to an engine, closing over the settings type.
	runner[S tool.Settings[*clickhouse.Table]] struct {
		name    string
		usage   string
		handler tool.Handler[*clickhouse.Table, S]
		engine  *engine.Engine[*clickhouse.Table, S]
	}
)

// NewRegistry builds the registry of built-in tools.
func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	var ch clickhouse.ClickHouse
	if deps.Client != nil {
		ch = deps.Client
	}

	r := &Registry{runners: map[string]Runner{}}
	r.add(newRunner("optimize", "Merge table parts (OPTIMIZE TABLE)", NewOptimizeTool(ch), deps))
	r.add(newRunner("check", "Verify table data integrity (CHECK TABLE)", NewCheckTool(ch), deps))
	r.add(newRunner("truncate", "Remove all table data (TRUNCATE TABLE)", NewTruncateTool(ch), deps))
	return r
}

// Runner returns the runner for a registered tool name.
func (r *Registry) Runner(name string) (Runner, error) {
	runner, ok := r.runners[name]
	if !ok {
		return nil, errors.Errorf("unknown tool %q", name)
	}
	return runner, nil
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.runners))
	for name := range r.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) add(runner Runner) {
	r.runners[runner.Name()] = runner
}

func newRunner[S tool.Settings[*clickhouse.Table]](
	name, usage string,
	handler tool.Handler[*clickhouse.Table, S],
	deps Deps,
) *runner[S] {
	return &runner[S]{
		name:    name,
		usage:   usage,
		handler: handler,
		engine: engine.New(engine.Config[*clickhouse.Table, S]{
			Handler:  handler,
			Sessions: clickhouse.NewSessionProvider(deps.Client, deps.Logger),
			Logger:   deps.Logger,
		}),
	}
}

func (r *runner[S]) Name() string  { return r.name }
func (r *runner[S]) Usage() string { return r.usage }

func (r *runner[S]) Capabilities() tool.Capabilities {
	return r.engine.Capabilities()
}

func (r *runner[S]) Run(
	ctx context.Context,
	task *tool.Task,
	mon progress.Monitor,
	listener tool.Listener,
	logStream io.Writer,
) (*engine.RunSummary, error) {
	return r.engine.RunTask(ctx, task, mon, listener, logStream)
}

func (r *runner[S]) Script(ctx context.Context, task *tool.Task, mon progress.Monitor) (string, error) {
	settings := r.handler.CreateSettings()
	if err := settings.LoadConfiguration(ctx, task.Properties); err != nil {
		return "", errors.Wrapf(err, "failed to resolve settings for task %q", task.Name)
	}
	return r.engine.GenerateScript(ctx, mon, settings)
}
