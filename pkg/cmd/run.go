package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/angusholder/sqltool/pkg/config"
	"github.com/angusholder/sqltool/pkg/history"
	"github.com/angusholder/sqltool/pkg/progress"
	"github.com/angusholder/sqltool/pkg/tools"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type runParams struct {
	fx.In

	Config  *config.Config
	Version *Version
}

// run creates the run command for executing a configured maintenance task.
//
// The command resolves the task's target objects once, then executes the
// tool's generated actions object by object. A single failing statement is
// isolated and the run continues; the outcome, including isolated failure
// counts, is recorded in the sqltool.runs tracking table.
//
// Command flags:
//   - --url, -u: ClickHouse connection string
//   - --dry-run: print the generated script instead of executing
//   - --yes, -y: skip the confirmation prompt for destructive tools
//
// Example usage:
//
//	# Execute the configured task
//	sqltool run nightly-optimize --url localhost:9000
//
//	# Preview what would be executed
//	sqltool run nightly-optimize --url localhost:9000 --dry-run
func run(p runParams) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Execute a configured maintenance task",
		ArgsUsage: "<task>",
		Description: `Execute one task defined in sqltool.yaml against the target ClickHouse
instance.

Objects are processed strictly in configured order, each with its own
short-lived session. A statement that fails on one table is logged and
skipped; the remaining statements and tables still run. A tool whose
generator fails aborts the run, since it cannot produce valid work for the
remaining tables either.

Destructive tools (e.g. truncate) prompt for confirmation unless --yes is
given. Every run is recorded in the sqltool.runs table.`,
		Before: requireConfig(p.Config),
		Flags: append([]cli.Flag{
			urlFlag,
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the generated script without executing anything",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt for destructive tools",
			},
		}, tlsFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runTask(ctx, cmd, p)
		},
	}
}

func runTask(ctx context.Context, cmd *cli.Command, p runParams) error {
	name := cmd.Args().First()
	if name == "" {
		return errors.New("task name is required")
	}

	taskDef, err := p.Config.Task(name)
	if err != nil {
		return err
	}

	slog.Info("Starting task",
		"task", taskDef.Name,
		"tool", taskDef.Tool,
		"dry_run", cmd.Bool("dry-run"),
	)

	client, err := dialClient(ctx, cmd, p.Config)
	if err != nil {
		return err
	}
	defer client.Close()

	registry := tools.NewRegistry(tools.Deps{Client: client, Logger: slog.Default()})
	runner, err := registry.Runner(taskDef.Tool)
	if err != nil {
		return err
	}

	task := taskDef.ToolTask()
	mon := progress.WithContext(ctx, progress.NewConsole(cmd.Writer))

	if cmd.Bool("dry-run") {
		script, err := runner.Script(ctx, task, mon)
		if err != nil {
			return errors.Wrap(err, "failed to generate script")
		}
		fmt.Fprint(cmd.Writer, script)
		return nil
	}

	if runner.Capabilities().NeedsConfirmation && !cmd.Bool("yes") {
		label := fmt.Sprintf("Tool %q modifies data. Run task %q?", taskDef.Tool, taskDef.Name)
		if !confirm(cmd.Writer, os.Stdin, label) {
			fmt.Fprintln(cmd.Writer, "Aborted")
			return nil
		}
	}

	listener := newConsoleListener(cmd.Writer, slog.Default())
	started := time.Now().UTC()

	summary, runErr := runner.Run(ctx, task, mon, listener, cmd.Writer)

	if summary != nil {
		record := &history.Record{
			Task:            taskDef.Name,
			Tool:            taskDef.Tool,
			StartedAt:       started,
			ExecutionTime:   time.Since(started),
			Objects:         summary.Objects,
			ActionsExecuted: summary.Actions,
			ActionsFailed:   summary.Failed,
		}
		if runErr != nil {
			msg := runErr.Error()
			record.Error = &msg
		}

		recorder := history.NewRecorder(client, p.Version.Version)
		if err := recorder.Save(ctx, record); err != nil {
			// The run outcome stands even when tracking fails.
			slog.Warn("Failed to record run", "error", err)
		}
	}

	if runErr != nil {
		return errors.Wrapf(runErr, "task %q failed", taskDef.Name)
	}

	slog.Info("Task completed",
		"task", taskDef.Name,
		"objects", summary.Objects,
		"actions", summary.Actions,
		"failed", summary.Failed,
	)

	if summary.Failed > 0 {
		fmt.Fprintf(cmd.Writer, "%d statement(s) failed and were skipped; see log for details\n", summary.Failed)
	}

	return nil
}
