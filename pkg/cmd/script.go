package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/angusholder/sqltool/pkg/config"
	"github.com/angusholder/sqltool/pkg/consts"
	"github.com/angusholder/sqltool/pkg/progress"
	"github.com/angusholder/sqltool/pkg/tools"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type scriptParams struct {
	fx.In

	Config *config.Config
}

// script creates the script command for generating a task's SQL without
// executing it.
//
// The command reuses the exact same action generation path as run, so the
// output is what a real run would execute, including comment lines, which
// are kept for DBA review. Sessions are still opened per object (generators
// may inspect state), but nothing is executed.
//
// Example usage:
//
//	# Print the script
//	sqltool script nightly-optimize --url localhost:9000
//
//	# Write it to a file
//	sqltool script nightly-optimize --url localhost:9000 --out nightly.sql
func script(p scriptParams) *cli.Command {
	return &cli.Command{
		Name:      "script",
		Usage:     "Generate the SQL a task would execute",
		ArgsUsage: "<task>",
		Before:    requireConfig(p.Config),
		Flags: append([]cli.Flag{
			urlFlag,
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the script to a file instead of stdout",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		}, tlsFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runScript(ctx, cmd, p)
		},
	}
}

func runScript(ctx context.Context, cmd *cli.Command, p scriptParams) error {
	name := cmd.Args().First()
	if name == "" {
		return errors.New("task name is required")
	}

	taskDef, err := p.Config.Task(name)
	if err != nil {
		return err
	}

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

	out, err := runner.Script(ctx, taskDef.ToolTask(), progress.WithContext(ctx, progress.Nop()))
	if err != nil {
		return errors.Wrap(err, "failed to generate script")
	}

	if path := cmd.String("out"); path != "" {
		if err := os.WriteFile(path, []byte(out), consts.ModeFile); err != nil {
			return errors.Wrapf(err, "failed to write %s", path)
		}
		fmt.Fprintf(cmd.Writer, "Wrote %s\n", path)
		return nil
	}

	fmt.Fprint(cmd.Writer, out)
	return nil
}
