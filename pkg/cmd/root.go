package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/angusholder/sqltool/pkg/config"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Version    *Version
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run creates and executes the main sqltool CLI application. It registers
// all provided commands, wires version reporting, and drives the
// application through the fx lifecycle so that a failing command exits
// non-zero.
//
// Configuration is read from sqltool.yaml in the working directory (or the
// file named by SQLTOOL_CONFIG); commands that need it guard themselves
// with requireConfig.
func Run(p Params) {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", p.Version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", p.Version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", p.Version.Timestamp)
	}

	app := &cli.Command{
		Name:  "sqltool",
		Usage: "A batch maintenance tool runner for ClickHouse",
		Description: `sqltool executes database maintenance tools (optimize, check, truncate)
against a configured set of target tables, isolating failures per table and
statement, and records every run in a tracking table. Tasks are defined in
sqltool.yaml and can be previewed as plain SQL before anything executes.`,
		Version:  p.Version.Version,
		Commands: p.Commands,
	}

	p.Lifecycle.Append(fx.StartHook(func() {
		if err := app.Run(p.Ctx, p.Args); err != nil {
			slog.Error("Error running command", "err", err)
			_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
		}

		_ = p.Shutdowner.Shutdown(fx.ExitCode(0))
	}))
}

func requireConfig(cfg *config.Config) func(context.Context, *cli.Command) (context.Context, error) {
	return func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if cfg == nil {
			return ctx, errors.New("sqltool.yaml not found")
		}

		return ctx, nil
	}
}
