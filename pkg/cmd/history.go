package cmd

import (
	"context"
	"fmt"

	"github.com/angusholder/sqltool/pkg/config"
	"github.com/angusholder/sqltool/pkg/history"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type historyParams struct {
	fx.In

	Config  *config.Config
	Version *Version
}

// historyCmd creates the history command listing past tool runs from the
// sqltool.runs tracking table, most recent first.
//
// Example usage:
//
//	sqltool history --url localhost:9000
func historyCmd(p historyParams) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded tool runs",
		Flags: append([]cli.Flag{urlFlag}, tlsFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := dialClient(ctx, cmd, p.Config)
			if err != nil {
				return err
			}
			defer client.Close()

			recorder := history.NewRecorder(client, p.Version.Version)

			bootstrapped, err := recorder.IsBootstrapped(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to check run tracking")
			}
			if !bootstrapped {
				fmt.Fprintln(cmd.Writer, "No runs recorded yet")
				return nil
			}

			records, err := recorder.Load(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to load runs")
			}

			for _, record := range records {
				status := "ok"
				if record.Error != nil {
					status = "error: " + *record.Error
				}

				fmt.Fprintf(cmd.Writer, "%s  %-20s %-10s %d objects, %d actions (%d failed) in %s  %s\n",
					record.StartedAt.Format("2006-01-02 15:04:05"),
					record.Task,
					record.Tool,
					record.Objects,
					record.ActionsExecuted,
					record.ActionsFailed,
					record.ExecutionTime,
					status,
				)
			}

			return nil
		},
	}
}
