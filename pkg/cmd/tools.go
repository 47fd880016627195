package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/angusholder/sqltool/pkg/tool"
	"github.com/angusholder/sqltool/pkg/tools"
	"github.com/urfave/cli/v3"
)

// toolsCmd creates the tools command listing the available maintenance
// tools and their capabilities. It needs no configuration and no database
// connection.
func toolsCmd() *cli.Command {
	return &cli.Command{
		Name:  "tools",
		Usage: "List the available maintenance tools",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			registry := tools.NewRegistry(tools.Deps{Logger: slog.Default()})

			for _, name := range registry.Names() {
				runner, err := registry.Runner(name)
				if err != nil {
					return err
				}

				line := fmt.Sprintf("%-10s %s", runner.Name(), runner.Usage())
				if caps := capabilityLabels(runner.Capabilities()); caps != "" {
					line += " [" + caps + "]"
				}
				fmt.Fprintln(cmd.Writer, line)
			}

			return nil
		},
	}
}

func capabilityLabels(caps tool.Capabilities) string {
	var labels []string
	if caps.Statistics {
		labels = append(labels, "statistics")
	}
	if caps.SeparateTransaction {
		labels = append(labels, "separate transaction")
	}
	if caps.NeedsConfirmation {
		labels = append(labels, "needs confirmation")
	}
	if caps.OpensObjectsOnFinish {
		labels = append(labels, "opens objects")
	}
	return strings.Join(labels, ", ")
}
