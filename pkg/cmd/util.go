package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/angusholder/sqltool/pkg/clickhouse"
	"github.com/angusholder/sqltool/pkg/config"
	"github.com/angusholder/sqltool/pkg/tool"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

var urlFlag = &cli.StringFlag{
	Name:    "url",
	Aliases: []string{"u"},
	Usage:   "ClickHouse connection string (host:port)",
	Sources: cli.EnvVars("SQLTOOL_URL"),
	Config: cli.StringConfig{
		TrimSpace: true,
	},
}

func tlsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "cafile",
			Usage: "Certificate authority pem",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
		&cli.StringFlag{
			Name:  "certfile",
			Usage: "Certificate public key file",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
		&cli.StringFlag{
			Name:  "keyfile",
			Usage: "Certificate private key file",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
	}
}

// dialClient connects to ClickHouse using the command's flags, falling back
// to the config file's connection defaults.
func dialClient(ctx context.Context, cmd *cli.Command, cfg *config.Config) (*clickhouse.Client, error) {
	url := cmd.String("url")
	cluster := ""
	if cfg != nil {
		if url == "" {
			url = cfg.ClickHouse.URL
		}
		cluster = cfg.ClickHouse.Cluster
	}
	if url == "" {
		return nil, errors.New("no ClickHouse URL given (use --url or set clickhouse.url in sqltool.yaml)")
	}

	client, err := clickhouse.NewClientWithOptions(ctx, url, clickhouse.ClientOptions{
		Cluster: cluster,
		TLSSettings: clickhouse.TLSSettings{
			CAFile:   cmd.String("cafile"),
			CertFile: cmd.String("certfile"),
			KeyFile:  cmd.String("keyfile"),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ClickHouse client")
	}

	return client, nil
}

// confirm asks the user to approve a destructive task.
func confirm(w io.Writer, r io.Reader, label string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", label)

	answer, err := bufio.NewReader(r).ReadString('\n')
	if err != nil {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// consoleListener prints per-action statistics as they arrive. It satisfies
// tool.RunListener[*clickhouse.Table], so statistics-capable tools report
// through it; lifecycle notifications go to the debug log only.
type consoleListener struct {
	w   io.Writer
	log *slog.Logger
}

func newConsoleListener(w io.Writer, log *slog.Logger) *consoleListener {
	return &consoleListener{w: w, log: log}
}

func (l *consoleListener) TaskStarted(subject any) {
	l.log.Debug("Task started", "subject", fmt.Sprintf("%T", subject))
}

func (l *consoleListener) TaskFinished(subject any, err error) {
	l.log.Debug("Task finished", "subject", fmt.Sprintf("%T", subject), "error", err)
}

func (l *consoleListener) HandleActionStatistics(
	table *clickhouse.Table,
	action *tool.Action,
	session tool.Session,
	records []tool.Statistics,
) {
	for _, record := range records {
		fmt.Fprintf(l.w, "  %s: %+v\n", table.FullName(), record)
	}
}
