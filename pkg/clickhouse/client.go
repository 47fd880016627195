package clickhouse

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
)

type (
	// ClickHouse is the minimal query surface consumed by packages that only
	// need to read system tables or insert records (object resolution,
	// statistics collection, run history). *Client implements it.
	ClickHouse interface {
		Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
		Exec(ctx context.Context, query string, args ...any) error
	}

	// Client is a pooled ClickHouse connection used for queries that are not
	// bound to one object's maintenance session: listing tables, collecting
	// statistics, recording run history. Per-object sessions are opened
	// separately through SessionProvider.
	Client struct {
		conn driver.Conn
		opts *clickhouse.Options
	}

	// ClientOptions contains optional connection settings.
	ClientOptions struct {
		// Cluster names the cluster this instance belongs to. Informational;
		// maintenance statements target local tables.
		Cluster string

		TLSSettings
	}

	// TLSSettings holds the mTLS material for secured deployments. All three
	// files must be provided together.
	TLSSettings struct {
		CAFile   string
		CertFile string
		KeyFile  string
	}
)

// NewClient connects to a ClickHouse instance. The DSN is "host:port"
// (e.g. "localhost:9000").
//
// Example:
//
//	client, err := clickhouse.NewClient(ctx, "localhost:9000")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
func NewClient(ctx context.Context, dsn string) (*Client, error) {
	return NewClientWithOptions(ctx, dsn, ClientOptions{})
}

// NewClientWithOptions connects to a ClickHouse instance with explicit
// options, enabling mTLS when all of cafile/certfile/keyfile are set.
func NewClientWithOptions(ctx context.Context, dsn string, options ClientOptions) (*Client, error) {
	opts := &clickhouse.Options{
		Addr: []string{dsn},
	}

	if options.useTLS() {
		tlsConfig, err := GetTLSConfig(options.TLSSettings)
		if err != nil {
			return nil, err
		}
		opts.TLS = tlsConfig
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", dsn)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to ping %s", dsn)
	}

	return &Client{conn: conn, opts: opts}, nil
}

// Query runs a query and returns its rows.
func (c *Client) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	return c.conn.Query(ctx, query, args...)
}

// Exec runs a statement without returning rows.
func (c *Client) Exec(ctx context.Context, query string, args ...any) error {
	return c.conn.Exec(ctx, query, args...)
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Close closes the pooled connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// dial opens a fresh, dedicated connection with the client's settings.
// Sessions use dedicated connections so one object's maintenance never
// shares connection state with another's.
func (c *Client) dial(ctx context.Context) (driver.Conn, error) {
	conn, err := clickhouse.Open(c.opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open connection")
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to ping")
	}
	return conn, nil
}

func (o ClientOptions) useTLS() bool {
	return o.CAFile != "" && o.CertFile != "" && o.KeyFile != ""
}
