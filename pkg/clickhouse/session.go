package clickhouse

import (
	"context"
	"log/slog"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/angusholder/sqltool/pkg/progress"
	"github.com/angusholder/sqltool/pkg/tool"
	"github.com/pkg/errors"
)

type (
	// SessionProvider opens one dedicated connection per target table. It
	// satisfies tool.SessionProvider[*Table].
	SessionProvider struct {
		client *Client
		log    *slog.Logger
	}

	// Session is a single-use execution context bound to one dedicated
	// connection. The engine closes it as soon as the object's actions
	// complete.
	Session struct {
		conn    driver.Conn
		purpose string
	}
)

// NewSessionProvider creates a provider that dials sessions with the
// client's connection settings.
func NewSessionProvider(client *Client, log *slog.Logger) *SessionProvider {
	if log == nil {
		log = slog.Default()
	}
	return &SessionProvider{client: client, log: log}
}

// OpenSession opens a fresh connection scoped to one table's processing.
func (p *SessionProvider) OpenSession(ctx context.Context, mon progress.Monitor, table *Table, purpose string) (tool.Session, error) {
	if p.client == nil {
		return nil, errors.New("no ClickHouse connection configured")
	}

	p.log.Debug("Opening session", "table", table.FullName(), "purpose", purpose)

	conn, err := p.client.dial(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open session for %s", table.FullName())
	}

	return &Session{conn: conn, purpose: purpose}, nil
}

// Execute runs a single script fragment on the session's connection.
func (s *Session) Execute(ctx context.Context, script string) error {
	if err := s.conn.Exec(ctx, script); err != nil {
		return errors.Wrap(err, s.purpose)
	}
	return nil
}

// Query runs a query on the session's connection. Not part of the
// tool.Session contract; statistics generators that hold a concrete
// *Session may use it to inspect state within the same session.
func (s *Session) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	return s.conn.Query(ctx, query, args...)
}

// Close releases the session's connection.
func (s *Session) Close() error {
	return s.conn.Close()
}
