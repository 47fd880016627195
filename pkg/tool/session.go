package tool

import (
	"context"

	"github.com/angusholder/sqltool/pkg/progress"
)

type (
	// Session is a short-lived execution context bound to one connection and
	// scoped to one object's processing. Sessions are single-use: the engine
	// opens one per object and closes it as soon as that object's actions
	// complete, on every exit path.
	Session interface {
		// Execute runs a single script fragment against the session.
		Execute(ctx context.Context, script string) error

		// Close releases the session's connection.
		Close() error
	}

	// SessionProvider opens execution sessions for target objects. The
	// purpose label describes why the session is needed (e.g. "Execute
	// optimize") and is typically attached to the underlying connection for
	// diagnostics.
	SessionProvider[O Object] interface {
		OpenSession(ctx context.Context, mon progress.Monitor, object O, purpose string) (Session, error)
	}
)
