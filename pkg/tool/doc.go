// Package tool defines the contracts shared by the maintenance tool engine
// and concrete tool implementations.
//
// A tool is described by a Handler that produces Actions (units of SQL work)
// for each target Object according to its Settings. The engine in pkg/engine
// drives the Handler against a SessionProvider, reporting lifecycle events to
// a Listener and, when the handler implements the optional
// StatisticsGenerator capability, delivering per-action statistics through a
// RunListener.
//
// # Capabilities
//
// Optional behavior is declared by implementing one of the capability
// interfaces (StatisticsGenerator, TransactionIsolator, Confirmer,
// ObjectOpener). Capabilities are resolved once per handler instance via
// CapabilitiesOf rather than re-checked inside the execution loop.
//
// # Error taxonomy
//
// The typed errors in this package (ConfigurationError, SessionError,
// GenerationError, StatementError) distinguish fatal failures from failures
// that the engine isolates to a single action or object. All of them
// implement Unwrap, so they can be matched through pkg/errors wraps with the
// standard errors.As.
package tool
