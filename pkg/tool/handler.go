package tool

import "context"

type (
	// Object is a database entity targeted by a tool (table, index, schema,
	// and so on). The engine only needs a display label for progress and
	// error reporting; everything else about the object is known to the
	// concrete tool.
	Object interface {
		FullName() string
	}

	// Settings holds the resolved target object list and tool-specific
	// configuration for one run. LoadConfiguration is called exactly once,
	// before the engine is invoked; after that the object list is treated as
	// immutable for the remainder of the run.
	Settings[O Object] interface {
		// ObjectList returns the resolved targets in execution order.
		ObjectList() []O

		// LoadConfiguration populates the settings from raw task properties.
		// It returns a *ConfigurationError when required properties are
		// absent or malformed.
		LoadConfiguration(ctx context.Context, properties map[string]any) error
	}

	// Handler is the contract every concrete tool implements. GenerateActions
	// must be a pure function of (settings, object): deterministic, ordered,
	// and free of side effects beyond producing the action list. The same
	// generator backs both real execution and script generation, which is
	// what guarantees a generated script matches what execution would do.
	Handler[O Object, S Settings[O]] interface {
		// CreateSettings returns a fresh, unloaded settings instance.
		CreateSettings() S

		// GenerateActions produces the ordered actions for one object. The
		// session is open for the duration of the call and scoped to this
		// object.
		GenerateActions(ctx context.Context, session Session, settings S, object O) ([]*Action, error)
	}

	// StatisticsGenerator is the optional capability for tools that produce
	// structured per-action statistics. It is queried after each
	// successfully executed, non-comment, non-blank action. The action
	// argument identifies the executed statement within the object's batch.
	StatisticsGenerator[O Object, S Settings[O]] interface {
		ExecuteStatistics(ctx context.Context, object O, settings S, action *Action, session Session) ([]Statistics, error)
	}

	// TransactionIsolator is the optional capability for tools that must run
	// inside their own transaction. The engine surfaces the flag to callers;
	// it does not implement transaction semantics itself.
	TransactionIsolator interface {
		RunInSeparateTransaction() bool
	}

	// Confirmer is the optional capability for destructive tools that should
	// not run without explicit user confirmation.
	Confirmer interface {
		NeedsConfirmation() bool
	}

	// ObjectOpener is the optional capability for tools whose target objects
	// should be opened in the caller's UI once the run finishes.
	ObjectOpener interface {
		OpensObjectsOnFinish() bool
	}

	// Capabilities is the resolved set of optional behaviors for one handler
	// instance. It is computed once by CapabilitiesOf; the execution loop
	// never performs dynamic capability checks.
	Capabilities struct {
		Statistics           bool
		SeparateTransaction  bool
		NeedsConfirmation    bool
		OpensObjectsOnFinish bool
	}
)

// CapabilitiesOf resolves the optional capability interfaces of a handler.
// It is intended to be called once, at engine construction.
func CapabilitiesOf[O Object, S Settings[O]](h Handler[O, S]) Capabilities {
	var caps Capabilities
	if _, ok := h.(StatisticsGenerator[O, S]); ok {
		caps.Statistics = true
	}
	if ti, ok := h.(TransactionIsolator); ok {
		caps.SeparateTransaction = ti.RunInSeparateTransaction()
	}
	if c, ok := h.(Confirmer); ok {
		caps.NeedsConfirmation = c.NeedsConfirmation()
	}
	if oo, ok := h.(ObjectOpener); ok {
		caps.OpensObjectsOnFinish = oo.OpensObjectsOnFinish()
	}
	return caps
}
