package tool

type (
	// Listener observes the lifecycle of one task run. It is notified at two
	// granularities: once with the resolved settings around the whole run,
	// and once with the *Task around the engine's object loop. Each finish
	// notification happens exactly once and carries the first fatal error of
	// the run, or nil.
	//
	// Isolated per-action failures never reach TaskFinished; they are
	// logged and counted in the run summary only.
	Listener interface {
		TaskStarted(subject any)
		TaskFinished(subject any, err error)
	}

	// RunListener is the optional listener extension for statistics-capable
	// tools. When both the handler implements StatisticsGenerator and the
	// listener implements RunListener, the engine delivers every statistics
	// record produced for an executed action, in action order.
	RunListener[O Object] interface {
		Listener

		HandleActionStatistics(object O, action *Action, session Session, records []Statistics)
	}
)

// NopListener is a Listener that ignores all notifications. Useful for
// script generation paths and tests.
type NopListener struct{}

func (NopListener) TaskStarted(any)         {}
func (NopListener) TaskFinished(any, error) {}
