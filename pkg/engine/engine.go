package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/angusholder/sqltool/pkg/progress"
	"github.com/angusholder/sqltool/pkg/tool"
	"github.com/pkg/errors"
)

type (
	// Engine drives one tool over a resolved set of target objects. It is
	// parameterized over the tool's target object and settings types so that
	// concrete tools keep their own types end to end.
	//
	// The engine owns the per-object, per-action execution loop: session
	// lifecycle, cancellation polling, progress accounting, two-tier error
	// isolation, and dispatch to the optional statistics capability. It does
	// not parallelize: objects are processed strictly in list order, actions
	// strictly in generation order.
	//
	// Example usage:
	//
	//	eng := engine.New(engine.Config[*clickhouse.Table, *tools.OptimizeSettings]{
	//		Handler:  tools.NewOptimizeTool(client),
	//		Sessions: clickhouse.NewSessionProvider(client, logger),
	//		Logger:   logger,
	//	})
	//
	//	summary, err := eng.RunTask(ctx, task, mon, listener, os.Stdout)
	Engine[O tool.Object, S tool.Settings[O]] struct {
		handler  tool.Handler[O, S]
		sessions tool.SessionProvider[O]
		stats    tool.StatisticsGenerator[O, S]
		caps     tool.Capabilities
		log      *slog.Logger
	}

	// Config contains the collaborators for creating a new Engine.
	Config[O tool.Object, S tool.Settings[O]] struct {
		// Handler is the concrete tool implementation.
		Handler tool.Handler[O, S]

		// Sessions opens one single-use session per target object.
		Sessions tool.SessionProvider[O]

		// Logger is the process-scoped sink for this run. Defaults to
		// slog.Default when nil.
		Logger *slog.Logger
	}

	// RunSummary aggregates what one run actually did. Isolated per-action
	// failures are counted here (and logged) but never populate the error
	// delivered to the listener's finish callback.
	RunSummary struct {
		// Objects is the number of objects whose processing completed,
		// including objects skipped because their session could not open.
		Objects int

		// Actions is the number of actions executed successfully.
		Actions int

		// Failed is the number of actions whose execution failed and was
		// isolated.
		Failed int

		// Skipped is the number of comment or blank actions that were
		// counted toward progress without executing.
		Skipped int

		// Isolated holds the isolated per-action errors, in occurrence
		// order, for diagnostics.
		Isolated []error
	}
)

// New creates an engine for the given handler. Optional capabilities
// (statistics generation, separate-transaction, confirmation, open-on-finish)
// are resolved here, once, and cached for the lifetime of the engine.
func New[O tool.Object, S tool.Settings[O]](cfg Config[O, S]) *Engine[O, S] {
	e := &Engine[O, S]{
		handler:  cfg.Handler,
		sessions: cfg.Sessions,
		log:      cfg.Logger,
	}
	if e.log == nil {
		e.log = slog.Default()
	}

	e.caps = tool.CapabilitiesOf[O, S](cfg.Handler)
	if sg, ok := cfg.Handler.(tool.StatisticsGenerator[O, S]); ok {
		e.stats = sg
	}

	return e
}

// Capabilities returns the handler's resolved capability set.
func (e *Engine[O, S]) Capabilities() tool.Capabilities {
	return e.caps
}

// RunTask resolves settings from the task's properties and executes the tool.
//
// Settings resolution happens exactly once, before anything else; a
// resolution failure surfaces immediately and no listener notification is
// emitted. Otherwise the listener is notified at both granularities: with
// the settings around the whole run, and with the task around the object
// loop (see Execute).
//
// The returned error is the run's aggregate error: nil, or the first fatal
// failure (configuration, generation, or first session-open failure).
// logStream, when non-nil, receives the final completion line the way the
// task log expects it.
func (e *Engine[O, S]) RunTask(
	ctx context.Context,
	task *tool.Task,
	mon progress.Monitor,
	listener tool.Listener,
	logStream io.Writer,
) (*RunSummary, error) {
	settings := e.handler.CreateSettings()
	if err := settings.LoadConfiguration(ctx, task.Properties); err != nil {
		return nil, errors.Wrapf(err, "failed to resolve settings for task %q", task.Name)
	}

	listener.TaskStarted(settings)

	summary, err := e.Execute(ctx, task, settings, mon, listener)
	if err != nil {
		e.log.Error("Tool execution failed", "task", task.Name, "tool", task.Tool, "error", err)
	}

	listener.TaskFinished(settings, err)

	if logStream != nil {
		fmt.Fprintln(logStream, "Tool execution finished")
	}

	return summary, err
}

// Execute runs the tool over the settings' resolved object list.
//
// For each object, in list order: report progress, open a scoped session,
// generate actions, execute them in generation order, close the session.
// Failure policy:
//
//   - a session-open failure skips that object but the run continues; the
//     error is recorded as the run error if it is the first failure
//   - a generation failure aborts the remaining objects
//   - a single action's failure is isolated: logged, counted, and the loop
//     moves on to the next action
//
// Cancellation is polled before each action and before each object. The
// listener's finish notification is emitted exactly once, on every path,
// carrying the aggregate error (or nil).
func (e *Engine[O, S]) Execute(
	ctx context.Context,
	task *tool.Task,
	settings S,
	mon progress.Monitor,
	listener tool.Listener,
) (*RunSummary, error) {
	objects := settings.ObjectList()
	summary := &RunSummary{}

	listener.TaskStarted(task)

	var runErr error
	mon.Begin(fmt.Sprintf("Execute tool %q", task.Tool), len(objects))
	for i, object := range objects {
		if mon.Canceled() {
			e.log.Debug("Tool execution canceled", "task", task.Name)
			break
		}

		mon.SubTask(fmt.Sprintf("Process [%s] (%d of %d)", object.FullName(), i+1, len(objects)))

		if err := e.processObject(ctx, task, settings, object, mon, listener, summary); err != nil {
			var genErr *tool.GenerationError
			if stderrors.As(err, &genErr) {
				runErr = err
				break
			}

			// Session acquisition failed. The object's slot is lost but the
			// remaining objects still get their maintenance.
			e.log.Warn("Skipping object", "object", object.FullName(), "error", err)
			if runErr == nil {
				runErr = err
			}
		}

		summary.Objects++
		mon.Worked(1)
	}
	mon.Done()

	listener.TaskFinished(task, runErr)

	return summary, runErr
}

// processObject handles one object: session, generation, action loop. The
// session is released on every exit path, including cancellation and panics
// in action execution.
func (e *Engine[O, S]) processObject(
	ctx context.Context,
	task *tool.Task,
	settings S,
	object O,
	mon progress.Monitor,
	listener tool.Listener,
	summary *RunSummary,
) error {
	session, err := e.sessions.OpenSession(ctx, mon, object, "Execute "+task.Tool)
	if err != nil {
		return &tool.SessionError{Object: object.FullName(), Err: err}
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			e.log.Debug("Error closing session", "object", object.FullName(), "error", cerr)
		}
	}()

	actions, err := e.handler.GenerateActions(ctx, session, settings, object)
	if err != nil {
		return &tool.GenerationError{Object: object.FullName(), Err: err}
	}

	for _, action := range actions {
		if mon.Canceled() {
			break
		}
		if action.Title != "" {
			mon.SubTask(action.Title)
		}

		e.executeAction(ctx, settings, object, session, action, mon, listener, summary)
		mon.Worked(1)
	}

	return nil
}

// executeAction executes one action and, for statistics-capable tools,
// collects and delivers its statistics. Failures are isolated here and never
// propagate.
func (e *Engine[O, S]) executeAction(
	ctx context.Context,
	settings S,
	object O,
	session tool.Session,
	action *tool.Action,
	mon progress.Monitor,
	listener tool.Listener,
	summary *RunSummary,
) {
	if action.Comment || action.Blank() {
		summary.Skipped++
		return
	}

	start := time.Now()
	if err := session.Execute(ctx, action.Script); err != nil {
		stmtErr := &tool.StatementError{Object: object.FullName(), Script: action.Script, Err: err}
		e.log.Debug("Error executing action", "object", object.FullName(), "error", stmtErr)
		summary.Failed++
		summary.Isolated = append(summary.Isolated, stmtErr)
		return
	}
	elapsed := time.Since(start)

	summary.Actions++
	mon.SubTask(fmt.Sprintf("\tFinished in %s", elapsed.Round(time.Millisecond)))

	if e.stats == nil {
		return
	}
	runListener, ok := listener.(tool.RunListener[O])
	if !ok {
		return
	}

	records, err := e.stats.ExecuteStatistics(ctx, object, settings, action, session)
	if err != nil {
		// Statistics are best-effort; the action itself succeeded.
		e.log.Debug("Error collecting statistics", "object", object.FullName(), "error", err)
		return
	}
	if len(records) == 0 {
		return
	}

	for _, record := range records {
		record.SetExecutionTime(elapsed)
	}
	runListener.HandleActionStatistics(object, action, session, records)
}
