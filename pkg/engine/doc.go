// Package engine implements the generic batch execution engine for SQL
// maintenance tools.
//
// Given a tool handler (pkg/tool) and a session provider, the engine
// processes every target object from the resolved settings in order: it
// opens a single-use session, asks the handler for the object's actions, and
// executes them one by one. The same generation path backs script
// generation, so a dry-run preview is always byte-for-byte what execution
// would run.
//
// # Failure model
//
// Failures are handled at two tiers. A single action that fails to execute
// is isolated: the engine logs it, counts it in the RunSummary, and moves to
// the next action, so one bad statement on one table does not block
// maintenance of everything else. A failing generator, by contrast, aborts
// the remaining objects: a tool that cannot produce valid work for one
// object will not produce it for the rest either. Session-open failures sit
// in between: the affected object is skipped, the run continues, and the
// error surfaces as the run error only if nothing failed before it.
//
// # Cancellation
//
// Cancellation is cooperative and polled, before each action and before
// each object. Observing it stops new work but still releases the current
// object's session; nothing already executed is rolled back.
package engine
