package tool

import "strings"

type (
	// Action is a single unit of generated SQL work: a script fragment plus
	// an optional human-readable title. Actions are created fresh by a
	// Handler for each object and are not reused across objects.
	//
	// A comment action carries no executable work. The engine never executes
	// comment actions, but script generation includes their text so that the
	// produced script remains reviewable by a DBA.
	Action struct {
		// Title is an optional label shown as a progress sub-task while the
		// action executes.
		Title string

		// Script is the SQL text for this action. Blank scripts are skipped
		// during execution but still counted toward progress.
		Script string

		// Comment marks the action as non-executable commentary.
		Comment bool
	}

	// Task identifies one end-to-end invocation of a tool: the tool to run
	// and the raw properties its settings are resolved from.
	Task struct {
		// Name is the user-facing task name (e.g. from sqltool.yaml).
		Name string

		// Tool is the registered name of the tool to execute.
		Tool string

		// Properties holds the raw configuration passed to
		// Settings.LoadConfiguration, including the target object list.
		Properties map[string]any
	}
)

// NewAction creates an executable action with the given title and script.
func NewAction(title, script string) *Action {
	return &Action{Title: title, Script: script}
}

// NewComment creates a non-executable comment action. The text appears in
// generated scripts but is never executed.
func NewComment(text string) *Action {
	return &Action{Script: text, Comment: true}
}

// Blank reports whether the action's script is empty after trimming
// whitespace. Blank actions are skipped during execution.
func (a *Action) Blank() bool {
	return strings.TrimSpace(a.Script) == ""
}
