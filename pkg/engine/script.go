package engine

import (
	"context"
	"strings"

	"github.com/angusholder/sqltool/pkg/progress"
	"github.com/angusholder/sqltool/pkg/tool"
)

// scriptDelimiter separates statements in generated scripts.
const scriptDelimiter = ";\n"

// GenerateScript produces the script a run over these settings would
// execute, without executing anything. It reuses the same action generator
// as Execute, so the preview cannot drift from real execution.
//
// For every object, in list order, a session is opened, actions are
// generated, and the session is closed again. Unlike execution, comment
// actions contribute their text to the output; only blank scripts are
// dropped. The result is statement-delimited with ";\n", trimmed, and
// carries one trailing delimiter when non-empty.
//
// Error policy differs from execution: a session-open failure here is fatal
// (*tool.SessionError), as is a generation failure (*tool.GenerationError).
func (e *Engine[O, S]) GenerateScript(ctx context.Context, mon progress.Monitor, settings S) (string, error) {
	var scripts []string

	for _, object := range settings.ObjectList() {
		actions, err := e.generateForObject(ctx, mon, settings, object)
		if err != nil {
			return "", err
		}
		for _, action := range actions {
			if action.Blank() {
				continue
			}
			scripts = append(scripts, action.Script)
		}
	}

	script := strings.TrimSpace(strings.Join(scripts, scriptDelimiter))
	if script != "" {
		// Join doesn't add the trailing delimiter.
		script += scriptDelimiter
	}
	return script, nil
}

func (e *Engine[O, S]) generateForObject(
	ctx context.Context,
	mon progress.Monitor,
	settings S,
	object O,
) ([]*tool.Action, error) {
	session, err := e.sessions.OpenSession(ctx, mon, object, "Generate tool queries")
	if err != nil {
		return nil, &tool.SessionError{Object: object.FullName(), Err: err}
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			e.log.Debug("Error closing session", "object", object.FullName(), "error", cerr)
		}
	}()

	actions, err := e.handler.GenerateActions(ctx, session, settings, object)
	if err != nil {
		return nil, &tool.GenerationError{Object: object.FullName(), Err: err}
	}
	return actions, nil
}
