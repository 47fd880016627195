package tool

import (
	"errors"
	"fmt"
)

type (
	// ConfigurationError indicates that tool settings could not be resolved
	// from the supplied properties. It is fatal and surfaces before any
	// execution starts.
	ConfigurationError struct {
		// Property names the offending property, when known.
		Property string
		Err      error
	}

	// SessionError indicates that a session could not be opened for one
	// object. During execution it is isolated to that object's slot (the
	// run continues with the next object); during script generation it is
	// fatal.
	SessionError struct {
		Object string
		Err    error
	}

	// GenerationError indicates that a handler failed to generate actions
	// for an object. It is fatal: a broken generator cannot produce valid
	// work for the remaining objects either.
	GenerationError struct {
		Object string
		Err    error
	}

	// StatementError indicates that a single action failed to execute. It is
	// isolated: logged, counted, and never propagated to the listener's
	// finish callback.
	StatementError struct {
		Object string
		Script string
		Err    error
	}
)

func (e *ConfigurationError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("invalid configuration property %q: %v", e.Property, e.Err)
	}
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *SessionError) Error() string {
	return fmt.Sprintf("failed to open session for %s: %v", e.Object, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate actions for %s: %v", e.Object, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *StatementError) Error() string {
	return fmt.Sprintf("failed to execute statement against %s: %v", e.Object, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsSessionError reports whether err is (or wraps) a SessionError.
func IsSessionError(err error) bool {
	var target *SessionError
	return errors.As(err, &target)
}

// IsGenerationError reports whether err is (or wraps) a GenerationError.
func IsGenerationError(err error) bool {
	var target *GenerationError
	return errors.As(err, &target)
}

// IsStatementError reports whether err is (or wraps) a StatementError.
func IsStatementError(err error) bool {
	var target *StatementError
	return errors.As(err, &target)
}
