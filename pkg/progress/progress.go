// Package progress defines the cooperative progress/cancellation contract
// used by the maintenance engine, plus the stock implementations: a
// writer-backed console monitor, a no-op monitor, and a wrapper that folds
// context cancellation into the Canceled poll.
package progress

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
)

type (
	// Monitor reports progress of one task run and exposes cooperative
	// cancellation. The engine polls Canceled before each action; once it
	// observes true, no further actions for the current object execute and
	// no further objects are started.
	//
	// Units of work: one unit per generated action plus one unit per
	// completed object. Done is called exactly once per run, on every exit
	// path.
	Monitor interface {
		Begin(label string, totalUnits int)
		SubTask(label string)
		Worked(units int)
		Canceled() bool
		Done()
	}

	// Console is a Monitor that writes human-readable progress lines to a
	// writer. It never cancels on its own.
	Console struct {
		w      io.Writer
		total  int
		worked int
	}

	nop struct{}

	ctxMonitor struct {
		Monitor
		ctx context.Context
	}

	// Flag is a manually toggled cancellation source that can be combined
	// with any Monitor via WithFlag. It is safe for concurrent use, so a
	// signal handler may trip it while the engine runs.
	Flag struct {
		canceled atomic.Bool
	}

	flagMonitor struct {
		Monitor
		flag *Flag
	}
)

// NewConsole creates a console monitor writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Begin(label string, totalUnits int) {
	c.total = totalUnits
	c.worked = 0
	fmt.Fprintf(c.w, "%s (%d objects)\n", label, totalUnits)
}

func (c *Console) SubTask(label string) {
	fmt.Fprintf(c.w, "  %s\n", label)
}

func (c *Console) Worked(units int) {
	c.worked += units
}

func (c *Console) Canceled() bool { return false }

func (c *Console) Done() {
	fmt.Fprintf(c.w, "Finished (%d units)\n", c.worked)
}

// Nop returns a Monitor that discards all progress and never cancels.
func Nop() Monitor { return nop{} }

func (nop) Begin(string, int) {}
func (nop) SubTask(string)    {}
func (nop) Worked(int)        {}
func (nop) Canceled() bool    { return false }
func (nop) Done()             {}

// WithContext wraps a monitor so that Canceled also reports true once the
// context is done. This is how CLI interrupts reach the engine's
// cooperative cancellation polls.
func WithContext(ctx context.Context, m Monitor) Monitor {
	return &ctxMonitor{Monitor: m, ctx: ctx}
}

func (c *ctxMonitor) Canceled() bool {
	return c.ctx.Err() != nil || c.Monitor.Canceled()
}

// Cancel trips the flag. Subsequent Canceled calls on monitors wrapped with
// WithFlag report true.
func (f *Flag) Cancel() {
	f.canceled.Store(true)
}

// Canceled reports whether Cancel has been called.
func (f *Flag) Canceled() bool {
	return f.canceled.Load()
}

// WithFlag wraps a monitor so that Canceled also reports true once the flag
// has been tripped.
func WithFlag(f *Flag, m Monitor) Monitor {
	return &flagMonitor{Monitor: m, flag: f}
}

func (m *flagMonitor) Canceled() bool {
	return m.flag.Canceled() || m.Monitor.Canceled()
}
