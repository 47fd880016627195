package tool

import "time"

type (
	// Statistics is one structured record describing the effect of a single
	// executed action. Concrete tools embed ExecutionStatistics and add
	// their own fields (row counts, part counts, reclaimed bytes, ...).
	//
	// The engine stamps every record with the measured execution time before
	// delivering it to the listener, so implementations never measure time
	// themselves.
	Statistics interface {
		SetExecutionTime(d time.Duration)
	}

	// ExecutionStatistics is the common base for statistics records. It
	// satisfies the Statistics interface when embedded by pointer.
	ExecutionStatistics struct {
		// ExecutionTime is the measured wall-clock duration of the action
		// this record belongs to.
		ExecutionTime time.Duration
	}
)

// SetExecutionTime records the measured execution time of the originating
// action.
func (s *ExecutionStatistics) SetExecutionTime(d time.Duration) {
	s.ExecutionTime = d
}
