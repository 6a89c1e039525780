package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTimeout marks a component that exceeded its configured budget.
var ErrTimeout = errors.New("component timed out")

// ComponentError is the failure of a single component, carried inside its
// execution record and, for non-optional components, inside a StageError.
type ComponentError struct {
	Role Role
	ID   string
	Err  error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Role, e.ID, e.Err)
}

func (e *ComponentError) Unwrap() error { return e.Err }

// TimedOut reports whether the component failed by exceeding its timeout.
func (e *ComponentError) TimedOut() bool { return errors.Is(e.Err, ErrTimeout) }

// StageError aggregates the non-optional failures of one stage.
type StageError struct {
	Role   Role
	Failed []*ComponentError
}

func (e *StageError) Error() string {
	ids := make([]string, len(e.Failed))
	for i, ce := range e.Failed {
		ids[i] = ce.ID
	}
	return fmt.Sprintf("%ss stage failed: [%s]", e.Role, strings.Join(ids, ", "))
}

// RunError is returned by Pipeline.Run when the run's overall status is
// failed (sources stage or a non-optional aggregator failed).
type RunError struct {
	Pipeline string
	Cause    *StageError
}

func (e *RunError) Error() string {
	return fmt.Sprintf("pipeline %q run failed: %v", e.Pipeline, e.Cause)
}

func (e *RunError) Unwrap() error { return e.Cause }
