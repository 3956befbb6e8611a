package sim

import (
	"errors"
	"fmt"
)

// Domain errors for sweep operations.
var (
	// ErrDomain indicates a physically meaningless parameter.
	ErrDomain = errors.New("sim: parameter outside physical domain")

	// ErrEmptySchedule indicates a run with no temperatures.
	ErrEmptySchedule = fmt.Errorf("%w: temperature schedule is empty", ErrDomain)
)

// DomainError identifies which parameter violated its constraint.
type DomainError struct {
	Param  string
	Index  int // position in the schedule, -1 for scalar parameters
	Value  float64
	Reason string
}

func (e *DomainError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("sim: %s[%d]=%v: %s", e.Param, e.Index, e.Value, e.Reason)
	}
	return fmt.Sprintf("sim: %s=%v: %s", e.Param, e.Value, e.Reason)
}

func (e *DomainError) Unwrap() error {
	return ErrDomain
}
