package alarm

import "errors"

// Sentinel errors reported by the lifecycle API.
var (
	// ErrInvalidDuration is returned when a duration does not name
	// exactly one positive unit.
	ErrInvalidDuration = errors.New("provide a single positive duration")

	// ErrTooManyAlarms is returned when binding a callback while the
	// active set already holds Capacity armed alarms. The alarm is
	// left inert; cancelling another alarm frees a slot.
	ErrTooManyAlarms = errors.New("alarm cannot be scheduled currently, maximum 16 alarms can run in parallel")
)
