package engine

import "errors"

var (
	// ErrNoEffortData is returned by the by_effort policy when no sub-unit carries hours.
	ErrNoEffortData = errors.New("no sub-unit has estimated hours")

	ErrUnknownPolicy = errors.New("unknown redistribution policy")

	// ErrTooManySubUnits is returned when the minimum weight cannot be honored for every sub-unit.
	ErrTooManySubUnits = errors.New("too many sub-units for the minimum weight")
)
