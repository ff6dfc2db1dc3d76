package field

import "errors"

var (
	// ErrIndexOutOfRange is returned when a point index is outside the active range.
	ErrIndexOutOfRange = errors.New("field: index out of range")
	// ErrCapacityExceeded is returned when creating a point on a full evaluator.
	ErrCapacityExceeded = errors.New("field: capacity exceeded")
	// ErrInvalidRadius is returned for radii that are not strictly positive.
	ErrInvalidRadius = errors.New("field: radius must be positive")
	// ErrClosed is returned by queries issued after the querier shut down.
	ErrClosed = errors.New("field: querier closed")
)
