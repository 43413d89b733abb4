package dispatch

import "errors"

var (
	// ErrInvalidOrder is returned when a payload misses a required field.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrDispatchFailed is returned when no unit could be assigned or the
	// order could not be recorded.
	ErrDispatchFailed = errors.New("dispatch failed")
)

// ValidationError names the missing part of an order. It matches
// ErrInvalidOrder with errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidOrder }
