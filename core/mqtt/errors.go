package mqtt

import "errors"

var (
	// ErrAckTimeout is returned when no acknowledgment is received before the timeout.
	ErrAckTimeout = errors.New("timeout waiting for ack")
	// ErrUnknownMission is returned when waiting on a mission that was never sent.
	ErrUnknownMission = errors.New("unknown mission")
)
