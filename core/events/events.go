package events

import "github.com/kilianp07/voicedispatch/core/model"

// Event is any value published on the bus.
type Event interface {
	EventName() string
}

// UnitDispatched is published after a successful dispatch.
type UnitDispatched struct {
	Order      model.Order
	ETAMinutes int
}

func (UnitDispatched) EventName() string { return "unit_dispatched" }

// CallCompleted is published when an end-of-call report is processed.
// OrderID is empty when no order could be matched to the call.
type CallCompleted struct {
	CallID   string
	OrderID  string
	Status   string
	Duration float64
	Cost     float64
}

func (CallCompleted) EventName() string { return "call_completed" }
