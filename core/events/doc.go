// Package events defines the domain events emitted on the internal event bus.
//
// Available event types:
//   - UnitDispatched: an order was written to the ledger and a unit reserved
//   - CallCompleted: the provider reported the end of a call
package events
