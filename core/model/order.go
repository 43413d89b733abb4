package model

import (
	"strings"
	"time"
)

// Urgency is the priority level requested by the caller.
type Urgency string

const (
	UrgencyStat    Urgency = "STAT"
	UrgencyUrgent  Urgency = "urgent"
	UrgencyRoutine Urgency = "routine"
)

// Highest reports whether u is the highest urgency tier.
func (u Urgency) Highest() bool { return strings.EqualFold(string(u), string(UrgencyStat)) }

// Elevated reports whether u is the intermediate urgency tier.
func (u Urgency) Elevated() bool { return strings.EqualFold(string(u), string(UrgencyUrgent)) }

// OrderStatusDispatched is the status of every freshly created order.
const OrderStatusDispatched = "dispatched"

// Medication is one requested item of an order.
type Medication struct {
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	Quantity int    `json:"quantity"`
	Form     string `json:"form"`
}

// DeliveryLocation describes where inside the facility the unit must land.
type DeliveryLocation struct {
	Building           string `json:"building,omitempty"`
	Floor              string `json:"floor,omitempty"`
	SpecificArea       string `json:"specific_area,omitempty"`
	AccessInstructions string `json:"access_instructions,omitempty"`
}

// Empty returns true when no field of the location is set.
func (l DeliveryLocation) Empty() bool {
	return l == DeliveryLocation{}
}

// OrderRequest is the payload submitted by a caller, either through the voice
// assistant tool call or through the manual trigger.
type OrderRequest struct {
	CallerName       string            `json:"caller_name"`
	Facility         string            `json:"facility"`
	Department       string            `json:"department"`
	Urgency          Urgency           `json:"urgency"`
	Medications      []Medication      `json:"medications"`
	DeliveryLocation *DeliveryLocation `json:"delivery_location"`
}

// Order is a dispatch record kept by the ledger. The caller payload is
// flattened into the JSON representation next to the derived fields.
type Order struct {
	OrderID          string    `json:"order_id"`
	DroneID          int       `json:"drone_id"`
	ConfirmationCode string    `json:"confirmation_code"`
	Timestamp        time.Time `json:"timestamp"`
	ETA              time.Time `json:"eta"`
	Status           string    `json:"status"`
	OrderRequest

	Transcript   string  `json:"transcript,omitempty"`
	CallDuration float64 `json:"call_duration,omitempty"`
}
