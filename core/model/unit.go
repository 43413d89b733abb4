package model

// UnitStatus describes whether a unit can take a new mission.
type UnitStatus string

const (
	UnitAvailable UnitStatus = "available"
	UnitReserved  UnitStatus = "reserved"
)

// Unit represents a mobile delivery unit of the fleet.
type Unit struct {
	ID       int        `json:"id"`
	Status   UnitStatus `json:"status"`
	Battery  int        `json:"battery"`  // capacity level between 0 and 100
	Location string     `json:"location"` // free text location tag
}

// Available reports whether the unit is free for a new mission.
func (u Unit) Available() bool { return u.Status == UnitAvailable }

// Eligible returns true if the unit is available and its capacity level is
// strictly above minCapacity.
func (u Unit) Eligible(minCapacity int) bool {
	return u.Available() && u.Battery > minCapacity
}
