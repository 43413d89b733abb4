package mqtt

import "time"

// Mission is the hand-off sent to a unit after it has been assigned an order.
type Mission struct {
	MissionID          string `json:"mission_id"`
	OrderID            string `json:"order_id"`
	UnitID             int    `json:"unit_id"`
	Urgency            string `json:"urgency"`
	Facility           string `json:"facility"`
	Department         string `json:"department"`
	Building           string `json:"building,omitempty"`
	Floor              string `json:"floor,omitempty"`
	Area               string `json:"specific_area,omitempty"`
	AccessInstructions string `json:"access_instructions,omitempty"`
	ETAMinutes         int    `json:"eta_minutes"`
	Timestamp          int64  `json:"timestamp"`
}

// Sender delivers missions to units and waits for their acknowledgments.
type Sender interface {
	// SendMission publishes m and returns the identifier used to track the
	// acknowledgment.
	SendMission(m Mission) (missionID string, err error)

	// WaitForAck waits for an acknowledgment for the provided mission
	// identifier or until the timeout expires.
	WaitForAck(missionID string, timeout time.Duration) (bool, error)
}
