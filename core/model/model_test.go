package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUrgencyTiers(t *testing.T) {
	if !Urgency("stat").Highest() || !UrgencyStat.Highest() {
		t.Fatalf("STAT should be the highest tier regardless of case")
	}
	if UrgencyUrgent.Highest() || !UrgencyUrgent.Elevated() {
		t.Fatalf("urgent should only be elevated")
	}
	if UrgencyRoutine.Highest() || UrgencyRoutine.Elevated() || Urgency("").Elevated() {
		t.Fatalf("routine and unknown urgencies are neither tier")
	}
}

func TestUnitEligible(t *testing.T) {
	u := Unit{ID: 1, Status: UnitAvailable, Battery: 31}
	if !u.Eligible(30) {
		t.Fatalf("expected unit above threshold to be eligible")
	}
	u.Battery = 30
	if u.Eligible(30) {
		t.Fatalf("threshold is exclusive")
	}
	u = Unit{ID: 1, Status: UnitReserved, Battery: 90}
	if u.Eligible(30) {
		t.Fatalf("reserved unit must not be eligible")
	}
}

func TestDeliveryLocationEmpty(t *testing.T) {
	if !(DeliveryLocation{}).Empty() {
		t.Fatalf("zero location should be empty")
	}
	if (DeliveryLocation{Floor: "2"}).Empty() {
		t.Fatalf("location with a floor is not empty")
	}
}

func TestSpeakerFor(t *testing.T) {
	cases := map[string]string{
		RoleAssistant: SpeakerAgent,
		RoleUser:      SpeakerUser,
		"bot":         SpeakerUser,
	}
	for role, want := range cases {
		if got := SpeakerFor(role); got != want {
			t.Errorf("SpeakerFor(%q) = %q, want %q", role, got, want)
		}
	}
}

func TestOrderJSONFlattensRequest(t *testing.T) {
	o := Order{OrderID: "o1", DroneID: 2, Status: OrderStatusDispatched, OrderRequest: OrderRequest{Facility: "City", Urgency: UrgencyStat}}
	b, err := json.Marshal(o)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	for _, want := range []string{`"order_id":"o1"`, `"facility":"City"`, `"urgency":"STAT"`, `"drone_id":2`} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %s in %s", want, s)
		}
	}
	if strings.Contains(s, "transcript") {
		t.Errorf("empty transcript should be omitted: %s", s)
	}
}
