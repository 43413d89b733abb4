package dispatch

import (
	"strings"

	"github.com/google/uuid"

	"github.com/kilianp07/voicedispatch/core/model"
)

// Validate checks that req carries at least one medication and a delivery
// location.
func Validate(req model.OrderRequest) error {
	if len(req.Medications) == 0 {
		return &ValidationError{Reason: "No medications specified"}
	}
	if req.DeliveryLocation == nil || req.DeliveryLocation.Empty() {
		return &ValidationError{Reason: "No delivery location specified"}
	}
	return nil
}

// ETAMinutes is a static lookup by urgency tier.
func ETAMinutes(u model.Urgency) int {
	switch {
	case u.Highest():
		return 2
	case u.Elevated():
		return 3
	default:
		return 5
	}
}

// TrackingCode builds "<PREFIX>-<SUFFIX>" where PREFIX is the first three
// characters of the facility in upper case, or UNK when it is blank.
func TrackingCode(facility, suffix string) string {
	prefix := []rune(strings.TrimSpace(facility))
	if len(prefix) == 0 {
		prefix = []rune("UNK")
	}
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return strings.ToUpper(string(prefix)) + "-" + strings.ToUpper(suffix)
}

// randomHex returns four upper case hex digits from a random UUID.
func randomHex() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
}
