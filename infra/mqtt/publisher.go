package mqtt

import (
	"fmt"
	"sync"
	"time"

	coremqtt "github.com/kilianp07/voicedispatch/core/mqtt"
)

// Sender mirrors the core mqtt.Sender interface.
type Sender = coremqtt.Sender

// MockSender records missions in memory. Units listed in FailUnits fail to
// publish and units in NoAck never acknowledge.
type MockSender struct {
	Missions  []coremqtt.Mission
	FailUnits map[int]bool
	NoAck     map[int]bool
	acks      map[string]bool
	mu        sync.Mutex
}

func NewMockSender() *MockSender {
	return &MockSender{
		FailUnits: make(map[int]bool),
		NoAck:     make(map[int]bool),
		acks:      make(map[string]bool),
	}
}

// SendMission records the mission or returns an error if configured to fail.
func (m *MockSender) SendMission(ms coremqtt.Mission) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUnits[ms.UnitID] {
		return "", fmt.Errorf("publish failed")
	}
	if ms.MissionID == "" {
		ms.MissionID = fmt.Sprintf("mission-%d-%d", ms.UnitID, len(m.Missions)+1)
	}
	m.Missions = append(m.Missions, ms)
	m.acks[ms.MissionID] = !m.NoAck[ms.UnitID]
	return ms.MissionID, nil
}

// WaitForAck answers immediately from the stored result.
func (m *MockSender) WaitForAck(missionID string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	ok, exists := m.acks[missionID]
	m.mu.Unlock()
	if !exists {
		return false, fmt.Errorf("%w: %s", coremqtt.ErrUnknownMission, missionID)
	}
	if !ok {
		return false, coremqtt.ErrAckTimeout
	}
	return true, nil
}

// Sent returns a copy of the recorded missions.
func (m *MockSender) Sent() []coremqtt.Mission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]coremqtt.Mission(nil), m.Missions...)
}
