package simulator

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/kilianp07/voicedispatch/core/logger"
)

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func roll() float64 {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Float64()
}

// AckStrategy defines how a unit acknowledges missions. It reports whether
// an acknowledgment was published.
type AckStrategy interface {
	Ack(ctx context.Context, cli Publisher, topic, missionID string, log logger.Logger) bool
}

// AutoAck sends an ACK after an optional fixed delay.
type AutoAck struct {
	Delay time.Duration
}

// Ack implements AckStrategy.
func (a AutoAck) Ack(ctx context.Context, cli Publisher, topic, missionID string, log logger.Logger) bool {
	if !sleep(ctx, a.Delay) {
		return false
	}
	return publishAck(cli, topic, missionID, log)
}

// RandomAck drops acknowledgments with the configured probability and
// waits for the specified delay before sending.
type RandomAck struct {
	Delay    time.Duration
	DropRate float64
}

// Ack implements AckStrategy.
func (r RandomAck) Ack(ctx context.Context, cli Publisher, topic, missionID string, log logger.Logger) bool {
	if r.DropRate > 0 && roll() < r.DropRate {
		log.Debugf("dropping ack for mission %s", missionID)
		return false
	}
	if !sleep(ctx, r.Delay) {
		return false
	}
	return publishAck(cli, topic, missionID, log)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func publishAck(cli Publisher, topic, missionID string, log logger.Logger) bool {
	payload, err := json.Marshal(struct {
		MissionID string `json:"mission_id"`
	}{MissionID: missionID})
	if err != nil {
		log.Errorf("marshal ack: %v", err)
		return false
	}
	token := cli.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		log.Warnf("ack publish timeout on %s", topic)
		return false
	}
	if err := token.Error(); err != nil {
		log.Errorf("publish ack on %s: %v", topic, err)
		return false
	}
	return true
}
