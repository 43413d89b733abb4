// Package simulator runs stand-in delivery units that acknowledge the
// missions published for them over MQTT.
package simulator

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultMissionTopic = "fleet/unit/%d/mission"
	DefaultAckTopic     = "fleet/unit/%d/ack"
	DefaultWorkers      = 5
)

// Config holds parameters for the simulator.
type Config struct {
	Broker       string
	UnitIDs      []int
	MissionTopic string
	AckTopic     string
	AckLatency   time.Duration
	DropRate     float64
	Workers      int
}

func (c *Config) SetDefaults() {
	if c.MissionTopic == "" {
		c.MissionTopic = DefaultMissionTopic
	}
	if c.AckTopic == "" {
		c.AckTopic = DefaultAckTopic
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
}

func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("simulator: broker is required")
	}
	if len(c.UnitIDs) == 0 {
		return fmt.Errorf("simulator: at least one unit is required")
	}
	if c.DropRate < 0 || c.DropRate > 1 {
		return fmt.Errorf("simulator: drop rate %.2f outside [0,1]", c.DropRate)
	}
	for _, t := range []string{c.MissionTopic, c.AckTopic} {
		if !strings.Contains(t, "%d") {
			return fmt.Errorf("simulator: topic %q must contain %%d", t)
		}
	}
	return nil
}

// Strategy returns the acknowledgment strategy described by c.
func (c Config) Strategy() AckStrategy {
	if c.DropRate > 0 {
		return RandomAck{Delay: c.AckLatency, DropRate: c.DropRate}
	}
	return AutoAck{Delay: c.AckLatency}
}
