package dispatch

import (
	"fmt"
	"time"
)

const (
	DefaultCallMatchWindowSeconds   = 600
	DefaultMissionAckTimeoutSeconds = 5
)

// Config defines dispatch-related settings.
type Config struct {
	// CallMatchWindowSeconds bounds how old a dispatched order may be to be
	// matched to an end-of-call report.
	CallMatchWindowSeconds   int `json:"call_match_window_seconds"`
	MissionAckTimeoutSeconds int `json:"mission_ack_timeout_seconds"`
}

func (c *Config) SetDefaults() {
	if c.CallMatchWindowSeconds == 0 {
		c.CallMatchWindowSeconds = DefaultCallMatchWindowSeconds
	}
	if c.MissionAckTimeoutSeconds == 0 {
		c.MissionAckTimeoutSeconds = DefaultMissionAckTimeoutSeconds
	}
}

func (c Config) Validate() error {
	if c.CallMatchWindowSeconds < 0 {
		return fmt.Errorf("call_match_window_seconds must not be negative")
	}
	if c.MissionAckTimeoutSeconds < 0 {
		return fmt.Errorf("mission_ack_timeout_seconds must not be negative")
	}
	return nil
}

func (c Config) CallMatchWindow() time.Duration {
	return time.Duration(c.CallMatchWindowSeconds) * time.Second
}

func (c Config) MissionAckTimeout() time.Duration {
	return time.Duration(c.MissionAckTimeoutSeconds) * time.Second
}
