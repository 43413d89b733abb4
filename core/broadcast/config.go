package broadcast

import (
	"fmt"

	"github.com/kilianp07/voicedispatch/core/transcript"
)

// DefaultSubscriberBuffer bounds the per-viewer queue.
const DefaultSubscriberBuffer = 64

// Config controls the history window and per-subscriber buffering.
type Config struct {
	HistorySize      int `json:"history_size"`
	SubscriberBuffer int `json:"subscriber_buffer"`
}

func (c *Config) SetDefaults() {
	if c.HistorySize == 0 {
		c.HistorySize = transcript.DefaultCapacity
	}
	if c.SubscriberBuffer == 0 {
		c.SubscriberBuffer = DefaultSubscriberBuffer
	}
}

func (c Config) Validate() error {
	if c.HistorySize < 1 {
		return fmt.Errorf("history_size must be positive, got %d", c.HistorySize)
	}
	if c.SubscriberBuffer < 1 {
		return fmt.Errorf("subscriber_buffer must be positive, got %d", c.SubscriberBuffer)
	}
	return nil
}
