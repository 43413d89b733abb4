package config

import (
	"github.com/kilianp07/voicedispatch/core/broadcast"
	"github.com/kilianp07/voicedispatch/core/transcript"
)

// TranscriptConfig sizes the live transcript window and viewer queues.
type TranscriptConfig struct {
	HistorySize      int    `json:"history_size"`
	SubscriberBuffer int    `json:"subscriber_buffer"`
	TimeFormat       string `json:"time_format"`
}

func (c *TranscriptConfig) SetDefaults() {
	if c.TimeFormat == "" {
		c.TimeFormat = transcript.DefaultTimeFormat
	}
	h := c.Hub()
	h.SetDefaults()
	c.HistorySize, c.SubscriberBuffer = h.HistorySize, h.SubscriberBuffer
}

func (c TranscriptConfig) Validate() error {
	return c.Hub().Validate()
}

// Hub returns the broadcast settings.
func (c TranscriptConfig) Hub() broadcast.Config {
	return broadcast.Config{HistorySize: c.HistorySize, SubscriberBuffer: c.SubscriberBuffer}
}
