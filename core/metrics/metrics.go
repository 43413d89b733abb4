package metrics

import "time"

// DispatchEvent is recorded for every dispatch attempt.
type DispatchEvent struct {
	OrderID    string
	UnitID     int
	Urgency    string
	ETAMinutes int
	Success    bool
	Reason     string
	Time       time.Time
}

// MetricsSink records dispatch outcomes.
type MetricsSink interface {
	RecordDispatch(ev DispatchEvent) error
}

// WebhookEventRecorder records classified inbound events by kind.
type WebhookEventRecorder interface {
	RecordWebhookEvent(kind string) error
}

// TranscriptRecorder records live transcript entries by role.
type TranscriptRecorder interface {
	RecordTranscriptEntry(role string) error
}

// SubscriberRecorder tracks live transcript viewers.
type SubscriberRecorder interface {
	RecordSubscribers(n int) error
	RecordDroppedFrame() error
}

// FleetRecorder records the number of available units.
type FleetRecorder interface {
	RecordAvailableUnits(n int) error
}

// MissionAckEvent captures the acknowledgment of a mission sent to a unit.
type MissionAckEvent struct {
	OrderID      string
	UnitID       int
	Acknowledged bool
	Latency      time.Duration
	Error        string
	Time         time.Time
}

// MissionAckRecorder records mission acknowledgments.
type MissionAckRecorder interface {
	RecordMissionAck(ev MissionAckEvent) error
}

// CallEvent summarises a completed voice call.
type CallEvent struct {
	CallID   string
	OrderID  string
	Status   string
	Duration float64
	Cost     float64
	Time     time.Time
}

// CallRecorder records completed calls.
type CallRecorder interface {
	RecordCallCompleted(ev CallEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordDispatch(DispatchEvent) error     { return nil }
func (NopSink) RecordWebhookEvent(string) error        { return nil }
func (NopSink) RecordTranscriptEntry(string) error     { return nil }
func (NopSink) RecordSubscribers(int) error            { return nil }
func (NopSink) RecordDroppedFrame() error              { return nil }
func (NopSink) RecordAvailableUnits(int) error         { return nil }
func (NopSink) RecordMissionAck(MissionAckEvent) error { return nil }
func (NopSink) RecordCallCompleted(CallEvent) error    { return nil }
