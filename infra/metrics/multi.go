package metrics

import coremetrics "github.com/kilianp07/voicedispatch/core/metrics"

// MultiSink fans events out to multiple sinks. Optional recorders are only
// forwarded to the sinks that implement them.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDispatch forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordDispatch(ev); err != nil {
			return err
		}
	}
	return nil
}

func forward[R any](sinks []coremetrics.MetricsSink, call func(R) error) error {
	for _, s := range sinks {
		if rec, ok := s.(R); ok {
			if err := call(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *MultiSink) RecordWebhookEvent(kind string) error {
	return forward(m.Sinks, func(r coremetrics.WebhookEventRecorder) error { return r.RecordWebhookEvent(kind) })
}

func (m *MultiSink) RecordTranscriptEntry(role string) error {
	return forward(m.Sinks, func(r coremetrics.TranscriptRecorder) error { return r.RecordTranscriptEntry(role) })
}

func (m *MultiSink) RecordSubscribers(n int) error {
	return forward(m.Sinks, func(r coremetrics.SubscriberRecorder) error { return r.RecordSubscribers(n) })
}

func (m *MultiSink) RecordDroppedFrame() error {
	return forward(m.Sinks, func(r coremetrics.SubscriberRecorder) error { return r.RecordDroppedFrame() })
}

func (m *MultiSink) RecordAvailableUnits(n int) error {
	return forward(m.Sinks, func(r coremetrics.FleetRecorder) error { return r.RecordAvailableUnits(n) })
}

func (m *MultiSink) RecordMissionAck(ev coremetrics.MissionAckEvent) error {
	return forward(m.Sinks, func(r coremetrics.MissionAckRecorder) error { return r.RecordMissionAck(ev) })
}

func (m *MultiSink) RecordCallCompleted(ev coremetrics.CallEvent) error {
	return forward(m.Sinks, func(r coremetrics.CallRecorder) error { return r.RecordCallCompleted(ev) })
}
