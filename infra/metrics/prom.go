package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/voicedispatch/core/metrics"
)

// PromSink records service activity in Prometheus metrics.
type PromSink struct {
	webhookEvents *prometheus.CounterVec
	dispatches    *prometheus.CounterVec
	transcript    *prometheus.CounterVec
	subscribers   prometheus.Gauge
	dropped       prometheus.Counter
	available     prometheus.Gauge
	missionAcks   *prometheus.CounterVec
	ackLatency    prometheus.Histogram
	calls         *prometheus.CounterVec
	callDuration  prometheus.Histogram
}

// NewPromSink registers metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered under the same name are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.webhookEvents, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Inbound provider events by kind",
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	if s.dispatches, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_events_total",
		Help: "Dispatch attempts by urgency and outcome",
	}, []string{"urgency", "success"})); err != nil {
		return nil, err
	}
	if s.transcript, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_entries_total",
		Help: "Live transcript entries by role",
	}, []string{"role"})); err != nil {
		return nil, err
	}
	if s.subscribers, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "transcript_subscribers",
		Help: "Connected live transcript viewers",
	})); err != nil {
		return nil, err
	}
	if s.dropped, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transcript_dropped_frames_total",
		Help: "Entries discarded because a viewer fell behind",
	})); err != nil {
		return nil, err
	}
	if s.available, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_available_units",
		Help: "Units currently available for dispatch",
	})); err != nil {
		return nil, err
	}
	if s.missionAcks, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_acks_total",
		Help: "Mission hand-offs by acknowledgment",
	}, []string{"acknowledged"})); err != nil {
		return nil, err
	}
	if s.ackLatency, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mission_ack_latency_seconds",
		Help:    "Time between mission publish and acknowledgment",
		Buckets: prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	if s.calls, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calls_completed_total",
		Help: "Completed calls by whether an order was matched",
	}, []string{"matched"})); err != nil {
		return nil, err
	}
	if s.callDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "call_duration_seconds",
		Help:    "Duration of completed calls",
		Buckets: []float64{15, 30, 60, 120, 300, 600},
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *PromSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	s.dispatches.WithLabelValues(ev.Urgency, strconv.FormatBool(ev.Success)).Inc()
	return nil
}

func (s *PromSink) RecordWebhookEvent(kind string) error {
	s.webhookEvents.WithLabelValues(kind).Inc()
	return nil
}

func (s *PromSink) RecordTranscriptEntry(role string) error {
	s.transcript.WithLabelValues(role).Inc()
	return nil
}

func (s *PromSink) RecordSubscribers(n int) error {
	s.subscribers.Set(float64(n))
	return nil
}

func (s *PromSink) RecordDroppedFrame() error {
	s.dropped.Inc()
	return nil
}

func (s *PromSink) RecordAvailableUnits(n int) error {
	s.available.Set(float64(n))
	return nil
}

func (s *PromSink) RecordMissionAck(ev coremetrics.MissionAckEvent) error {
	s.missionAcks.WithLabelValues(strconv.FormatBool(ev.Acknowledged)).Inc()
	if ev.Acknowledged {
		s.ackLatency.Observe(ev.Latency.Seconds())
	}
	return nil
}

func (s *PromSink) RecordCallCompleted(ev coremetrics.CallEvent) error {
	s.calls.WithLabelValues(strconv.FormatBool(ev.OrderID != "")).Inc()
	s.callDuration.Observe(ev.Duration)
	return nil
}
