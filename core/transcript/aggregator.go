// Package transcript extracts utterances from provider events and keeps the
// bounded live window they are appended to.
package transcript

import (
	"context"
	"time"

	"github.com/kilianp07/voicedispatch/core/callevent"
	"github.com/kilianp07/voicedispatch/core/logger"
	"github.com/kilianp07/voicedispatch/core/metrics"
	"github.com/kilianp07/voicedispatch/core/model"
)

// DefaultTimeFormat renders entry times as "03:04 PM".
const DefaultTimeFormat = "03:04 PM"

// Sink receives every new entry. broadcast.Hub implements it.
type Sink interface {
	Publish(model.TranscriptEntry)
}

// Aggregator turns speech and conversation updates into transcript entries.
type Aggregator struct {
	sink       Sink
	log        logger.Logger
	metrics    metrics.MetricsSink
	timeFormat string
	now        func() time.Time
}

// Option customises an Aggregator.
type Option func(*Aggregator)

// WithTimeFormat sets the layout used to render entry times.
func WithTimeFormat(layout string) Option {
	return func(a *Aggregator) {
		if layout != "" {
			a.timeFormat = layout
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithMetrics records entries on sink.
func WithMetrics(sink metrics.MetricsSink) Option {
	return func(a *Aggregator) {
		if sink != nil {
			a.metrics = sink
		}
	}
}

func NewAggregator(sink Sink, log logger.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		sink:       sink,
		log:        log,
		metrics:    metrics.NopSink{},
		timeFormat: DefaultTimeFormat,
		now:        time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// HandleSpeechUpdate publishes the utterance of a stopped speech segment.
func (a *Aggregator) HandleSpeechUpdate(_ context.Context, su callevent.SpeechUpdate) (model.TranscriptEntry, bool) {
	role, text, ok := FromSpeechUpdate(su)
	if !ok {
		return model.TranscriptEntry{}, false
	}
	return a.emit(role, text), true
}

// HandleConversationUpdate publishes the latest non-system message.
func (a *Aggregator) HandleConversationUpdate(_ context.Context, cu callevent.ConversationUpdate) (model.TranscriptEntry, bool) {
	role, text, ok := FromConversation(cu)
	if !ok {
		return model.TranscriptEntry{}, false
	}
	return a.emit(role, text), true
}

func (a *Aggregator) emit(role, text string) model.TranscriptEntry {
	e := model.TranscriptEntry{
		Speaker: model.SpeakerFor(role),
		Text:    text,
		Time:    a.now().Format(a.timeFormat),
		Role:    role,
	}
	a.sink.Publish(e)
	a.log.Infof("[%s] %s: %s", e.Speaker, e.Time, e.Text)
	if rec, ok := a.metrics.(metrics.TranscriptRecorder); ok {
		if err := rec.RecordTranscriptEntry(role); err != nil {
			a.log.Errorf("transcript metrics error: %v", err)
		}
	}
	return e
}
