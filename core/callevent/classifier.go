package callevent

import (
	"context"

	"github.com/kilianp07/voicedispatch/core/logger"
	"github.com/kilianp07/voicedispatch/core/metrics"
)

// Ack is the response body returned to the provider. Result is spoken back to
// the caller verbatim and is only set for tool invocations.
type Ack struct {
	Result string `json:"result,omitempty"`
	Status string `json:"status,omitempty"`
}

// OK is the generic success acknowledgment.
func OK() Ack { return Ack{Status: "ok"} }

// Spoken returns an acknowledgment carrying a sentence for the caller.
func Spoken(text string) Ack { return Ack{Result: text} }

// Handler reacts to classified events. Only tool calls produce a specific
// acknowledgment; every other kind is acknowledged with OK.
type Handler interface {
	HandleToolCall(ctx context.Context, call ToolCall) Ack
	HandleCallSummary(ctx context.Context, sum CallSummary)
	HandleSpeechUpdate(ctx context.Context, su SpeechUpdate)
	HandleConversationUpdate(ctx context.Context, cu ConversationUpdate)
	HandleTranscriptFragment(ctx context.Context, tf TranscriptFragment)
	HandleOther(ctx context.Context, ev Event)
}

// Classifier parses inbound bodies and routes them to a Handler. Process
// never fails: malformed bodies and handler panics are logged and the
// generic acknowledgment is returned so the provider does not retry.
type Classifier struct {
	handler Handler
	log     logger.Logger
	metrics metrics.MetricsSink
}

// NewClassifier creates a Classifier. sink may be nil.
func NewClassifier(h Handler, log logger.Logger, sink metrics.MetricsSink) *Classifier {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Classifier{handler: h, log: log, metrics: sink}
}

// Process classifies body and invokes the matching handler.
func (c *Classifier) Process(ctx context.Context, body []byte) (ack Ack) {
	ev, err := Parse(body)
	if err != nil {
		c.record("malformed")
		c.log.Warnf("webhook: %v", err)
		return OK()
	}
	c.record(ev.Kind.String())
	c.log.Infof("webhook received: %s", ev.Type)
	return c.Route(ctx, ev)
}

// Route invokes the handler for an already parsed event.
func (c *Classifier) Route(ctx context.Context, ev Event) (ack Ack) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorf("webhook: %s handler panic: %v", ev.Type, r)
			ack = OK()
		}
	}()
	switch ev.Kind {
	case KindToolCall:
		return c.handler.HandleToolCall(ctx, *ev.ToolCall)
	case KindCallSummary:
		c.handler.HandleCallSummary(ctx, *ev.CallSummary)
	case KindSpeechUpdate:
		c.handler.HandleSpeechUpdate(ctx, *ev.Speech)
	case KindConversationUpdate:
		c.handler.HandleConversationUpdate(ctx, *ev.Conversation)
	case KindTranscript:
		c.handler.HandleTranscriptFragment(ctx, *ev.Fragment)
	default:
		c.handler.HandleOther(ctx, ev)
	}
	return OK()
}

func (c *Classifier) record(kind string) {
	rec, ok := c.metrics.(metrics.WebhookEventRecorder)
	if !ok {
		return
	}
	if err := rec.RecordWebhookEvent(kind); err != nil {
		c.log.Errorf("webhook metrics error: %v", err)
	}
}
