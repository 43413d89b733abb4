// Package webhook implements the reactions to provider call events: tool
// invocations dispatch orders, call summaries are attached to their order and
// speech updates feed the live transcript.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/voicedispatch/core/callevent"
	"github.com/kilianp07/voicedispatch/core/dispatch"
	"github.com/kilianp07/voicedispatch/core/events"
	"github.com/kilianp07/voicedispatch/core/ledger"
	"github.com/kilianp07/voicedispatch/core/logger"
	"github.com/kilianp07/voicedispatch/core/model"
	"github.com/kilianp07/voicedispatch/internal/eventbus"
)

// DispatchFunction is the only tool the assistant may invoke.
const DispatchFunction = "dispatch_drone"

const (
	validationFailedMsg = "Order validation failed: %s. Please call back with corrected information."
	systemIssueMsg      = "I apologize, but we're experiencing a system issue. Please try again or call our emergency line."
	confirmedMsg        = "Order confirmed. Drone Unit %d dispatched. Estimated arrival: %d minutes. Your tracking code is %s."
)

const previewLen = 200

// Dispatcher creates an order from a validated request.
type Dispatcher interface {
	Dispatch(ctx context.Context, req model.OrderRequest) (dispatch.Result, error)
}

// Transcriber turns speech and conversation updates into transcript entries.
type Transcriber interface {
	HandleSpeechUpdate(ctx context.Context, su callevent.SpeechUpdate) (model.TranscriptEntry, bool)
	HandleConversationUpdate(ctx context.Context, cu callevent.ConversationUpdate) (model.TranscriptEntry, bool)
}

// Handler implements callevent.Handler.
type Handler struct {
	dispatcher  Dispatcher
	orders      ledger.Store
	transcripts Transcriber
	bus         eventbus.EventBus[events.Event]
	log         logger.Logger
	matchWindow time.Duration
	now         func() time.Time
}

// Option customises a Handler.
type Option func(*Handler)

// WithBus publishes events.CallCompleted for every call summary.
func WithBus(bus eventbus.EventBus[events.Event]) Option {
	return func(h *Handler) { h.bus = bus }
}

// WithMatchWindow bounds the age of an order matched to a call summary.
func WithMatchWindow(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.matchWindow = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func NewHandler(d Dispatcher, orders ledger.Store, tr Transcriber, log logger.Logger, opts ...Option) *Handler {
	h := &Handler{
		dispatcher:  d,
		orders:      orders,
		transcripts: tr,
		log:         log,
		matchWindow: time.Duration(dispatch.DefaultCallMatchWindowSeconds) * time.Second,
		now:         time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// HandleToolCall dispatches an order for dispatch_drone invocations and
// returns the sentence spoken back to the caller.
func (h *Handler) HandleToolCall(ctx context.Context, call callevent.ToolCall) callevent.Ack {
	if call.Name != DispatchFunction {
		h.log.Warnf("ignoring unknown function %q", call.Name)
		return callevent.OK()
	}
	var req model.OrderRequest
	if err := call.DecodeArguments(&req); err != nil {
		h.log.Warnf("decode %s arguments: %v", call.Name, err)
		return callevent.Spoken(fmt.Sprintf(validationFailedMsg, "Order details could not be read"))
	}
	h.logOrder(req)

	res, err := h.dispatcher.Dispatch(ctx, req)
	var verr *dispatch.ValidationError
	switch {
	case errors.As(err, &verr):
		return callevent.Spoken(fmt.Sprintf(validationFailedMsg, verr.Reason))
	case err != nil:
		h.log.Errorf("dispatch failed: %v", err)
		return callevent.Spoken(systemIssueMsg)
	}
	return callevent.Spoken(fmt.Sprintf(confirmedMsg, res.DroneID, res.ETAMinutes, res.ConfirmationCode))
}

func (h *Handler) logOrder(req model.OrderRequest) {
	fields := map[string]any{
		"caller":      req.CallerName,
		"facility":    req.Facility,
		"department":  req.Department,
		"urgency":     string(req.Urgency),
		"medications": len(req.Medications),
	}
	if loc := req.DeliveryLocation; loc != nil {
		fields["building"] = loc.Building
		fields["floor"] = loc.Floor
		fields["area"] = loc.SpecificArea
	}
	h.log.Infow("order received via voice call", fields)
	for i, m := range req.Medications {
		h.log.Debugf("medication %d: %s %s x%d %s", i+1, m.Name, m.Dosage, m.Quantity, m.Form)
	}
}

// HandleCallSummary attaches the call transcript to the oldest order still
// dispatched within the match window.
func (h *Handler) HandleCallSummary(_ context.Context, sum callevent.CallSummary) {
	h.log.Infow("call completed", map[string]any{
		"call_id":  sum.CallID,
		"duration": sum.DurationSeconds,
		"status":   sum.Status,
		"cost":     fmt.Sprintf("%.4f", sum.Cost),
	})
	h.log.Debugf("transcript preview: %s", preview(sum.Transcript))

	completed := events.CallCompleted{
		CallID:   sum.CallID,
		Status:   sum.Status,
		Duration: sum.DurationSeconds,
		Cost:     sum.Cost,
	}
	order, ok := h.orders.FindDispatchedSince(h.now().Add(-h.matchWindow))
	if ok {
		if err := h.orders.AttachTranscript(order.OrderID, sum.Transcript, sum.DurationSeconds); err != nil {
			h.log.Warnf("attach transcript to %s: %v", order.OrderID, err)
		} else {
			completed.OrderID = order.OrderID
			h.log.Infof("call %s matched order %s (%s)", sum.CallID, order.OrderID, order.ConfirmationCode)
		}
	} else {
		h.log.Infof("no order found for call %s", sum.CallID)
	}
	if h.bus != nil {
		h.bus.Publish(completed)
	}
}

func (h *Handler) HandleSpeechUpdate(ctx context.Context, su callevent.SpeechUpdate) {
	h.transcripts.HandleSpeechUpdate(ctx, su)
}

func (h *Handler) HandleConversationUpdate(ctx context.Context, cu callevent.ConversationUpdate) {
	h.transcripts.HandleConversationUpdate(ctx, cu)
}

// HandleTranscriptFragment only logs the fragment; the live transcript is
// built from speech updates.
func (h *Handler) HandleTranscriptFragment(_ context.Context, tf callevent.TranscriptFragment) {
	h.log.Infof("[%s] %s", tf.Role, tf.Text)
}

func (h *Handler) HandleOther(_ context.Context, ev callevent.Event) {
	h.log.Debugf("unhandled event type %q", ev.Type)
}

func preview(s string) string {
	if s == "" {
		return "No transcript available"
	}
	r := []rune(s)
	if len(r) > previewLen {
		return string(r[:previewLen]) + "..."
	}
	return s
}
