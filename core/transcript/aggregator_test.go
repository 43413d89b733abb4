package transcript

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/voicedispatch/core/callevent"
	"github.com/kilianp07/voicedispatch/core/model"
	"github.com/kilianp07/voicedispatch/infra/logger"
)

type sliceSink struct{ entries []model.TranscriptEntry }

func (s *sliceSink) Publish(e model.TranscriptEntry) { s.entries = append(s.entries, e) }

func newTestAggregator() (*Aggregator, *sliceSink) {
	sink := &sliceSink{}
	clock := func() time.Time { return time.Date(2026, 2, 15, 1, 40, 0, 0, time.UTC) }
	return NewAggregator(sink, logger.NopLogger{}, WithClock(clock)), sink
}

func TestSpeechUpdateStopped(t *testing.T) {
	a, sink := newTestAggregator()
	su := callevent.SpeechUpdate{
		Role:   "assistant",
		Status: "stopped",
		Messages: []callevent.Message{
			{Role: "system", Content: "You are a professional medical emergency..."},
			{Role: "assistant", Content: "Earlier."},
			{Role: "user", Content: "Yes."},
			{Role: "assistant", Content: "Order confirmed. Drone unit one dispatched."},
		},
	}
	e, ok := a.HandleSpeechUpdate(context.Background(), su)
	require.True(t, ok)
	assert.Equal(t, model.TranscriptEntry{Speaker: "VAPI Agent", Text: "Order confirmed. Drone unit one dispatched.", Time: "01:40 AM", Role: "assistant"}, e)
	require.Len(t, sink.entries, 1)
	assert.Equal(t, e, sink.entries[0])
}

func TestSpeechUpdateUserRole(t *testing.T) {
	a, sink := newTestAggregator()
	su := callevent.SpeechUpdate{Role: "user", Status: "stopped", Messages: []callevent.Message{{Role: "user", Content: "Yes. Correct."}}}
	e, ok := a.HandleSpeechUpdate(context.Background(), su)
	require.True(t, ok)
	assert.Equal(t, "User", e.Speaker)
	assert.Len(t, sink.entries, 1)
}

func TestSpeechUpdateIgnored(t *testing.T) {
	a, sink := newTestAggregator()
	cases := []callevent.SpeechUpdate{
		{Role: "assistant", Status: "in-progress", Messages: []callevent.Message{{Role: "assistant", Content: "partial"}}},
		{Role: "assistant", Status: "started", Messages: []callevent.Message{{Role: "assistant", Content: "partial"}}},
		{Role: "assistant", Status: "stopped"},
		{Role: "assistant", Status: "stopped", Messages: []callevent.Message{{Role: "user", Content: "only user"}}},
		{Role: "assistant", Status: "stopped", Messages: []callevent.Message{{Role: "assistant", Content: ""}}},
	}
	for i, su := range cases {
		if _, ok := a.HandleSpeechUpdate(context.Background(), su); ok {
			t.Errorf("case %d: expected no entry", i)
		}
	}
	assert.Empty(t, sink.entries)
}

func TestConversationUpdateSkipsSystem(t *testing.T) {
	a, sink := newTestAggregator()
	cu := callevent.ConversationUpdate{Messages: []callevent.Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "A"},
		{Role: "assistant", Content: "B"},
	}}
	e, ok := a.HandleConversationUpdate(context.Background(), cu)
	require.True(t, ok)
	assert.Equal(t, "B", e.Text)
	assert.Equal(t, "assistant", e.Role)
	assert.Equal(t, "VAPI Agent", e.Speaker)

	cu.Messages = append(cu.Messages, callevent.Message{Role: "system", Content: "later system"})
	e, ok = a.HandleConversationUpdate(context.Background(), cu)
	require.True(t, ok)
	assert.Equal(t, "B", e.Text)
	assert.Len(t, sink.entries, 2)
}

func TestConversationUpdateNothingToExtract(t *testing.T) {
	a, sink := newTestAggregator()
	for _, msgs := range [][]callevent.Message{
		nil,
		{{Role: "system", Content: "sys"}},
		{{Role: "user", Content: "A"}, {Role: "assistant", Content: ""}},
	} {
		if _, ok := a.HandleConversationUpdate(context.Background(), callevent.ConversationUpdate{Messages: msgs}); ok {
			t.Errorf("expected no entry for %v", msgs)
		}
	}
	assert.Empty(t, sink.entries)
}

func TestSpeakerLabels(t *testing.T) {
	assert.Equal(t, "VAPI Agent", model.SpeakerFor("assistant"))
	assert.Equal(t, "User", model.SpeakerFor("user"))
	assert.Equal(t, "User", model.SpeakerFor("unknown"))
}
