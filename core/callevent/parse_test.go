package callevent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderArgs = `{"facility":"City General","urgency":"STAT","medications":[{"name":"Amoxicillin","dosage":"500mg","quantity":20,"form":"tablet"}],"delivery_location":{"building":"Main"}}`

func TestParseToolCallShapes(t *testing.T) {
	cases := map[string]string{
		"functionCall top level": `{"message":{"type":"function-call","functionCall":{"name":"dispatch_drone","parameters":` + orderArgs + `}}}`,
		"functionCall nested":    `{"message":{"type":"function-call","functionCall":{"function":{"name":"dispatch_drone","arguments":` + orderArgs + `}}}}`,
		"toolCalls nested":       `{"message":{"type":"tool-calls","toolCalls":[{"id":"call_1","type":"function","function":{"name":"dispatch_drone","arguments":` + orderArgs + `}},{"function":{"name":"other"}}]}}`,
		"toolCalls top level":    `{"message":{"type":"tool-calls","toolCalls":[{"id":"call_1","name":"dispatch_drone","parameters":` + orderArgs + `}]}}`,
		"empty parameters":       `{"message":{"type":"tool-calls","toolCalls":[{"id":"call_1","parameters":{},"function":{"name":"dispatch_drone","arguments":` + orderArgs + `}}]}}`,
		"null parameters":        `{"message":{"type":"function-call","functionCall":{"parameters":null,"function":{"name":"dispatch_drone","arguments":` + orderArgs + `}}}}`,
		"string arguments":       `{"message":{"type":"tool-calls","toolCalls":[{"id":"call_1","function":{"name":"dispatch_drone","arguments":` + quote(orderArgs) + `}}]}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			ev, err := Parse([]byte(body))
			require.NoError(t, err)
			assert.Equal(t, KindToolCall, ev.Kind)
			require.NotNil(t, ev.ToolCall)
			assert.Equal(t, "dispatch_drone", ev.ToolCall.Name)

			var args struct {
				Facility    string `json:"facility"`
				Medications []any  `json:"medications"`
			}
			require.NoError(t, ev.ToolCall.DecodeArguments(&args))
			assert.Equal(t, "City General", args.Facility)
			assert.Len(t, args.Medications, 1)
		})
	}
}

func quote(s string) string {
	out := []byte{'"'}
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(append(out, '"'))
}

func TestParseTopLevelParametersWin(t *testing.T) {
	ev, err := Parse([]byte(`{"message":{"type":"tool-calls","toolCalls":[{"parameters":{"facility":"Top"},"function":{"name":"dispatch_drone","arguments":{"facility":"Nested"}}}]}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"facility":"Top"}`, string(ev.ToolCall.Arguments))
}

func TestParseToolCallWithoutArguments(t *testing.T) {
	ev, err := Parse([]byte(`{"message":{"type":"tool-calls","toolCalls":[{"function":{"name":"check_status"}}]}}`))
	require.NoError(t, err)
	assert.Equal(t, "check_status", ev.ToolCall.Name)
	assert.JSONEq(t, `{}`, string(ev.ToolCall.Arguments))
}

func TestParseMalformed(t *testing.T) {
	bodies := []string{
		`not json`,
		`{}`,
		`{"message":null}`,
		`{"message":{"status":"x"}}`,
		`{"message":{"type":"tool-calls","toolCalls":[]}}`,
		`{"message":{"type":"function-call"}}`,
		`{"message":{"type":"tool-calls","toolCalls":[{"function":{"arguments":{}}}]}}`,
		`{"message":{"type":"tool-calls","toolCalls":[{"function":{"name":"x","arguments":[1,2]}}]}}`,
		`{"message":{"type":"tool-calls","toolCalls":[{"function":{"name":"x","arguments":"not an object"}}]}}`,
	}
	for _, b := range bodies {
		_, err := Parse([]byte(b))
		if !errors.Is(err, ErrMalformedEvent) {
			t.Errorf("body %s: expected malformed, got %v", b, err)
		}
	}
}

func TestParseCallSummary(t *testing.T) {
	ev, err := Parse([]byte(`{"message":{"type":"end-of-call-report","callId":"c1","durationSeconds":73.5,"status":"ended","cost":0.1234,"transcript":"AI: hi\nUser: hello"}}`))
	require.NoError(t, err)
	assert.Equal(t, KindCallSummary, ev.Kind)
	assert.Equal(t, CallSummary{CallID: "c1", DurationSeconds: 73.5, Status: "ended", Cost: 0.1234, Transcript: "AI: hi\nUser: hello"}, *ev.CallSummary)

	ev, err = Parse([]byte(`{"message":{"type":"end-of-call-report","call":{"id":"c2"},"artifact":{"transcript":"t"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "c2", ev.CallSummary.CallID)
	assert.Equal(t, "t", ev.CallSummary.Transcript)
}

func TestParseSpeechAndConversation(t *testing.T) {
	ev, err := Parse([]byte(`{"message":{"type":"speech-update","status":"stopped","role":"assistant","artifact":{"messages":[{"role":"system","content":"sys"},{"role":"assistant","content":"Order confirmed."}]}}}`))
	require.NoError(t, err)
	assert.Equal(t, KindSpeechUpdate, ev.Kind)
	assert.Equal(t, "assistant", ev.Speech.Role)
	assert.Equal(t, "stopped", ev.Speech.Status)
	assert.Equal(t, []Message{{Role: "system", Content: "sys"}, {Role: "assistant", Content: "Order confirmed."}}, ev.Speech.Messages)

	ev, err = Parse([]byte(`{"message":{"type":"conversation-update","conversation":[{"role":"user","content":"A"},{"role":"bot","message":"B"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, KindConversationUpdate, ev.Kind)
	assert.Equal(t, []Message{{Role: "user", Content: "A"}, {Role: "bot", Content: "B"}}, ev.Conversation.Messages)
}

func TestParseTranscriptAndOther(t *testing.T) {
	ev, err := Parse([]byte(`{"message":{"type":"transcript","role":"user","transcript":"hello"}}`))
	require.NoError(t, err)
	assert.Equal(t, KindTranscript, ev.Kind)
	assert.Equal(t, TranscriptFragment{Role: "user", Text: "hello"}, *ev.Fragment)

	ev, err = Parse([]byte(`{"message":{"type":"status-update","status":"in-progress"}}`))
	require.NoError(t, err)
	assert.Equal(t, KindOther, ev.Kind)
	assert.Equal(t, "status-update", ev.Type)
	assert.Nil(t, ev.ToolCall)
	assert.Nil(t, ev.Speech)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "tool_call", KindToolCall.String())
	assert.Equal(t, "other", Kind(99).String())
}
