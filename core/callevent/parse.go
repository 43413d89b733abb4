package callevent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedEvent is returned for envelopes that cannot be normalized.
var ErrMalformedEvent = errors.New("malformed event")

type envelope struct {
	Message json.RawMessage `json:"message"`
}

type wireFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type wireCall struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Parameters json.RawMessage `json:"parameters"`
	Function   *wireFunction   `json:"function"`
}

type wireChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Message is used by some artifact payloads instead of content.
	Message string `json:"message"`
}

type wireMessage struct {
	Type string `json:"type"`

	FunctionCall *wireCall  `json:"functionCall"`
	ToolCalls    []wireCall `json:"toolCalls"`

	CallID string `json:"callId"`
	Call   *struct {
		ID string `json:"id"`
	} `json:"call"`
	DurationSeconds float64 `json:"durationSeconds"`
	Cost            float64 `json:"cost"`
	Status          string  `json:"status"`
	Transcript      string  `json:"transcript"`

	Role     string `json:"role"`
	Artifact *struct {
		Messages   []wireChatMessage `json:"messages"`
		Transcript string            `json:"transcript"`
	} `json:"artifact"`
	Conversation []wireChatMessage `json:"conversation"`
}

// Parse normalizes a raw webhook body into an Event. Errors wrap
// ErrMalformedEvent.
func Parse(body []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, fmt.Errorf("%w: decode envelope: %v", ErrMalformedEvent, err)
	}
	if len(env.Message) == 0 || bytes.Equal(env.Message, []byte("null")) {
		return Event{}, fmt.Errorf("%w: missing message", ErrMalformedEvent)
	}
	var msg wireMessage
	if err := json.Unmarshal(env.Message, &msg); err != nil {
		return Event{}, fmt.Errorf("%w: decode message: %v", ErrMalformedEvent, err)
	}
	if msg.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}

	ev := Event{Kind: kindFromType(msg.Type), Type: msg.Type, Raw: env.Message}
	switch ev.Kind {
	case KindToolCall:
		call, err := normalizeCall(msg)
		if err != nil {
			return Event{}, err
		}
		ev.ToolCall = &call
	case KindCallSummary:
		sum := CallSummary{
			CallID:          msg.CallID,
			DurationSeconds: msg.DurationSeconds,
			Status:          msg.Status,
			Cost:            msg.Cost,
			Transcript:      msg.Transcript,
		}
		if sum.CallID == "" && msg.Call != nil {
			sum.CallID = msg.Call.ID
		}
		if sum.Transcript == "" && msg.Artifact != nil {
			sum.Transcript = msg.Artifact.Transcript
		}
		ev.CallSummary = &sum
	case KindSpeechUpdate:
		su := SpeechUpdate{Role: msg.Role, Status: msg.Status}
		if msg.Artifact != nil {
			su.Messages = convertMessages(msg.Artifact.Messages)
		}
		ev.Speech = &su
	case KindConversationUpdate:
		ev.Conversation = &ConversationUpdate{Messages: convertMessages(msg.Conversation)}
	case KindTranscript:
		ev.Fragment = &TranscriptFragment{Role: msg.Role, Text: msg.Transcript}
	}
	return ev, nil
}

// normalizeCall accepts a singular functionCall object or the first element
// of toolCalls, with name and arguments either at the top level of the call
// or nested under "function".
func normalizeCall(msg wireMessage) (ToolCall, error) {
	var wc *wireCall
	switch {
	case msg.FunctionCall != nil:
		wc = msg.FunctionCall
	case len(msg.ToolCalls) > 0:
		wc = &msg.ToolCalls[0]
	default:
		return ToolCall{}, fmt.Errorf("%w: %s without call", ErrMalformedEvent, msg.Type)
	}

	call := ToolCall{ID: wc.ID, Name: wc.Name}
	args := wc.Parameters
	if wc.Function != nil {
		if wc.Function.Name != "" {
			call.Name = wc.Function.Name
		}
		if isBlankArguments(args) {
			args = wc.Function.Arguments
		}
	}
	if call.Name == "" {
		return ToolCall{}, fmt.Errorf("%w: %s without function name", ErrMalformedEvent, msg.Type)
	}
	norm, err := normalizeArguments(args)
	if err != nil {
		return ToolCall{}, fmt.Errorf("%w: arguments of %s: %v", ErrMalformedEvent, call.Name, err)
	}
	call.Arguments = norm
	return call, nil
}

// normalizeArguments unwraps arguments sent as a JSON string and returns an
// empty object when none were sent.
func normalizeArguments(raw json.RawMessage) (json.RawMessage, error) {
	if isEmptyJSON(raw) {
		return json.RawMessage("{}"), nil
	}
	raw = bytes.TrimSpace(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		raw = bytes.TrimSpace([]byte(s))
		if len(raw) == 0 {
			return json.RawMessage("{}"), nil
		}
	}
	if raw[0] != '{' || !json.Valid(raw) {
		return nil, errors.New("arguments are not a JSON object")
	}
	return raw, nil
}

// isBlankArguments reports whether raw carries no arguments: absent, null,
// an empty string or an empty object.
func isBlankArguments(raw json.RawMessage) bool {
	if isEmptyJSON(raw) {
		return true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch a := v.(type) {
	case string:
		return strings.TrimSpace(a) == ""
	case map[string]any:
		return len(a) == 0
	}
	return false
}

func isEmptyJSON(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func convertMessages(in []wireChatMessage) []Message {
	if len(in) == 0 {
		return nil
	}
	out := make([]Message, 0, len(in))
	for _, m := range in {
		content := m.Content
		if content == "" {
			content = m.Message
		}
		out = append(out, Message{Role: m.Role, Content: content})
	}
	return out
}
