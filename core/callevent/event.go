// Package callevent turns inbound provider webhooks into one canonical Event
// and routes it to a Handler by kind. All tolerance for historical wire
// shapes lives in this package; handlers never see the raw envelope.
package callevent

import "encoding/json"

// Kind is the discriminated kind of an inbound event.
type Kind int

const (
	KindOther Kind = iota
	KindToolCall
	KindCallSummary
	KindSpeechUpdate
	KindConversationUpdate
	KindTranscript
)

func (k Kind) String() string {
	switch k {
	case KindToolCall:
		return "tool_call"
	case KindCallSummary:
		return "call_summary"
	case KindSpeechUpdate:
		return "speech_update"
	case KindConversationUpdate:
		return "conversation_update"
	case KindTranscript:
		return "transcript"
	default:
		return "other"
	}
}

// kindFromType maps a wire type tag to its Kind.
func kindFromType(t string) Kind {
	switch t {
	case "function-call", "tool-calls":
		return KindToolCall
	case "end-of-call-report":
		return KindCallSummary
	case "speech-update":
		return KindSpeechUpdate
	case "conversation-update":
		return KindConversationUpdate
	case "transcript":
		return KindTranscript
	default:
		return KindOther
	}
}

// Message is one chat message embedded in speech and conversation updates.
type Message struct {
	Role    string
	Content string
}

// ToolCall is a function invocation requested by the assistant.
type ToolCall struct {
	ID   string
	Name string
	// Arguments is always a JSON object, even when the provider sent the
	// arguments as a JSON encoded string.
	Arguments json.RawMessage
}

// DecodeArguments unmarshals the call arguments into out.
func (c ToolCall) DecodeArguments(out any) error {
	return json.Unmarshal(c.Arguments, out)
}

// CallSummary is the end-of-call report.
type CallSummary struct {
	CallID          string
	DurationSeconds float64
	Status          string
	Cost            float64
	Transcript      string
}

// SpeechUpdate reports a speaker starting or stopping.
type SpeechUpdate struct {
	Role     string
	Status   string
	Messages []Message
}

// ConversationUpdate carries the whole conversation so far.
type ConversationUpdate struct {
	Messages []Message
}

// TranscriptFragment is a plain transcript update of the older format.
type TranscriptFragment struct {
	Role string
	Text string
}

// Event is the canonical form of an inbound webhook. Exactly one of the
// kind-specific pointers is set, matching Kind; none is set for KindOther.
type Event struct {
	Kind Kind
	// Type is the raw wire type tag.
	Type string

	ToolCall     *ToolCall
	CallSummary  *CallSummary
	Speech       *SpeechUpdate
	Conversation *ConversationUpdate
	Fragment     *TranscriptFragment

	// Raw holds the inner message object as received.
	Raw json.RawMessage
}
