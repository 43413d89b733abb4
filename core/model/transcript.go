package model

// Role tags as sent by the voice provider.
const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
	RoleSystem    = "system"
)

// Speaker labels shown to live viewers.
const (
	SpeakerAgent = "VAPI Agent"
	SpeakerUser  = "User"
)

// SpeakerFor maps a role tag to its speaker label. Only two labels exist at
// runtime: the assistant label and the caller label for every other role.
func SpeakerFor(role string) string {
	if role == RoleAssistant {
		return SpeakerAgent
	}
	return SpeakerUser
}

// TranscriptEntry is one utterance of the live transcript.
type TranscriptEntry struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Time    string `json:"time"`
	Role    string `json:"role"`
}
