package transcript

import (
	"github.com/kilianp07/voicedispatch/core/callevent"
	"github.com/kilianp07/voicedispatch/core/model"
)

// SpeechStopped is the status of a completed speech segment.
const SpeechStopped = "stopped"

// FromSpeechUpdate returns the last message spoken by the update's role once
// the segment has stopped. Interim updates and updates without a matching
// message yield ok=false.
func FromSpeechUpdate(su callevent.SpeechUpdate) (role, text string, ok bool) {
	if su.Status != SpeechStopped {
		return "", "", false
	}
	for i := len(su.Messages) - 1; i >= 0; i-- {
		m := su.Messages[i]
		if m.Role != su.Role {
			continue
		}
		if m.Content == "" {
			return "", "", false
		}
		return su.Role, m.Content, true
	}
	return "", "", false
}

// FromConversation returns the last user or assistant message of the
// conversation, skipping system messages.
func FromConversation(cu callevent.ConversationUpdate) (role, text string, ok bool) {
	for i := len(cu.Messages) - 1; i >= 0; i-- {
		m := cu.Messages[i]
		if m.Role != model.RoleUser && m.Role != model.RoleAssistant {
			continue
		}
		if m.Content == "" {
			return "", "", false
		}
		return m.Role, m.Content, true
	}
	return "", "", false
}
