// Package llm holds the provider-agnostic types shared by the request
// builders, the stream decoders and the streaming coordinator.
package llm

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// RoleError marks a UI-only message describing a failed exchange. It is
	// kept in the transcript but never sent upstream.
	RoleError = "error"
)

// Message represents a single turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a message with the user role.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a message with the assistant role.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewErrorMessage creates a transcript-only error message.
func NewErrorMessage(content string) Message {
	return Message{Role: RoleError, Content: content}
}

// Outbound returns the messages that may be sent to a provider, in order.
// Error-role messages are dropped; the input slice is not modified.
func Outbound(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleError {
			continue
		}
		out = append(out, m)
	}
	return out
}
