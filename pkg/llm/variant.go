package llm

// Variant tags the wire shape of a provider's streamed payloads. The
// coordinator is generic over variants; each provider package owns exactly
// one decoder for its variant.
type Variant int

const (
	// DeltaEvent payloads are event-tagged (OpenAI Responses API).
	DeltaEvent Variant = iota + 1

	// ChatCompletionChunk payloads carry choices[0].delta.content
	// (OpenRouter and OpenAI-compatible endpoints).
	ChatCompletionChunk

	// CandidatesParts payloads carry candidates[0].content.parts[0].text
	// (Gemini).
	CandidatesParts

	// MessagesEvent payloads are event-tagged content block deltas
	// (Anthropic Messages API).
	MessagesEvent
)

func (v Variant) String() string {
	switch v {
	case DeltaEvent:
		return "delta-event"
	case ChatCompletionChunk:
		return "chat-completion-chunk"
	case CandidatesParts:
		return "candidates-parts"
	case MessagesEvent:
		return "messages-event"
	default:
		return "unknown"
	}
}
