package provider

import (
	"net/http"
	"net/url"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/sse"
)

// Decoder maps one framed stream record to a token, a benign no-op, or a
// terminal error. Decoders are pure and keep no state between records.
type Decoder interface {
	Decode(ev sse.Event) llm.Result
}

// Provider defines how to talk to one LLM API: where to send a streaming
// chat request, how to authenticate and encode it, and how to decode the
// streamed reply.
type Provider interface {
	Decoder

	// Name returns the canonical provider name (e.g., "openai", "gemini").
	Name() string

	// Variant returns the wire shape Decode understands.
	Variant() llm.Variant

	// CanHandle returns true if the record appears to come from this
	// provider's stream.
	CanHandle(ev sse.Event) bool

	// Endpoint returns the streaming endpoint for model. Errors wrap
	// llm.ErrInvalidTarget.
	Endpoint(model llm.ModelConfig) (*url.URL, error)

	// Headers returns the authentication headers for apiKey.
	Headers(apiKey string) http.Header

	// BuildRequest encodes the streaming request body. Error-role messages
	// are never included.
	BuildRequest(model llm.ModelConfig, messages []llm.Message) ([]byte, error)
}
