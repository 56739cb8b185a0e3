package chatcompletions

import "encoding/json"

// completionRequest represents an OpenAI-compatible streaming request.
type completionRequest struct {
	Model           string              `json:"model"`
	Messages        []completionMessage `json:"messages"`
	Stream          bool                `json:"stream"`
	ReasoningEffort string              `json:"reasoning_effort,omitempty"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionChunk represents one streamed chat.completion.chunk. Content is
// a pointer so an explicit empty string is told apart from null.
type completionChunk struct {
	Object  string `json:"object"`
	Choices []struct {
		Delta *struct {
			Content *string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`

	// OpenRouter reports mid-stream failures here.
	Error json.RawMessage `json:"error"`
}
