package anthropic

import "encoding/json"

// messagesRequest represents a streaming Messages API request.
type messagesRequest struct {
	Model     string            `json:"model"`
	MaxTokens int               `json:"max_tokens"`
	Messages  []messagesMessage `json:"messages"`
	Stream    bool              `json:"stream"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// contentBlockDelta is the payload of content_block_delta.
type contentBlockDelta struct {
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

// streamError is the payload of the error event.
type streamError struct {
	Error json.RawMessage `json:"error"`
}
