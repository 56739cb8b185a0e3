package openai

import "encoding/json"

// responsesRequest represents a streaming request to the Responses API.
type responsesRequest struct {
	Model     string           `json:"model"`
	Input     []responsesInput `json:"input"`
	Stream    bool             `json:"stream"`
	Reasoning *reasoning       `json:"reasoning,omitempty"`
}

// responsesInput represents one input message.
type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type reasoning struct {
	Effort string `json:"effort"`
}

// textDelta is the payload of response.output_text.delta.
type textDelta struct {
	Delta *string `json:"delta"`
}

// failure covers the error and response.failed payloads. The error object
// is nested under "error" or "response.error"; some error events carry the
// message at the top level instead.
type failure struct {
	Error    json.RawMessage `json:"error"`
	Response *struct {
		Error json.RawMessage `json:"error"`
	} `json:"response"`
	Message string          `json:"message"`
	Code    json.RawMessage `json:"code"`
}

