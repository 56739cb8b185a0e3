// Package chatcompletions decodes OpenAI-compatible chat completion streams,
// as served by OpenRouter and self-hosted gateways.
package chatcompletions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/sse"
)

// OpenRouterBaseURL is the public OpenRouter API.
const OpenRouterBaseURL = "https://openrouter.ai"

// provider implements the Provider interface for chat completion streams.
type provider struct {
	name        string
	baseURL     string
	defaultBase string
	path        []string
	headers     http.Header
}

// NewOpenRouter returns the OpenRouter provider. An empty baseURL selects
// OpenRouterBaseURL.
func NewOpenRouter(baseURL string) *provider {
	h := http.Header{}
	h.Set("X-Title", "chatter")
	return &provider{
		name:        "openrouter",
		baseURL:     baseURL,
		defaultBase: OpenRouterBaseURL,
		path:        []string{"api", "v1", "chat", "completions"},
		headers:     h,
	}
}

// NewCustom returns a provider for any OpenAI-compatible endpoint. It has
// no default base URL: one must be given here or on the model.
func NewCustom(baseURL string) *provider {
	return &provider{
		name:    "custom",
		baseURL: baseURL,
		path:    []string{"chat", "completions"},
	}
}

func (c *provider) Name() string {
	return c.name
}

func (c *provider) Variant() llm.Variant {
	return llm.ChatCompletionChunk
}

func (c *provider) Endpoint(model llm.ModelConfig) (*url.URL, error) {
	if err := llm.CheckModel(model); err != nil {
		return nil, err
	}
	base, err := llm.BaseURL(model.BaseURL, c.baseURL, c.defaultBase)
	if err != nil {
		return nil, err
	}
	return base.JoinPath(c.path...), nil
}

func (c *provider) Headers(apiKey string) http.Header {
	h := c.headers.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Authorization", "Bearer "+apiKey)
	return h
}

func (c *provider) BuildRequest(model llm.ModelConfig, messages []llm.Message) ([]byte, error) {
	req := completionRequest{
		Model:           model.Name,
		Messages:        []completionMessage{},
		Stream:          true,
		ReasoningEffort: model.ReasoningEffort,
	}
	for _, m := range llm.Outbound(messages) {
		req.Messages = append(req.Messages, completionMessage{Role: m.Role, Content: m.Content})
	}
	return json.Marshal(req)
}

// CanHandle reports whether ev looks like a chat completion chunk.
func (c *provider) CanHandle(ev sse.Event) bool {
	var probe struct {
		Object  string          `json:"object"`
		Choices json.RawMessage `json:"choices"`
	}
	if err := json.Unmarshal([]byte(ev.Data), &probe); err != nil {
		return false
	}
	return probe.Object == "chat.completion.chunk" || len(probe.Choices) > 0
}

func (c *provider) Decode(ev sse.Event) llm.Result {
	// The framer swallows the sentinel; this guards direct callers.
	if ev.Data == sse.DoneSentinel || ev.Data == "" {
		return llm.IgnoredResult()
	}

	var chunk completionChunk
	if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
		return llm.ErrorResult(fmt.Sprintf("decoding chat completion chunk: %v", err), "")
	}

	if len(chunk.Error) > 0 && string(chunk.Error) != "null" {
		if detail, ok := llm.ParseErrorObject(chunk.Error); ok {
			return llm.ErrorResult(detail.Message, detail.Code)
		}
		return llm.ErrorResult("provider reported an error without a message", "")
	}

	if len(chunk.Choices) == 0 {
		return llm.IgnoredResult()
	}

	delta := chunk.Choices[0].Delta
	if delta == nil || delta.Content == nil {
		return llm.IgnoredResult()
	}
	return llm.TokenResult(*delta.Content)
}
