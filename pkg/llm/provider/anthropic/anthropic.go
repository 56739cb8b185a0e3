// Package anthropic
package anthropic

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/sse"
)

const (
	// DefaultBaseURL is the public Anthropic API.
	DefaultBaseURL = "https://api.anthropic.com"

	// APIVersion is sent as the anthropic-version header.
	APIVersion = "2023-06-01"

	// DefaultMaxTokens bounds each reply; the Messages API requires it.
	DefaultMaxTokens = 4096
)

// Stream event names of the Messages API.
const (
	EventMessageStart      = "message_start"
	EventContentBlockStart = "content_block_start"
	EventContentBlockDelta = "content_block_delta"
	EventContentBlockStop  = "content_block_stop"
	EventMessageDelta      = "message_delta"
	EventMessageStop       = "message_stop"
	EventPing              = "ping"
	EventError             = "error"
)

// provider implements the Provider interface for Anthropic's Messages API.
type provider struct {
	baseURL string
}

// New
func New(baseURL string) *provider { return &provider{baseURL: baseURL} }

// Name
func (p *provider) Name() string {
	return "anthropic"
}

func (p *provider) Variant() llm.Variant {
	return llm.MessagesEvent
}

func (p *provider) Endpoint(model llm.ModelConfig) (*url.URL, error) {
	if err := llm.CheckModel(model); err != nil {
		return nil, err
	}
	base, err := llm.BaseURL(model.BaseURL, p.baseURL, DefaultBaseURL)
	if err != nil {
		return nil, err
	}
	return base.JoinPath("v1", "messages"), nil
}

func (p *provider) Headers(apiKey string) http.Header {
	h := http.Header{}
	h.Set("x-api-key", apiKey)
	h.Set("anthropic-version", APIVersion)
	return h
}

func (p *provider) BuildRequest(model llm.ModelConfig, messages []llm.Message) ([]byte, error) {
	req := messagesRequest{
		Model:     model.Name,
		MaxTokens: DefaultMaxTokens,
		Messages:  []messagesMessage{},
		Stream:    true,
	}
	for _, m := range llm.Outbound(messages) {
		req.Messages = append(req.Messages, messagesMessage{Role: m.Role, Content: m.Content})
	}
	return json.Marshal(req)
}

func (p *provider) CanHandle(ev sse.Event) bool {
	name := ev.Type
	if name == "" {
		name, _ = llm.PayloadType(ev.Data)
	}

	switch name {
	case EventMessageStart, EventContentBlockStart, EventContentBlockDelta,
		EventContentBlockStop, EventMessageDelta, EventMessageStop, EventPing:
		return true
	default:
		return false
	}
}

func (p *provider) Decode(ev sse.Event) llm.Result {
	if ev.Data == "" {
		// retry, id and bare event records carry no payload.
		return llm.IgnoredResult()
	}

	name := ev.Type
	if name == "" {
		t, err := llm.PayloadType(ev.Data)
		if err != nil {
			return llm.ErrorResult(fmt.Sprintf("decoding stream event: %v", err), "")
		}
		name = t
	}

	switch name {
	case EventContentBlockDelta:
		var d contentBlockDelta
		if err := json.Unmarshal([]byte(ev.Data), &d); err != nil {
			return llm.ErrorResult(fmt.Sprintf("decoding %s: %v", name, err), "")
		}
		// input_json_delta and thinking deltas carry no transcript text.
		if d.Delta == nil || d.Delta.Type != "text_delta" || d.Delta.Text == "" {
			return llm.IgnoredResult()
		}
		return llm.TokenResult(d.Delta.Text)

	case EventError:
		var e streamError
		if err := json.Unmarshal([]byte(ev.Data), &e); err != nil {
			return llm.ErrorResult(fmt.Sprintf("decoding %s: %v", name, err), "")
		}
		if detail, ok := llm.ParseErrorObject(e.Error); ok {
			return llm.ErrorResult(detail.Message, detail.Code)
		}
		return llm.ErrorResult("stream error without a message", "")

	default:
		return llm.IgnoredResult()
	}
}
