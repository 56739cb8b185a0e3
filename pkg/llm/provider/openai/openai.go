// Package openai
package openai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/sse"
)

// DefaultBaseURL is the public OpenAI API.
const DefaultBaseURL = "https://api.openai.com"

// Stream event names of the Responses API.
const (
	EventTextDelta = "response.output_text.delta"
	EventCompleted = "response.completed"
	EventFailed    = "response.failed"
	EventError     = "error"
)

// provider implements the Provider interface for OpenAI's Responses API.
type provider struct {
	baseURL string
}

// New returns the OpenAI provider. An empty baseURL selects DefaultBaseURL.
func New(baseURL string) *provider { return &provider{baseURL: baseURL} }

func (o *provider) Name() string {
	return "openai"
}

func (o *provider) Variant() llm.Variant {
	return llm.DeltaEvent
}

func (o *provider) Endpoint(model llm.ModelConfig) (*url.URL, error) {
	if err := llm.CheckModel(model); err != nil {
		return nil, err
	}
	base, err := llm.BaseURL(model.BaseURL, o.baseURL, DefaultBaseURL)
	if err != nil {
		return nil, err
	}
	return base.JoinPath("v1", "responses"), nil
}

func (o *provider) Headers(apiKey string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+apiKey)
	return h
}

func (o *provider) BuildRequest(model llm.ModelConfig, messages []llm.Message) ([]byte, error) {
	req := responsesRequest{
		Model:  model.Name,
		Input:  []responsesInput{},
		Stream: true,
	}
	for _, m := range llm.Outbound(messages) {
		req.Input = append(req.Input, responsesInput{Role: m.Role, Content: m.Content})
	}
	if model.ReasoningEffort != "" {
		req.Reasoning = &reasoning{Effort: model.ReasoningEffort}
	}
	return json.Marshal(req)
}

// CanHandle reports whether ev looks like a Responses API stream event.
func (o *provider) CanHandle(ev sse.Event) bool {
	name := ev.Type
	if name == "" {
		name, _ = llm.PayloadType(ev.Data)
	}
	return strings.HasPrefix(name, "response.")
}

func (o *provider) Decode(ev sse.Event) llm.Result {
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
	case EventTextDelta:
		var d textDelta
		if err := json.Unmarshal([]byte(ev.Data), &d); err != nil {
			return llm.ErrorResult(fmt.Sprintf("decoding %s: %v", name, err), "")
		}
		if d.Delta == nil || *d.Delta == "" {
			return llm.IgnoredResult()
		}
		return llm.TokenResult(*d.Delta)

	case EventFailed, EventError:
		return decodeFailure(name, ev.Data)

	default:
		// response.completed, response.created, output_item events, etc.
		return llm.IgnoredResult()
	}
}

func decodeFailure(name, data string) llm.Result {
	var f failure
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		return llm.ErrorResult(fmt.Sprintf("decoding %s: %v", name, err), "")
	}

	if detail, ok := llm.ParseErrorObject(f.Error); ok {
		return llm.ErrorResult(detail.Message, detail.Code)
	}
	if f.Response != nil {
		if detail, ok := llm.ParseErrorObject(f.Response.Error); ok {
			return llm.ErrorResult(detail.Message, detail.Code)
		}
	}
	if msg := strings.TrimSpace(f.Message); msg != "" {
		return llm.ErrorResult(msg, llm.ErrorCode(f.Code))
	}
	return llm.ErrorResult("response failed without an error message", llm.ErrorCode(f.Code))
}
