// Package gemini
package gemini

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/sse"
)

// DefaultBaseURL is the public Gemini API.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// provider implements the Provider interface for Gemini's
// streamGenerateContent API.
type provider struct {
	baseURL string
}

// New returns the Gemini provider. An empty baseURL selects DefaultBaseURL.
func New(baseURL string) *provider { return &provider{baseURL: baseURL} }

func (g *provider) Name() string {
	return "gemini"
}

func (g *provider) Variant() llm.Variant {
	return llm.CandidatesParts
}

func (g *provider) Endpoint(model llm.ModelConfig) (*url.URL, error) {
	if err := llm.CheckModel(model); err != nil {
		return nil, err
	}
	base, err := llm.BaseURL(model.BaseURL, g.baseURL, DefaultBaseURL)
	if err != nil {
		return nil, err
	}

	u := base.JoinPath("v1beta", "models", url.PathEscape(model.Name)+":streamGenerateContent")
	u.RawQuery = url.Values{"alt": {"sse"}}.Encode()
	return u, nil
}

func (g *provider) Headers(apiKey string) http.Header {
	h := http.Header{}
	h.Set("x-goog-api-key", apiKey)
	return h
}

func (g *provider) BuildRequest(_ llm.ModelConfig, messages []llm.Message) ([]byte, error) {
	req := generateRequest{Contents: []content{}}
	for _, m := range llm.Outbound(messages) {
		role := m.Role
		if role == llm.RoleAssistant {
			role = "model"
		}
		req.Contents = append(req.Contents, content{
			Role:  role,
			Parts: []part{{Text: m.Content}},
		})
	}
	return json.Marshal(req)
}

// CanHandle reports whether ev looks like a GenerateContentResponse.
func (g *provider) CanHandle(ev sse.Event) bool {
	var probe struct {
		Candidates json.RawMessage `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(ev.Data), &probe); err != nil {
		return false
	}
	return len(probe.Candidates) > 0
}

func (g *provider) Decode(ev sse.Event) llm.Result {
	if ev.Data == "" {
		return llm.IgnoredResult()
	}

	var chunk generateChunk
	if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
		return llm.ErrorResult(fmt.Sprintf("decoding gemini chunk: %v", err), "")
	}

	if len(chunk.Error) > 0 && string(chunk.Error) != "null" {
		if detail, ok := llm.ParseErrorObject(chunk.Error); ok {
			return llm.ErrorResult(detail.Message, detail.Code)
		}
		return llm.ErrorResult("gemini reported an error without a message", "")
	}

	// Metadata-only chunks (usage, safety ratings) lack some level.
	if len(chunk.Candidates) == 0 {
		return llm.IgnoredResult()
	}
	c := chunk.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 {
		return llm.IgnoredResult()
	}
	text := c.Parts[0].Text
	if text == nil || *text == "" {
		return llm.IgnoredResult()
	}
	return llm.TokenResult(*text)
}
