// Package provider
package provider

import (
	"github.com/papercomputeco/chatter/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/chatter/pkg/llm/provider/chatcompletions"
	"github.com/papercomputeco/chatter/pkg/llm/provider/gemini"
	"github.com/papercomputeco/chatter/pkg/llm/provider/openai"
	"github.com/papercomputeco/chatter/pkg/sse"
)

// Detector identifies which provider produced a captured event stream by
// checking registered providers in order.
type Detector struct {
	providers []Provider
}

// NewDetector creates a new Detector with the default set of providers.
// Event-tagged providers are checked first, then Gemini, then the generic
// chat completion shape.
func NewDetector() *Detector {
	return &Detector{
		providers: []Provider{
			anthropic.New(""),
			openai.New(""),
			gemini.New(""),
			chatcompletions.NewOpenRouter(""),
		},
	}
}

// Detect returns the first provider that reports it can handle ev.
func (d *Detector) Detect(ev sse.Event) (Provider, bool) {
	for _, p := range d.providers {
		if p.CanHandle(ev) {
			return p, true
		}
	}
	return nil, false
}
