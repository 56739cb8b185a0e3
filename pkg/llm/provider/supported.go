package provider

import (
	"fmt"

	"github.com/papercomputeco/chatter/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/chatter/pkg/llm/provider/chatcompletions"
	"github.com/papercomputeco/chatter/pkg/llm/provider/gemini"
	"github.com/papercomputeco/chatter/pkg/llm/provider/openai"
)

// Supported provider type constants
const (
	OpenAI     = "openai"
	OpenRouter = "openrouter"
	Custom     = "custom"
	Gemini     = "gemini"
	Anthropic  = "anthropic"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{OpenAI, OpenRouter, Custom, Gemini, Anthropic}
}

// IsSupported reports whether name is a known provider type.
func IsSupported(name string) bool {
	for _, p := range SupportedProviders() {
		if p == name {
			return true
		}
	}
	return false
}

// New creates a new Provider instance for the given provider type. baseURL
// overrides the provider's default API base and may be empty, except for
// the custom provider where a base URL must come from here or the model.
// Returns an error if the provider type is not recognized.
func New(providerType, baseURL string) (Provider, error) {
	switch providerType {
	case OpenAI:
		return openai.New(baseURL), nil
	case OpenRouter:
		return chatcompletions.NewOpenRouter(baseURL), nil
	case Custom:
		return chatcompletions.NewCustom(baseURL), nil
	case Gemini:
		return gemini.New(baseURL), nil
	case Anthropic:
		return anthropic.New(baseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", providerType, SupportedProviders())
	}
}
