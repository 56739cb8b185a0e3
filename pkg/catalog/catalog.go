// Package catalog lists the models chatter can talk to: a fixed set of
// built-in models plus user-defined models persisted in models.toml.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/llm/provider"
)

// ErrUnknownModel is returned by Lookup when no model matches.
var ErrUnknownModel = errors.New("unknown model")

var builtin = []llm.ModelConfig{
	{Provider: provider.OpenAI, Name: "gpt-4.1-mini", DisplayName: "GPT-4.1 mini"},
	{Provider: provider.OpenAI, Name: "gpt-4.1", DisplayName: "GPT-4.1"},
	{Provider: provider.OpenAI, Name: "o4-mini", DisplayName: "o4-mini", ReasoningEffort: "medium"},
	{Provider: provider.Anthropic, Name: "claude-sonnet-4-5", DisplayName: "Claude Sonnet 4.5"},
	{Provider: provider.Anthropic, Name: "claude-haiku-4-5", DisplayName: "Claude Haiku 4.5"},
	{Provider: provider.Gemini, Name: "gemini-2.5-flash", DisplayName: "Gemini 2.5 Flash"},
	{Provider: provider.Gemini, Name: "gemini-2.5-pro", DisplayName: "Gemini 2.5 Pro"},
	{Provider: provider.OpenRouter, Name: "openai/gpt-4.1-mini", DisplayName: "GPT-4.1 mini (OpenRouter)"},
	{Provider: provider.OpenRouter, Name: "meta-llama/llama-3.3-70b-instruct", DisplayName: "Llama 3.3 70B (OpenRouter)"},
}

// Builtin returns a copy of the built-in models.
func Builtin() []llm.ModelConfig {
	return slices.Clone(builtin)
}

// Catalog is a read-only view over built-in and custom models.
type Catalog struct {
	models []llm.ModelConfig
	custom int
}

// New returns a Catalog of the built-in models followed by custom.
func New(custom []llm.ModelConfig) *Catalog {
	models := make([]llm.ModelConfig, 0, len(builtin)+len(custom))
	models = append(models, builtin...)
	models = append(models, custom...)
	return &Catalog{models: models, custom: len(custom)}
}

// All returns every model, built-ins first.
func (c *Catalog) All() []llm.ModelConfig {
	return slices.Clone(c.models)
}

// IsCustom reports whether the i-th model of All came from models.toml.
func (c *Catalog) IsCustom(i int) bool {
	return i >= len(c.models)-c.custom
}

// Lookup finds a model by name or display name, ignoring case. Exact name
// matches win over display name matches.
func (c *Catalog) Lookup(name string) (llm.ModelConfig, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return llm.ModelConfig{}, fmt.Errorf("%w: no model name given", ErrUnknownModel)
	}

	for _, m := range c.models {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	for _, m := range c.models {
		if m.DisplayName != "" && strings.EqualFold(m.DisplayName, name) {
			return m, nil
		}
	}

	return llm.ModelConfig{}, fmt.Errorf("%w: %q (see \"chatter models list\")", ErrUnknownModel, name)
}

// Validate checks a user-defined model before it is stored.
func Validate(m llm.ModelConfig) error {
	if !provider.IsSupported(m.Provider) {
		return fmt.Errorf("unsupported provider %q (supported: %s)", m.Provider, strings.Join(provider.SupportedProviders(), ", "))
	}
	if err := llm.CheckModel(m); err != nil {
		return err
	}
	if m.Provider == provider.Custom && strings.TrimSpace(m.BaseURL) == "" {
		return fmt.Errorf("provider %q requires a base URL", provider.Custom)
	}
	if m.BaseURL != "" {
		if _, err := llm.BaseURL(m.BaseURL); err != nil {
			return err
		}
	}
	switch m.ReasoningEffort {
	case "", "low", "medium", "high":
	default:
		return fmt.Errorf("invalid reasoning effort %q (expected low, medium or high)", m.ReasoningEffort)
	}
	return nil
}
