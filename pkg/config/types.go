package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent chatter configuration stored as
// config.toml in the .chatter/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Chat      ChatConfig      `toml:"chat"`
	Providers ProvidersConfig `toml:"providers"`
	Log       LogConfig       `toml:"log"`
}

// ChatConfig holds settings for the chat command.
type ChatConfig struct {
	// Model is a catalog model name or display name.
	Model    string `toml:"model,omitempty"`
	Markdown bool   `toml:"markdown,omitempty"`

	// RequestTimeout is a Go duration string bounding a whole exchange.
	RequestTimeout string `toml:"request_timeout,omitempty"`
}

// Timeout parses RequestTimeout, falling back to the default on an empty value.
func (c ChatConfig) Timeout() (time.Duration, error) {
	if c.RequestTimeout == "" {
		return time.ParseDuration(defaultRequestTimeout)
	}
	return parseTimeout(c.RequestTimeout)
}

// ProvidersConfig overrides the built-in base URL of each provider. Empty
// values keep the provider default.
type ProvidersConfig struct {
	OpenAIBaseURL     string `toml:"openai_base_url,omitempty"`
	AnthropicBaseURL  string `toml:"anthropic_base_url,omitempty"`
	GeminiBaseURL     string `toml:"gemini_base_url,omitempty"`
	OpenRouterBaseURL string `toml:"openrouter_base_url,omitempty"`
	CustomBaseURL     string `toml:"custom_base_url,omitempty"`
}

// BaseURLs returns the configured base URLs keyed by provider name, omitting
// providers without an override.
func (p ProvidersConfig) BaseURLs() map[string]string {
	all := map[string]string{
		"openai":     p.OpenAIBaseURL,
		"anthropic":  p.AnthropicBaseURL,
		"gemini":     p.GeminiBaseURL,
		"openrouter": p.OpenRouterBaseURL,
		"custom":     p.CustomBaseURL,
	}

	urls := make(map[string]string, len(all))
	for name, u := range all {
		if u != "" {
			urls[name] = u
		}
	}
	return urls
}

// LogConfig holds logging settings.
type LogConfig struct {
	JSON bool `toml:"json,omitempty"`

	// File, when set, receives a JSON copy of every log record.
	File string `toml:"file,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func parseTimeout(v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for chat.request_timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid value for chat.request_timeout: %s is not positive", v)
	}
	return d, nil
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"chat.model":    stringKey(func(c *Config) *string { return &c.Chat.Model }),
	"chat.markdown": boolKey("chat.markdown", func(c *Config) *bool { return &c.Chat.Markdown }),
	"chat.request_timeout": {
		get: func(c *Config) string { return c.Chat.RequestTimeout },
		set: func(c *Config, v string) error {
			if _, err := parseTimeout(v); err != nil {
				return err
			}
			c.Chat.RequestTimeout = v
			return nil
		},
	},
	"providers.openai_base_url":     stringKey(func(c *Config) *string { return &c.Providers.OpenAIBaseURL }),
	"providers.anthropic_base_url":  stringKey(func(c *Config) *string { return &c.Providers.AnthropicBaseURL }),
	"providers.gemini_base_url":     stringKey(func(c *Config) *string { return &c.Providers.GeminiBaseURL }),
	"providers.openrouter_base_url": stringKey(func(c *Config) *string { return &c.Providers.OpenRouterBaseURL }),
	"providers.custom_base_url":     stringKey(func(c *Config) *string { return &c.Providers.CustomBaseURL }),
	"log.json":                      boolKey("log.json", func(c *Config) *bool { return &c.Log.JSON }),
	"log.file":                      stringKey(func(c *Config) *string { return &c.Log.File }),
}

// orderedKeys lists configKeys in the TOML section layout order.
var orderedKeys = []string{
	"chat.model",
	"chat.markdown",
	"chat.request_timeout",
	"providers.openai_base_url",
	"providers.anthropic_base_url",
	"providers.gemini_base_url",
	"providers.openrouter_base_url",
	"providers.custom_base_url",
	"log.json",
	"log.file",
}
