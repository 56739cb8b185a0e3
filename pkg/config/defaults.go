package config

const (
	defaultModel          = "gpt-4.1-mini"
	defaultRequestTimeout = "5m"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Chat: ChatConfig{
			Model:          defaultModel,
			RequestTimeout: defaultRequestTimeout,
		},
	}
}
