package llm

// ModelConfig describes the model an exchange targets. It is treated as
// immutable input by the coordinator.
type ModelConfig struct {
	// Provider selects the request builder and stream decoder,
	// e.g. "openai", "gemini".
	Provider string `toml:"provider" json:"provider"`

	// Name is the model identifier sent to the provider.
	Name string `toml:"name" json:"name"`

	// DisplayName is the human-friendly label shown in the UI.
	DisplayName string `toml:"display_name,omitempty" json:"display_name,omitempty"`

	// ReasoningEffort is forwarded to providers that support it
	// ("low", "medium", "high"). Empty means provider default.
	ReasoningEffort string `toml:"reasoning_effort,omitempty" json:"reasoning_effort,omitempty"`

	// BaseURL overrides the provider's default API base URL.
	BaseURL string `toml:"base_url,omitempty" json:"base_url,omitempty"`
}

// Label returns the display name, falling back to the model name.
func (m ModelConfig) Label() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Name
}
