// Package credentials stores provider API keys in credentials.toml and
// resolves the key for an exchange from the environment, a .env file or the
// store.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/chatter/pkg/dotdir"
	"github.com/papercomputeco/chatter/pkg/llm/provider"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0
)

// providerEnvVars maps provider names to their expected environment variables.
var providerEnvVars = map[string]string{
	provider.OpenAI:     "OPENAI_API_KEY",
	provider.Anthropic:  "ANTHROPIC_API_KEY",
	provider.Gemini:     "GEMINI_API_KEY",
	provider.OpenRouter: "OPENROUTER_API_KEY",
	provider.Custom:     "CHATTER_CUSTOM_API_KEY",
}

// Manager manages reading and writing credentials.toml in the .chatter/ directory.
type Manager struct {
	targetPath string
}

// NewManager creates a new credentials Manager. If override is non-empty it is
// used as the .chatter/ directory; otherwise the standard dotdir resolution
// applies.
func NewManager(override string) (*Manager, error) {
	path, err := dotdir.NewManager().File(override, credentialsFile)
	if err != nil {
		return nil, err
	}

	return &Manager{targetPath: path}, nil
}

// Load reads credentials.toml from the target directory.
// Returns an empty Credentials if the file does not exist.
func (m *Manager) Load() (*Credentials, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{
				Version:   currentVersion,
				Providers: make(map[string]ProviderCredential),
			}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	creds := &Credentials{}
	if err := toml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	if creds.Providers == nil {
		creds.Providers = make(map[string]ProviderCredential)
	}

	return creds, nil
}

// Save writes credentials to credentials.toml with 0600 permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(m.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// SetKey stores an API key for the given provider.
func (m *Manager) SetKey(name, key string) error {
	if !IsSupportedProvider(name) {
		return fmt.Errorf("unsupported provider: %q", name)
	}
	if key == "" {
		return errors.New("API key must not be empty")
	}

	creds, err := m.Load()
	if err != nil {
		return err
	}

	creds.Providers[name] = ProviderCredential{APIKey: key}

	return m.Save(creds)
}

// GetKey returns the stored API key for the given provider.
// Returns an empty string if no key is stored.
func (m *Manager) GetKey(name string) (string, error) {
	creds, err := m.Load()
	if err != nil {
		return "", err
	}

	return creds.Providers[name].APIKey, nil
}

// RemoveKey deletes the stored credential for a provider. Removing a key that
// was never stored is not an error.
func (m *Manager) RemoveKey(name string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	if _, ok := creds.Providers[name]; !ok {
		return nil
	}
	delete(creds.Providers, name)

	return m.Save(creds)
}

// ListProviders returns the sorted names of providers that have stored credentials.
func (m *Manager) ListProviders() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	providers := make([]string, 0, len(creds.Providers))
	for name := range creds.Providers {
		providers = append(providers, name)
	}
	slices.Sort(providers)

	return providers, nil
}

// GetTarget returns the resolved path to the credentials file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}

// EnvVarForProvider returns the environment variable name for a given provider.
// Returns an empty string for unknown providers.
func EnvVarForProvider(name string) string {
	return providerEnvVars[name]
}

// IsSupportedProvider returns true if the given provider accepts a stored key.
func IsSupportedProvider(name string) bool {
	_, ok := providerEnvVars[name]
	return ok
}
