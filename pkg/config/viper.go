package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/chatter/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable read by InitViper.
const EnvPrefix = "CHATTER"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (found via dotdir resolution), and binds environment variables
// with the CHATTER_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (CHATTER_CHAT_MODEL, CHATTER_LOG_JSON, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	v.AddConfigPath(target)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes the effective Config after flag, env, file and
// default layering.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Chat: ChatConfig{
			Model:          v.GetString("chat.model"),
			Markdown:       v.GetBool("chat.markdown"),
			RequestTimeout: v.GetString("chat.request_timeout"),
		},
		Providers: ProvidersConfig{
			OpenAIBaseURL:     v.GetString("providers.openai_base_url"),
			AnthropicBaseURL:  v.GetString("providers.anthropic_base_url"),
			GeminiBaseURL:     v.GetString("providers.gemini_base_url"),
			OpenRouterBaseURL: v.GetString("providers.openrouter_base_url"),
			CustomBaseURL:     v.GetString("providers.custom_base_url"),
		},
		Log: LogConfig{
			JSON: v.GetBool("log.json"),
			File: v.GetString("log.file"),
		},
	}

	if _, err := cfg.Chat.Timeout(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)
	for _, key := range orderedKeys {
		v.SetDefault(key, configKeys[key].get(d))
	}
}
