// Package configcmder provides the config command for managing persistent
// chatter configuration stored in the .chatter/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/pkg/cliui"
	"github.com/papercomputeco/chatter/pkg/config"
)

const configLongDesc string = `Manage persistent chatter configuration.

Configuration is stored as config.toml in the .chatter/ directory and provides
default values for command flags. CLI flags and CHATTER_* environment
variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  chat.model, chat.markdown, chat.request_timeout,
  providers.openai_base_url, providers.anthropic_base_url,
  providers.gemini_base_url, providers.openrouter_base_url,
  providers.custom_base_url,
  log.json, log.file

Use subcommands to get, set, or list configuration values:
  chatter config set <key> <value>    Set a configuration value
  chatter config get <key>            Get a configuration value
  chatter config list                 List all configuration values

Examples:
  chatter config set chat.model claude-sonnet-4-5
  chatter config set providers.custom_base_url http://localhost:11434/v1
  chatter config get chat.model
  chatter config list`

const configShortDesc string = "Manage persistent chatter configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(out io.Writer, cfger *config.Configer) {
	fmt.Fprintf(out, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Config file:"),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)
}
