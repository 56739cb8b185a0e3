package modelscmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/pkg/catalog"
	"github.com/papercomputeco/chatter/pkg/cliui"
	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/llm/provider"
)

const addLongDesc string = `Add a custom model to models.toml.

The name is sent to the provider as the model identifier. The custom
provider talks to any OpenAI-compatible chat completions endpoint and
requires --base-url.

Examples:
  chatter models add gpt-4o --provider openai --display-name "GPT-4o"
  chatter models add o3 --provider openai --reasoning-effort high
  chatter models add qwen2.5 --provider custom --base-url http://localhost:11434/v1`

const addShortDesc string = "Add a custom model"

func newAddCmd() *cobra.Command {
	var m llm.ModelConfig

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: addShortDesc,
		Long:  addLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			m.Name = args[0]
			return runAdd(cmd.OutOrStdout(), configDir, m)
		},
	}

	cmd.Flags().StringVar(&m.Provider, "provider", "", fmt.Sprintf("Provider type %v", provider.SupportedProviders()))
	cmd.Flags().StringVar(&m.DisplayName, "display-name", "", "Human-friendly name shown in the UI")
	cmd.Flags().StringVar(&m.ReasoningEffort, "reasoning-effort", "", "Reasoning effort: low, medium or high")
	cmd.Flags().StringVar(&m.BaseURL, "base-url", "", "Override the provider's API base URL")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.RegisterFlagCompletionFunc("provider", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return provider.SupportedProviders(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runAdd(out io.Writer, configDir string, m llm.ModelConfig) error {
	store, err := catalog.NewStore(configDir)
	if err != nil {
		return fmt.Errorf("loading models: %w", err)
	}

	if err := store.Add(m); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Added %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(m.Name),
		cliui.DimStyle.Render("("+m.Provider+")"),
	)
	return nil
}
