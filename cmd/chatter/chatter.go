// Package chattercmder
package chattercmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/chatter/cmd/chatter/auth"
	chatcmder "github.com/papercomputeco/chatter/cmd/chatter/chat"
	configcmder "github.com/papercomputeco/chatter/cmd/chatter/config"
	decodecmder "github.com/papercomputeco/chatter/cmd/chatter/decode"
	initcmder "github.com/papercomputeco/chatter/cmd/chatter/init"
	modelscmder "github.com/papercomputeco/chatter/cmd/chatter/models"
	versioncmder "github.com/papercomputeco/chatter/cmd/version"
)

const chatterLongDesc string = `Chatter is a streaming chat client for LLM providers.

Talk to OpenAI, Anthropic, Gemini, OpenRouter or any OpenAI-compatible
endpoint from the terminal:
  chatter chat               Start a chat session
  chatter auth openai        Store an API key
  chatter models list        Show the model catalog
  chatter decode capture.sse Decode a captured event stream`

const chatterShortDesc string = "Chatter - streaming LLM chat"

func NewChatterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "chatter",
		Short:        chatterShortDesc,
		Long:         chatterLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .chatter/ directory location")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(decodecmder.NewDecodeCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
