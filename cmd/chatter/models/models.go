// Package modelscmder provides the models command for inspecting and
// extending the model catalog.
package modelscmder

import (
	"github.com/spf13/cobra"
)

const modelsLongDesc string = `Manage the model catalog.

The catalog holds the built-in models plus custom models stored in
models.toml in the .chatter/ directory. Models are selected by name or
display name with "chatter chat --model".

Examples:
  chatter models list
  chatter models add llama3.2 --provider custom --base-url http://localhost:11434/v1
  chatter models remove llama3.2`

const modelsShortDesc string = "Manage the model catalog"

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newRemoveCmd())

	return cmd
}
