package modelscmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/pkg/catalog"
	"github.com/papercomputeco/chatter/pkg/cliui"
)

const removeShortDesc string = "Remove a custom model"

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: removeShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runRemove(cmd.OutOrStdout(), configDir, args[0])
		},
	}

	return cmd
}

func runRemove(out io.Writer, configDir, name string) error {
	store, err := catalog.NewStore(configDir)
	if err != nil {
		return fmt.Errorf("loading models: %w", err)
	}

	if err := store.Remove(name); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Removed %s\n\n", cliui.SuccessMark, cliui.NameStyle.Render(name))
	return nil
}
