package modelscmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/pkg/catalog"
	"github.com/papercomputeco/chatter/pkg/cliui"
	"github.com/papercomputeco/chatter/pkg/config"
)

const listShortDesc string = "List built-in and custom models"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir)
		},
	}

	return cmd
}

func runList(out io.Writer, configDir string) error {
	store, err := catalog.NewStore(configDir)
	if err != nil {
		return fmt.Errorf("loading models: %w", err)
	}

	cat, err := store.Catalog()
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		return err
	}

	models := cat.All()

	// Find the longest model name for alignment.
	maxLen := 0
	for _, m := range models {
		maxLen = max(maxLen, len(m.Name))
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Models"))
	for i, m := range models {
		marker := " "
		if strings.EqualFold(m.Name, cfg.Chat.Model) || strings.EqualFold(m.DisplayName, cfg.Chat.Model) {
			marker = cliui.SuccessMark
		}

		details := m.Provider
		if cat.IsCustom(i) {
			details += ", custom"
		}
		if m.ReasoningEffort != "" {
			details += ", reasoning " + m.ReasoningEffort
		}
		if m.BaseURL != "" {
			details += ", " + m.BaseURL
		}

		fmt.Fprintf(out, "  %s %s  %s %s\n",
			marker,
			cliui.NameStyle.Render(fmt.Sprintf("%-*s", maxLen, m.Name)),
			m.Label(),
			cliui.DimStyle.Render("("+details+")"),
		)
	}
	fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("Custom models: "+store.GetTarget()))

	return nil
}
