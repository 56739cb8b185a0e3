// Package initcmder provides the init command for initializing a local
// .chatter directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/pkg/cliui"
	"github.com/papercomputeco/chatter/pkg/config"
	"github.com/papercomputeco/chatter/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .chatter/ directory in the current working directory.

Creates a local .chatter/ directory that takes precedence over the default
~/.chatter/ directory for configuration, credentials and custom models.

Use --preset to seed config.toml with a provider's default model.

Examples:
  chatter init
  chatter init --preset anthropic`

const initShortDesc string = "Initialize a local .chatter/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout(), preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", fmt.Sprintf("Seed config.toml for a provider (%v)", config.ValidPresetNames()))

	return cmd
}

func runInit(out io.Writer, preset string) error {
	var cfg *config.Config
	if preset != "" {
		var err error
		if cfg, err = config.PresetConfig(preset); err != nil {
			return err
		}
	}

	dir, created, err := dotdir.NewManager().InitLocal()
	if err != nil {
		return fmt.Errorf("creating .chatter directory: %w", err)
	}

	if created {
		fmt.Fprintf(out, "%s Initialized .chatter directory: %s\n", cliui.SuccessMark, dir)
	} else {
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
	}

	if cfg == nil {
		return nil
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Wrote %s preset to %s\n", cliui.SuccessMark, cliui.NameStyle.Render(preset), cfger.GetTarget())
	return nil
}
