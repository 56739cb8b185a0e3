// Package decodecmder provides the decode command, which replays a captured
// event stream through a provider decoder.
package decodecmder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/pkg/cliui"
	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/llm/provider"
	"github.com/papercomputeco/chatter/pkg/logger"
	"github.com/papercomputeco/chatter/pkg/sse"
)

const decodeLongDesc string = `Decode a captured server-sent event stream.

Reads a raw streaming response body (for example one saved with
"curl -N ... > capture.sse") from a file or stdin, frames it into events and
runs each event through a provider decoder. The reply text is written to
stdout. Without --provider the provider is detected from the first event
that one of them recognizes.

Examples:
  chatter decode capture.sse
  chatter decode --provider anthropic capture.sse
  chatter decode --events < capture.sse
  chatter decode --raw capture.sse 2> raw.sse`

const decodeShortDesc string = "Decode a captured event stream"

// ErrDetect is returned when no provider recognizes any event.
var ErrDetect = errors.New("could not detect the stream's provider")

type decodeCommander struct {
	provider string
	raw      bool
	events   bool
	debug    bool

	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

func NewDecodeCmd() *cobra.Command {
	cmder := &decodeCommander{}

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: decodeShortDesc,
		Long:  decodeLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			cmder.logger = logger.New(
				logger.WithDebug(cmder.debug),
				logger.WithWriter(cmder.errOut),
			)

			src := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening capture: %w", err)
				}
				defer f.Close()
				src = f
			}
			return cmder.run(src)
		},
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
	}

	cmd.Flags().StringVarP(&cmder.provider, "provider", "p", "", fmt.Sprintf("Provider that produced the stream %v", provider.SupportedProviders()))
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Echo the raw stream bytes to stderr")
	cmd.Flags().BoolVar(&cmder.events, "events", false, "Print one line per decoded event instead of the reply text")
	_ = cmd.RegisterFlagCompletionFunc("provider", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return provider.SupportedProviders(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *decodeCommander) run(src io.Reader) error {
	var dec provider.Decoder
	if c.provider != "" {
		p, err := provider.New(c.provider, "")
		if err != nil {
			return err
		}
		dec = p
	}

	var tee io.Writer
	if c.raw {
		tee = c.errOut
	}
	r := sse.NewTeeReader(src, tee)

	detector := provider.NewDetector()
	// Events seen before detection are replayed once a provider is known.
	var pending []sse.Event
	var stats decodeStats

	for {
		ev, err := r.Next()
		if err != nil {
			return fmt.Errorf("reading event stream: %w", err)
		}
		if ev == nil {
			break
		}

		if dec == nil {
			p, ok := detector.Detect(*ev)
			if !ok {
				pending = append(pending, *ev)
				continue
			}
			c.logger.Debug("detected provider", "provider", p.Name(), "variant", p.Variant().String())
			dec = p
			for _, prev := range pending {
				if err := c.emit(dec.Decode(prev), prev, &stats); err != nil {
					return err
				}
			}
			pending = nil
		}

		if err := c.emit(dec.Decode(*ev), *ev, &stats); err != nil {
			return err
		}
	}

	if dec == nil {
		if len(pending) == 0 {
			c.logger.Debug("empty event stream")
			return nil
		}
		return ErrDetect
	}

	if !c.events {
		fmt.Fprintln(c.out)
	}
	c.logger.Debug("decoded event stream",
		"tokens", stats.tokens,
		"ignored", stats.ignored,
		"saw_done", r.SawDone(),
	)
	return nil
}

type decodeStats struct {
	tokens  int
	ignored int
}

func (c *decodeCommander) emit(res llm.Result, ev sse.Event, stats *decodeStats) error {
	switch res.Kind {
	case llm.Token:
		stats.tokens++
		if c.events {
			fmt.Fprintf(c.out, "%-14s %q\n", res.Kind.String(), res.Text)
			return nil
		}
		fmt.Fprint(c.out, res.Text)

	case llm.Ignored:
		stats.ignored++
		if c.events {
			label := ev.Type
			if label == "" {
				label, _ = llm.PayloadType(ev.Data)
			}
			fmt.Fprintf(c.out, "%-14s %s\n", res.Kind.String(), cliui.DimStyle.Render(label))
		}

	case llm.TerminalError:
		if c.events {
			fmt.Fprintf(c.out, "%-14s %s\n", res.Kind.String(), res.Message)
		} else {
			fmt.Fprintln(c.out)
		}
		if res.Code != "" {
			return fmt.Errorf("stream error (%s): %s", res.Code, res.Message)
		}
		return fmt.Errorf("stream error: %s", res.Message)
	}
	return nil
}
