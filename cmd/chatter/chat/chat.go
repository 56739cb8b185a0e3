// Package chatcmder provides the chat command: an interactive, streaming
// conversation with any catalog model.
package chatcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/chatter/pkg/catalog"
	"github.com/papercomputeco/chatter/pkg/cliui"
	"github.com/papercomputeco/chatter/pkg/config"
	"github.com/papercomputeco/chatter/pkg/credentials"
	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/logger"
	"github.com/papercomputeco/chatter/pkg/stream"
	"github.com/papercomputeco/chatter/pkg/utils"
)

type chatCommander struct {
	configDir string
	debug     bool
	tui       bool

	// Flag targets. Effective values are read back through viper so that
	// env vars and config.toml apply when a flag is not set.
	model    string
	markdown bool
	timeout  time.Duration
	logJSON  bool
	logFile  string

	cfg    *config.Config
	logger *slog.Logger
}

const chatLongDesc string = `Start an interactive, streaming chat session.

Replies stream token by token from the selected model. Press Ctrl+C while a
reply is streaming to cancel it. Use /clear to start a new conversation and
/exit (or Ctrl+D) to quit.

The model is looked up by name or display name in the model catalog
("chatter models list"). API keys are read from the provider's environment
variable, a .env file in the working directory, or "chatter auth".

Examples:
  chatter chat
  chatter chat --model claude-sonnet-4-5
  chatter chat -m "Gemini 2.5 Flash" --markdown
  chatter chat --tui --log-file chatter.log`

const chatShortDesc string = "Interactive streaming chat with an LLM"

var chatFlagKeys = []string{
	config.FlagModel,
	config.FlagMarkdown,
	config.FlagTimeout,
	config.FlagLogJSON,
	config.FlagLogFile,
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.ChatFlags, chatFlagKeys)

			cmder.cfg, err = config.FromViper(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	config.AddStringFlag(cmd, config.ChatFlags, config.FlagModel, &cmder.model)
	config.AddBoolFlag(cmd, config.ChatFlags, config.FlagMarkdown, &cmder.markdown)
	config.AddDurationFlag(cmd, config.ChatFlags, config.FlagTimeout, &cmder.timeout)
	config.AddBoolFlag(cmd, config.ChatFlags, config.FlagLogJSON, &cmder.logJSON)
	config.AddStringFlag(cmd, config.ChatFlags, config.FlagLogFile, &cmder.logFile)
	cmd.Flags().BoolVar(&cmder.tui, "tui", false, "Use the full-screen terminal UI")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// The TUI owns the terminal, so console logs are dropped there.
	console := errOut
	if c.tui {
		console = io.Discard
	}

	l, closeLog, err := c.newLogger(console)
	if err != nil {
		return err
	}
	defer closeLog()
	c.logger = l

	model, err := c.resolveModel()
	if err != nil {
		return err
	}

	timeout, err := c.cfg.Chat.Timeout()
	if err != nil {
		return err
	}

	creds, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	keys := credentials.NewResolver(creds)

	coCfg := &stream.Config{
		Transport: stream.NewHTTPTransport(timeout),
		BaseURLs:  c.cfg.Providers.BaseURLs(),
		UserAgent: "chatter/" + utils.Version,
		Logger:    c.logger,
	}

	c.logger.Debug("starting chat",
		"model", model.Name,
		"provider", model.Provider,
		"timeout", timeout.String(),
		"tui", c.tui,
	)

	if c.tui {
		return c.runTUI(ctx, in, out, coCfg, model, keys)
	}

	dispatcher := stream.NewSerialDispatcher()
	defer dispatcher.Close()
	coCfg.Dispatcher = dispatcher

	r := &repl{
		conv:      newConversation(stream.New(coCfg), model, keys),
		in:        in,
		out:       out,
		interrupt: notifyInterrupt,
		logger:    c.logger,
		markdown:  c.cfg.Chat.Markdown,
		mdStyle:   cliui.MarkdownStyle(out),
		width:     terminalWidth(out),
	}
	return r.run(ctx)
}

func (c *chatCommander) runTUI(ctx context.Context, in io.Reader, out io.Writer, coCfg *stream.Config, model llm.ModelConfig, keys keyLookup) error {
	conv := newConversation(nil, model, keys)
	m := newTUIModel(ctx, conv, c.logger, c.cfg.Chat.Markdown, cliui.MarkdownStyle(out))

	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	coCfg.Dispatcher = programDispatcher(p)
	conv.coordinator = stream.New(coCfg)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running chat UI: %w", err)
	}
	return nil
}

// resolveModel looks the configured model up in the catalog.
func (c *chatCommander) resolveModel() (llm.ModelConfig, error) {
	store, err := catalog.NewStore(c.configDir)
	if err != nil {
		return llm.ModelConfig{}, fmt.Errorf("loading models: %w", err)
	}

	cat, err := store.Catalog()
	if err != nil {
		return llm.ModelConfig{}, err
	}

	return cat.Lookup(c.cfg.Chat.Model)
}

// newLogger writes console logs to w and, when log.file is set, a JSON copy
// to that file.
func (c *chatCommander) newLogger(w io.Writer) (*slog.Logger, func(), error) {
	console := logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(c.cfg.Log.JSON),
		logger.WithPretty(isTerminal(w)),
		logger.WithWriter(w),
	)

	if c.cfg.Log.File == "" {
		return console, func() {}, nil
	}

	f, err := os.OpenFile(c.cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)
	return logger.Multi(console, file), func() { _ = f.Close() }, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
