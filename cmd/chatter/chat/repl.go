package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/papercomputeco/chatter/pkg/cliui"
	"github.com/papercomputeco/chatter/pkg/credentials"
	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/stream"
)

// interruptFunc subscribes to Ctrl+C for the duration of one exchange.
type interruptFunc func() (<-chan os.Signal, func())

func notifyInterrupt() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch, func() { signal.Stop(ch) }
}

// repl is the line-oriented chat front end. Tokens are written as they
// arrive unless markdown rendering is on, in which case the finished reply
// is rendered once it completes.
type repl struct {
	conv      *conversation
	in        io.Reader
	out       io.Writer
	interrupt interruptFunc
	logger    *slog.Logger

	markdown bool
	mdStyle  string
	width    int
}

func (r *repl) run(ctx context.Context) error {
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "  %s %s %s\n\n",
		cliui.KeyStyle.Render("Model:"),
		cliui.NameStyle.Render(r.conv.model.Label()),
		cliui.DimStyle.Render("("+r.conv.model.Provider+")"),
	)
	fmt.Fprintf(r.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. Ctrl+C cancels a reply, /clear starts over, /exit or Ctrl+D quits."))

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(r.out, cliui.UserPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			fmt.Fprintln(r.out)
			return nil
		case "/clear":
			if err := r.conv.Reset(); err != nil {
				fmt.Fprintf(r.out, "  %s %v\n\n", cliui.FailMark, err)
				continue
			}
			fmt.Fprintf(r.out, "  %s New conversation\n\n", cliui.DimStyle.Render("●"))
			continue
		}

		if err := r.exchange(ctx, input); err != nil {
			fmt.Fprintf(r.out, "  %s %v\n\n", cliui.FailMark, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(r.out)
	return nil
}

// exchange streams one reply and blocks until its outcome has been printed.
func (r *repl) exchange(ctx context.Context, input string) error {
	t, err := r.conv.Begin(input)
	if err != nil {
		return err
	}

	fmt.Fprint(r.out, cliui.AssistantPrompt)

	var (
		outcome stream.Outcome
		tokens  int
	)
	onToken := func(tok string) {
		tokens++
		if r.markdown {
			fmt.Fprintf(r.out, "\r%s%s", cliui.AssistantPrompt, cliui.DimStyle.Render(fmt.Sprintf("receiving... %d tokens", tokens)))
			return
		}
		fmt.Fprint(r.out, tok)
	}

	interrupts, stop := r.interrupt()
	defer stop()

	start := time.Now()
	h := t.Start(ctx, onToken, func(o stream.Outcome) { outcome = o })

	select {
	case <-h.Done():
	case <-interrupts:
		r.logger.Debug("cancelling exchange", "exchange_id", h.ID())
		h.Cancel()
		<-h.Done()
	}

	r.report(outcome, time.Since(start))
	return nil
}

func (r *repl) report(o stream.Outcome, elapsed time.Duration) {
	if r.markdown {
		fmt.Fprint(r.out, "\r\033[K")
		if reply := r.lastReply(); reply != "" {
			rendered, err := cliui.RenderMarkdown(reply, r.mdStyle, r.width)
			if err != nil {
				r.logger.Debug("rendering markdown", "error", err)
			}
			fmt.Fprint(r.out, strings.TrimRight(rendered, "\n"))
		}
	}
	fmt.Fprintln(r.out)

	switch o.Status {
	case stream.StatusSuccess:
		fmt.Fprintf(r.out, "  %s\n\n", cliui.StepStyle.Render("("+cliui.FormatDuration(elapsed)+")"))
	case stream.StatusCancelled:
		fmt.Fprintf(r.out, "  %s %s\n\n", cliui.FailMark, cliui.DimStyle.Render(o.Message()))
	default:
		fmt.Fprintf(r.out, "  %s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(o.Message()))
		if o.Err != nil && stream.IsAPIKeyMissing(o.Err) {
			fmt.Fprintf(r.out, "  %s\n", cliui.DimStyle.Render(apiKeyHint(r.conv.model.Provider)))
		}
		fmt.Fprintln(r.out)
	}
}

// lastReply returns the assistant text of the exchange that just finished.
func (r *repl) lastReply() string {
	msgs := r.conv.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		switch msgs[i].Role {
		case llm.RoleAssistant:
			return msgs[i].Content
		case llm.RoleUser:
			return ""
		}
	}
	return ""
}

// apiKeyHint tells the user how to configure a key for provider.
func apiKeyHint(provider string) string {
	return fmt.Sprintf("Run \"chatter auth %s\" or set %s.", provider, credentials.EnvVarForProvider(provider))
}
