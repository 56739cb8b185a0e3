package chatcmder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/papercomputeco/chatter/pkg/credentials"
	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/stream"
)

var errBusy = errors.New("a reply is still streaming")

// keyLookup resolves the API key for a provider.
type keyLookup interface {
	Lookup(provider string) (string, credentials.Source, error)
}

// conversation owns the message history and allows one exchange at a time.
// It is not safe for concurrent use: every method and every callback passed
// to the coordinator must run on the same serialized context.
type conversation struct {
	coordinator *stream.Coordinator
	model       llm.ModelConfig
	keys        keyLookup

	messages []llm.Message
	reply    strings.Builder
	busy     bool
}

func newConversation(co *stream.Coordinator, model llm.ModelConfig, keys keyLookup) *conversation {
	return &conversation{coordinator: co, model: model, keys: keys}
}

// turn is a submitted user message waiting to be streamed.
type turn struct {
	conv     *conversation
	messages []llm.Message
	apiKey   string
}

// Begin records text as the next user message and returns the turn that
// streams the reply. A missing key is not an error here: the exchange
// itself reports it.
func (c *conversation) Begin(text string) (*turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("message is empty")
	}
	if c.busy {
		return nil, errBusy
	}

	apiKey, _, err := c.keys.Lookup(c.model.Provider)
	if err != nil {
		return nil, fmt.Errorf("resolving API key: %w", err)
	}

	c.messages = append(c.messages, llm.NewUserMessage(text))
	c.reply.Reset()
	c.busy = true

	return &turn{
		conv:     c,
		messages: slices.Clone(c.messages),
		apiKey:   apiKey,
	}, nil
}

// Start runs the exchange. onToken and onDone are called after the
// conversation has applied the token or outcome.
func (t *turn) Start(ctx context.Context, onToken func(string), onDone func(stream.Outcome)) *stream.Handle {
	c := t.conv
	return c.coordinator.Start(ctx, c.model, t.messages, t.apiKey,
		func(tok string) {
			c.reply.WriteString(tok)
			onToken(tok)
		},
		func(o stream.Outcome) {
			c.finish(o)
			onDone(o)
		},
	)
}

// finish appends the reply and, for failed or cancelled exchanges, the
// error line shown in the transcript.
func (c *conversation) finish(o stream.Outcome) {
	c.busy = false

	if reply := c.reply.String(); reply != "" || o.Status == stream.StatusSuccess {
		c.messages = append(c.messages, llm.NewAssistantMessage(reply))
	}
	if o.Status != stream.StatusSuccess {
		c.messages = append(c.messages, llm.NewErrorMessage(o.Message()))
	}
}

// Busy reports whether an exchange is in flight.
func (c *conversation) Busy() bool {
	return c.busy
}

// Reply returns the text streamed so far for the current exchange.
func (c *conversation) Reply() string {
	return c.reply.String()
}

// Messages returns the transcript, including error lines.
func (c *conversation) Messages() []llm.Message {
	return c.messages
}

// Reset clears the history. It fails while an exchange is in flight.
func (c *conversation) Reset() error {
	if c.busy {
		return errBusy
	}
	c.messages = nil
	c.reply.Reset()
	return nil
}
