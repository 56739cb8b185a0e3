package stream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/llm/provider"
	"github.com/papercomputeco/chatter/pkg/sse"
)

// maxErrorBody caps how much of a non-2xx body is kept for the error
// envelope. The rest is drained and discarded.
const maxErrorBody = 64 * 1024

// phase is the exchange state machine:
//
//	awaitingHeaders ─┬─▶ streamingTokens ────┬─▶ resolved
//	                 └─▶ bufferingErrorBody ─┘
//
// Any phase may move straight to resolved when the transport completes.
type phase int

const (
	awaitingHeaders phase = iota
	streamingTokens
	bufferingErrorBody
	resolved
)

type exchangeConfig struct {
	decoder    provider.Decoder
	dispatcher Dispatcher
	onToken    func(string)
	onComplete func(Outcome)
	done       chan struct{}
	logger     *slog.Logger
}

// exchange is the Sink for one streaming exchange. It owns the framer and
// buffers for that exchange alone.
type exchange struct {
	exchangeConfig

	mu     sync.Mutex
	phase  phase
	status int
	parser *sse.Parser

	// early holds bytes that arrived before the status was known.
	early *bytebufferpool.ByteBuffer
	// errBody holds the body of a non-2xx response.
	errBody *bytebufferpool.ByteBuffer

	// latched is the first streaming or decode failure. Later failures are
	// dropped and no more tokens are forwarded once it is set.
	latched *Error

	cancelled atomic.Bool
	tokens    int
	started   time.Time
}

func newExchange(c exchangeConfig) *exchange {
	return &exchange{
		exchangeConfig: c,
		parser:         sse.NewParser(),
		started:        time.Now(),
	}
}

// markCancelled records a cancellation request. It has no effect once the
// exchange is resolved.
func (e *exchange) markCancelled() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != resolved {
		e.cancelled.Store(true)
	}
}

func (e *exchange) OnResponse(status int, _ http.Header) {
	e.mu.Lock()
	if e.phase != awaitingHeaders {
		e.mu.Unlock()
		return
	}

	e.status = status
	var early []byte
	if e.early != nil {
		early = e.early.B
	}

	var tokens []string
	if isSuccess(status) {
		e.phase = streamingTokens
		if len(early) > 0 {
			tokens = e.feed(early)
		}
	} else {
		e.phase = bufferingErrorBody
		e.bufferError(early)
	}
	e.releaseEarly()
	e.mu.Unlock()

	e.logger.Debug("exchange headers received", "status", status)
	e.deliver(tokens)
}

func (e *exchange) OnChunk(chunk []byte) {
	e.mu.Lock()
	var tokens []string
	switch e.phase {
	case awaitingHeaders:
		if e.early == nil {
			e.early = bytebufferpool.Get()
		}
		_, _ = e.early.Write(chunk)
	case streamingTokens:
		tokens = e.feed(chunk)
	case bufferingErrorBody:
		e.bufferError(chunk)
	case resolved:
	}
	e.mu.Unlock()

	e.deliver(tokens)
}

func (e *exchange) OnComplete(err error) {
	e.mu.Lock()
	if e.phase == resolved {
		e.mu.Unlock()
		return
	}

	var tokens []string
	if e.phase == streamingTokens && e.latched == nil {
		events, ferr := e.parser.Finalize()
		tokens = e.decode(events)
		if ferr != nil {
			e.latch(newError(DecodeError, "", ferr))
		}
	}

	outcome := e.resolve(err)
	e.phase = resolved
	e.releaseEarly()
	if e.errBody != nil {
		bytebufferpool.Put(e.errBody)
		e.errBody = nil
	}
	e.parser = nil
	count := e.tokens
	e.mu.Unlock()

	e.log(outcome, count)
	e.deliver(tokens)
	e.dispatcher.Dispatch(func() {
		defer close(e.done)
		e.onComplete(outcome)
	})
}

// resolve applies the terminal precedence. Called with mu held.
func (e *exchange) resolve(err error) Outcome {
	switch {
	case e.latched != nil:
		return Failed(e.latched)

	case e.cancelled.Load() || errors.Is(err, context.Canceled):
		return CancelledOutcome()

	case e.status != 0 && !isSuccess(e.status):
		var body []byte
		if e.errBody != nil {
			body = e.errBody.B
		}
		detail, _ := llm.ParseErrorEnvelope(body)
		return Failed(newAPIError(e.status, detail.Message, detail.Code))

	case err != nil:
		return Failed(newError(NetworkError, "", err))

	case e.status == 0:
		return Failed(newError(NetworkError, "connection closed before a response was received", nil))

	default:
		return Succeeded()
	}
}

// feed frames chunk and decodes the resulting events. Called with mu held.
func (e *exchange) feed(chunk []byte) []string {
	if e.latched != nil {
		return nil
	}

	events, err := e.parser.Feed(chunk)
	tokens := e.decode(events)
	if err != nil {
		e.latch(newError(DecodeError, "", err))
	}
	return tokens
}

// decode maps events to tokens until a terminal error is latched. Called
// with mu held.
func (e *exchange) decode(events []sse.Event) []string {
	var tokens []string
	for _, ev := range events {
		if e.latched != nil {
			break
		}

		r := e.decoder.Decode(ev)
		switch r.Kind {
		case llm.Token:
			e.tokens++
			tokens = append(tokens, r.Text)
		case llm.TerminalError:
			e.latch(newStreamingError(r.Message, r.Code))
		case llm.Ignored:
		}
	}
	return tokens
}

func (e *exchange) latch(err *Error) {
	if e.latched != nil {
		e.logger.Debug("dropping error after terminal error", "error", err.Message)
		return
	}
	e.latched = err
}

func (e *exchange) bufferError(b []byte) {
	if e.errBody == nil {
		e.errBody = bytebufferpool.Get()
	}
	if room := maxErrorBody - e.errBody.Len(); room > 0 {
		if len(b) > room {
			b = b[:room]
		}
		_, _ = e.errBody.Write(b)
	}
}

func (e *exchange) releaseEarly() {
	if e.early != nil {
		bytebufferpool.Put(e.early)
		e.early = nil
	}
}

// deliver dispatches tokens in order. It runs without mu held so a callback
// may cancel the exchange.
func (e *exchange) deliver(tokens []string) {
	for _, t := range tokens {
		e.dispatcher.Dispatch(func() {
			if e.cancelled.Load() {
				return
			}
			e.onToken(t)
		})
	}
}

func (e *exchange) log(o Outcome, tokens int) {
	attrs := []any{
		"status", o.Status.String(),
		"tokens", tokens,
		"duration", time.Since(e.started),
	}
	if o.Status == StatusFailed {
		e.logger.Warn("exchange failed", append(attrs, "kind", o.Err.Kind.String(), "error", o.Err.Message)...)
		return
	}
	e.logger.Debug("exchange resolved", attrs...)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
