// Package stream runs streaming chat exchanges: it builds the provider
// request, frames the response bytes into events, decodes them into tokens
// and resolves exactly one terminal Outcome per exchange.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/llm/provider"
)

// Config is the configuration for a Coordinator.
type Config struct {
	// Transport opens the HTTP exchanges. Defaults to an HTTPTransport with
	// DefaultTimeout.
	Transport Transport

	// Dispatcher serializes token and outcome callbacks. Defaults to Inline.
	Dispatcher Dispatcher

	// BaseURLs maps provider names to configured base URL overrides. A
	// model's own BaseURL still takes precedence.
	BaseURLs map[string]string

	// UserAgent is sent on every request.
	UserAgent string

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Coordinator starts streaming exchanges. It holds no per-exchange state
// and is safe for concurrent use.
type Coordinator struct {
	transport  Transport
	dispatcher Dispatcher
	baseURLs   map[string]string
	userAgent  string
	logger     *slog.Logger
}

// New creates a Coordinator.
func New(c *Config) *Coordinator {
	co := &Coordinator{
		transport:  c.Transport,
		dispatcher: c.Dispatcher,
		baseURLs:   c.BaseURLs,
		userAgent:  c.UserAgent,
		logger:     c.Logger,
	}
	if co.transport == nil {
		co.transport = NewHTTPTransport(DefaultTimeout)
	}
	if co.dispatcher == nil {
		co.dispatcher = Inline
	}
	if co.logger == nil {
		co.logger = slog.New(slog.DiscardHandler)
	}
	return co
}

// Handle controls one in-flight exchange.
type Handle struct {
	id       string
	cancel   context.CancelFunc
	ex       atomic.Pointer[exchange]
	canceled atomic.Bool
	done     chan struct{}
}

// ID returns the exchange ID used in logs.
func (h *Handle) ID() string {
	return h.id
}

// Cancel asks the transport to abort the exchange. The exchange still
// resolves, with a Cancelled outcome unless it had already failed. Cancel
// is safe to call more than once and is a no-op after completion.
func (h *Handle) Cancel() {
	if !h.canceled.CompareAndSwap(false, true) {
		return
	}
	if ex := h.ex.Load(); ex != nil {
		ex.markCancelled()
	}
	h.cancel()
}

// Done is closed after onComplete has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start runs one exchange for model over messages. Tokens are passed to
// onToken in arrival order and the terminal outcome to onComplete exactly
// once, after the last token; both run through the configured Dispatcher.
// Precondition failures resolve through onComplete before any network
// activity.
func (c *Coordinator) Start(
	ctx context.Context,
	model llm.ModelConfig,
	messages []llm.Message,
	apiKey string,
	onToken func(string),
	onComplete func(Outcome),
) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	logger := c.logger.With(
		"exchange_id", h.id,
		"provider", model.Provider,
		"model", model.Name,
	)

	fail := func(err *Error) *Handle {
		logger.Warn("exchange rejected", "kind", err.Kind.String(), "error", err.Message)
		cancel()
		c.dispatcher.Dispatch(func() {
			defer close(h.done)
			onComplete(Failed(err))
		})
		return h
	}

	if strings.TrimSpace(apiKey) == "" {
		return fail(newError(APIKeyMissing, fmt.Sprintf("no API key configured for %s", model.Provider), nil))
	}

	prov, err := provider.New(model.Provider, c.baseURLs[model.Provider])
	if err != nil {
		return fail(newError(InvalidRequestTarget, "", err))
	}

	endpoint, err := prov.Endpoint(model)
	if err != nil {
		return fail(newError(InvalidRequestTarget, "", err))
	}

	body, err := prov.BuildRequest(model, messages)
	if err != nil {
		return fail(newError(RequestSerializationError, "", err))
	}

	req := &Request{
		Method: http.MethodPost,
		URL:    endpoint,
		Header: requestHeaders(prov.Headers(apiKey), c.userAgent),
		Body:   body,
	}

	ex := newExchange(exchangeConfig{
		decoder:    prov,
		dispatcher: c.dispatcher,
		onToken:    onToken,
		onComplete: onComplete,
		done:       h.done,
		logger:     logger,
	})
	h.ex.Store(ex)

	logger.Debug("exchange started", "url", endpoint.String(), "variant", prov.Variant().String())
	c.transport.Stream(ctx, req, ex)
	return h
}
