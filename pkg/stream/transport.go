package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultChunkSize = 32 * 1024

	// DefaultTimeout bounds one whole exchange. LLM requests can be slow,
	// especially with reasoning enabled.
	DefaultTimeout = 5 * time.Minute
)

// Request is one streaming HTTP request.
type Request struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
}

// Sink receives the events of one streaming exchange. A Transport calls
// OnResponse at most once, OnChunk any number of times, then OnComplete
// exactly once, all from a single goroutine. Chunks may arrive before
// OnResponse on transports that cannot report the status first. The chunk
// slice is only valid for the duration of the call.
type Sink interface {
	OnResponse(status int, header http.Header)
	OnChunk(chunk []byte)
	OnComplete(err error)
}

// Transport opens streaming HTTP exchanges. Stream must not block: events
// are delivered to sink asynchronously. Cancelling ctx aborts the exchange,
// after which the transport still calls OnComplete.
type Transport interface {
	Stream(ctx context.Context, req *Request, sink Sink)
}

// HTTPTransport is the net/http Transport.
type HTTPTransport struct {
	client    *http.Client
	chunkSize int
}

// NewHTTPTransport returns an HTTPTransport whose exchanges are bounded by
// timeout. A zero timeout selects DefaultTimeout.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPTransport{
		client:    &http.Client{Timeout: timeout},
		chunkSize: defaultChunkSize,
	}
}

func (t *HTTPTransport) Stream(ctx context.Context, req *Request, sink Sink) {
	go t.run(ctx, req, sink)
}

func (t *HTTPTransport) run(ctx context.Context, req *Request, sink Sink) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), bytes.NewReader(req.Body))
	if err != nil {
		sink.OnComplete(fmt.Errorf("creating request: %w", err))
		return
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		sink.OnComplete(contextErr(ctx, err))
		return
	}
	defer resp.Body.Close()

	sink.OnResponse(resp.StatusCode, resp.Header)

	buf := make([]byte, t.chunkSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			sink.OnChunk(buf[:n])
		}
		if err == io.EOF {
			sink.OnComplete(nil)
			return
		}
		if err != nil {
			sink.OnComplete(contextErr(ctx, err))
			return
		}
	}
}

// contextErr prefers the context's error so cancellation is reported as
// such rather than as whatever the connection failed with.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// requestHeaders layers the common streaming headers over a provider's
// authentication headers. Accept-Encoding is left unset so net/http adds
// its own and transparently decompresses the body.
func requestHeaders(auth http.Header, userAgent string) http.Header {
	h := auth.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "text/event-stream")
	if userAgent != "" {
		h.Set("User-Agent", userAgent)
	}
	h.Del("Accept-Encoding")
	return h
}
