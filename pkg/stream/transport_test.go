package stream_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/stream"
)

func mustParse(raw string) *url.URL {
	u, err := url.Parse(raw)
	Expect(err).NotTo(HaveOccurred())
	return u
}

var _ = Describe("HTTPTransport", func() {
	var (
		server    *httptest.Server
		transport *stream.HTTPTransport
	)

	BeforeEach(func() {
		transport = stream.NewHTTPTransport(10 * time.Second)
	})

	AfterEach(func() {
		if server != nil {
			server.Close()
			server = nil
		}
	})

	It("delivers status, headers and the streamed body", func() {
		var (
			mu        sync.Mutex
			gotBody   []byte
			gotHeader http.Header
		)
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			gotBody, _ = io.ReadAll(r.Body)
			gotHeader = r.Header.Clone()
			mu.Unlock()

			w.Header().Set("Content-Type", "text/event-stream")
			flusher := w.(http.Flusher)
			for i := range 3 {
				fmt.Fprintf(w, "data: chunk-%d\n\n", i)
				flusher.Flush()
			}
		}))

		sink := newRecordingSink()
		transport.Stream(context.Background(), &stream.Request{
			Method: http.MethodPost,
			URL:    mustParse(server.URL + "/v1/stream"),
			Header: http.Header{"X-Api-Key": {"secret"}},
			Body:   []byte(`{"stream":true}`),
		}, sink)

		Eventually(sink.done).Should(BeClosed())
		Expect(sink.err).NotTo(HaveOccurred())
		Expect(sink.status).To(Equal(http.StatusOK))
		Expect(sink.header.Get("Content-Type")).To(Equal("text/event-stream"))
		Expect(string(sink.body)).To(Equal("data: chunk-0\n\ndata: chunk-1\n\ndata: chunk-2\n\n"))
		mu.Lock()
		defer mu.Unlock()
		Expect(string(gotBody)).To(Equal(`{"stream":true}`))
		Expect(gotHeader.Get("X-Api-Key")).To(Equal("secret"))
	})

	It("delivers non-2xx bodies without treating them as transport errors", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
		}))

		sink := newRecordingSink()
		transport.Stream(context.Background(), &stream.Request{Method: http.MethodPost, URL: mustParse(server.URL)}, sink)

		Eventually(sink.done).Should(BeClosed())
		Expect(sink.err).NotTo(HaveOccurred())
		Expect(sink.status).To(Equal(http.StatusTooManyRequests))
		Expect(string(sink.body)).To(ContainSubstring("rate limited"))
	})

	It("completes with an error when the server is unreachable", func() {
		server = httptest.NewServer(http.NotFoundHandler())
		target := mustParse(server.URL)
		server.Close()
		server = nil

		sink := newRecordingSink()
		transport.Stream(context.Background(), &stream.Request{Method: http.MethodPost, URL: target}, sink)

		Eventually(sink.done).Should(BeClosed())
		Expect(sink.err).To(HaveOccurred())
		Expect(sink.status).To(BeZero())
	})

	It("reports cancellation mid-stream as the context error", func() {
		release := make(chan struct{})
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("data: first\n\n"))
			w.(http.Flusher).Flush()
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		defer close(release)

		ctx, cancel := context.WithCancel(context.Background())
		sink := newRecordingSink()
		transport.Stream(ctx, &stream.Request{Method: http.MethodPost, URL: mustParse(server.URL)}, sink)

		Eventually(func() int {
			sink.mu.Lock()
			defer sink.mu.Unlock()
			return len(sink.body)
		}).Should(BeNumerically(">", 0))

		cancel()
		Eventually(sink.done).Should(BeClosed())
		Expect(sink.err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Coordinator over HTTP", func() {
	var (
		server     *httptest.Server
		dispatcher *stream.SerialDispatcher
		co         *stream.Coordinator
	)

	BeforeEach(func() {
		dispatcher = stream.NewSerialDispatcher()
		co = stream.New(&stream.Config{
			Transport:  stream.NewHTTPTransport(10 * time.Second),
			Dispatcher: dispatcher,
		})
	})

	AfterEach(func() {
		dispatcher.Close()
		server.Close()
	})

	It("streams tokens from an OpenAI-compatible endpoint", func() {
		var (
			mu               sync.Mutex
			gotPath, gotAuth string
		)
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			mu.Unlock()

			w.Header().Set("Content-Type", "text/event-stream")
			flusher := w.(http.Flusher)
			for _, part := range []string{"Hel", "lo ", "world"} {
				fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", part)
				flusher.Flush()
			}
			_, _ = w.Write([]byte("data: [DONE]\n\n"))
		}))

		var (
			tokens []string
			result stream.Outcome
		)
		model := llm.ModelConfig{Provider: "custom", Name: "llama3", BaseURL: server.URL + "/v1"}
		h := co.Start(context.Background(), model, []llm.Message{llm.NewUserMessage("hi")}, "local-key",
			func(t string) {
				mu.Lock()
				defer mu.Unlock()
				tokens = append(tokens, t)
			},
			func(o stream.Outcome) {
				mu.Lock()
				defer mu.Unlock()
				result = o
			},
		)

		Eventually(h.Done()).Should(BeClosed())
		mu.Lock()
		defer mu.Unlock()
		Expect(tokens).To(Equal([]string{"Hel", "lo ", "world"}))
		Expect(result.Status).To(Equal(stream.StatusSuccess))
		Expect(gotPath).To(Equal("/v1/chat/completions"))
		Expect(gotAuth).To(Equal("Bearer local-key"))
	})

	It("resolves an HTTP error from the response body", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
		}))

		tokens := make(chan string, 1)
		outcomes := make(chan stream.Outcome, 2)
		model := llm.ModelConfig{Provider: "gemini", Name: "gemini-2.0-flash", BaseURL: server.URL}
		h := co.Start(context.Background(), model, []llm.Message{llm.NewUserMessage("hi")}, "key",
			func(t string) { tokens <- t },
			func(o stream.Outcome) { outcomes <- o },
		)

		Eventually(h.Done()).Should(BeClosed())
		Expect(tokens).To(BeEmpty())
		Expect(outcomes).To(HaveLen(1))
		o := <-outcomes
		Expect(o.Err.Kind).To(Equal(stream.APIError))
		Expect(o.Err.StatusCode).To(Equal(http.StatusTooManyRequests))
		Expect(o.Err.Message).To(Equal("rate limited"))
	})

	It("resolves Cancelled when cancelled mid-stream", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n"))
			w.(http.Flusher).Flush()
			<-r.Context().Done()
		}))

		got := make(chan string, 4)
		outcomes := make(chan stream.Outcome, 2)
		model := llm.ModelConfig{Provider: "openrouter", Name: "m", BaseURL: server.URL}
		h := co.Start(context.Background(), model, nil, "key",
			func(t string) { got <- t },
			func(o stream.Outcome) { outcomes <- o },
		)

		Eventually(got).Should(Receive(Equal("partial")))
		h.Cancel()
		h.Cancel()

		Eventually(h.Done()).Should(BeClosed())
		Expect(outcomes).To(HaveLen(1))
		Expect((<-outcomes).Status).To(Equal(stream.StatusCancelled))
	})
})
