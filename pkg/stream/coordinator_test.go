package stream_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/sse"
	"github.com/papercomputeco/chatter/pkg/stream"
)

var (
	openRouterModel = llm.ModelConfig{Provider: "openrouter", Name: "openai/gpt-4o"}
	geminiModel     = llm.ModelConfig{Provider: "gemini", Name: "gemini-2.0-flash"}
	openAIModel     = llm.ModelConfig{Provider: "openai", Name: "gpt-4o"}
	anthropicModel  = llm.ModelConfig{Provider: "anthropic", Name: "claude-sonnet-4-5"}
)

var _ = Describe("Coordinator", func() {
	var (
		transport *fakeTransport
		rec       *recorder
		co        *stream.Coordinator
		history   []llm.Message
	)

	BeforeEach(func() {
		transport = &fakeTransport{}
		rec = &recorder{}
		co = stream.New(&stream.Config{
			Transport:  transport,
			Dispatcher: stream.Inline,
			UserAgent:  "chatter/test",
		})
		history = []llm.Message{llm.NewUserMessage("hi")}
	})

	start := func(model llm.ModelConfig) *stream.Handle {
		return co.Start(context.Background(), model, history, "test-key", rec.onToken, rec.onComplete)
	}

	Describe("preconditions", func() {
		It("fails with ApiKeyMissing before any network activity", func() {
			h := co.Start(context.Background(), openRouterModel, history, "", rec.onToken, rec.onComplete)

			Expect(transport.calls).To(BeZero())
			Expect(rec.Events()).To(Equal([]string{"complete:failed"}))

			o := rec.Outcomes()[0]
			Expect(o.Err.Kind).To(Equal(stream.APIKeyMissing))
			Expect(stream.IsAPIKeyMissing(o.Err)).To(BeTrue())
			Expect(o.Message()).To(ContainSubstring("openrouter"))
			Expect(h.Done()).To(BeClosed())
		})

		It("treats a whitespace-only key as missing", func() {
			co.Start(context.Background(), openRouterModel, history, "  ", rec.onToken, rec.onComplete)
			Expect(rec.Outcomes()[0].Err).To(MatchError(stream.ErrAPIKeyMissing))
		})

		DescribeTable("fails with InvalidRequestTarget",
			func(model llm.ModelConfig) {
				start(model)

				Expect(transport.calls).To(BeZero())
				Expect(rec.Outcomes()).To(HaveLen(1))
				Expect(rec.Outcomes()[0].Err).To(MatchError(stream.ErrInvalidRequestTarget))
			},
			Entry("unknown provider", llm.ModelConfig{Provider: "bogus", Name: "m"}),
			Entry("custom provider without base URL", llm.ModelConfig{Provider: "custom", Name: "llama3"}),
			Entry("malformed base URL", llm.ModelConfig{Provider: "custom", Name: "llama3", BaseURL: "not a url"}),
			Entry("empty model name", llm.ModelConfig{Provider: "openai"}),
		)
	})

	Describe("request", func() {
		It("posts the provider body with streaming headers", func() {
			start(openRouterModel)

			Expect(transport.calls).To(Equal(1))
			req := transport.req
			Expect(req.Method).To(Equal("POST"))
			Expect(req.URL.String()).To(Equal("https://openrouter.ai/api/v1/chat/completions"))
			Expect(req.Header.Get("Authorization")).To(Equal("Bearer test-key"))
			Expect(req.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(req.Header.Get("Accept")).To(Equal("text/event-stream"))
			Expect(req.Header.Get("User-Agent")).To(Equal("chatter/test"))
			Expect(req.Body).To(MatchJSON(`{"model":"openai/gpt-4o","messages":[{"role":"user","content":"hi"}],"stream":true}`))
		})

		It("applies configured base URLs below the model's own", func() {
			co = stream.New(&stream.Config{
				Transport: transport,
				BaseURLs:  map[string]string{"openrouter": "http://localhost:1234"},
			})

			start(openRouterModel)
			Expect(transport.req.URL.String()).To(Equal("http://localhost:1234/api/v1/chat/completions"))

			model := openRouterModel
			model.BaseURL = "http://127.0.0.1:9999"
			start(model)
			Expect(transport.req.URL.String()).To(Equal("http://127.0.0.1:9999/api/v1/chat/completions"))
		})
	})

	Describe("token delivery", func() {
		It("forwards tokens split across chunks in order, then succeeds", func() {
			body := `data: {"choices":[{"delta":{"content":"Hel"}}]}` + "\n\n" +
				`data: {"choices":[{"delta":{"content":"lo "}}]}` + "\n\n" +
				`data: {"choices":[{"delta":{"content":"world"}}]}` + "\n\n" +
				"data: [DONE]\n\n"
			split := len(body) / 2

			h := start(openRouterModel)
			transport.sink.OnResponse(200, nil)
			transport.sink.OnChunk([]byte(body[:split]))
			transport.sink.OnChunk([]byte(body[split:]))
			transport.sink.OnComplete(nil)

			Expect(rec.Events()).To(Equal([]string{
				"token:Hel", "token:lo ", "token:world", "complete:success",
			}))
			Expect(h.Done()).To(BeClosed())

			transport.sink.OnChunk([]byte(`data: {"choices":[{"delta":{"content":"late"}}]}` + "\n\n"))
			transport.sink.OnComplete(nil)
			Expect(rec.Events()).To(HaveLen(4))
		})

		It("decodes a candidates/parts stream", func() {
			start(geminiModel)
			transport.sink.OnResponse(200, nil)
			transport.sink.OnChunk([]byte(`data: {"candidates":[{"content":{"parts":[{"text":"Hi"}]}}]}` + "\n\n"))
			transport.sink.OnComplete(nil)

			Expect(rec.Events()).To(Equal([]string{"token:Hi", "complete:success"}))
		})

		It("flushes a final record without a trailing blank line", func() {
			start(openRouterModel)
			transport.sink.OnResponse(200, nil)
			transport.sink.OnChunk([]byte(`data: {"choices":[{"delta":{"content":"tail"}}]}`))
			transport.sink.OnComplete(nil)

			Expect(rec.Events()).To(Equal([]string{"token:tail", "complete:success"}))
		})

		It("replays bytes that arrived before the status", func() {
			start(openRouterModel)
			transport.sink.OnChunk([]byte(`data: {"choices":[{"delta":{"content":"early"}}]}` + "\n\n"))
			Expect(rec.Events()).To(BeEmpty())

			transport.sink.OnResponse(200, nil)
			Expect(rec.Events()).To(Equal([]string{"token:early"}))

			transport.sink.OnComplete(nil)
			Expect(rec.Events()).To(Equal([]string{"token:early", "complete:success"}))
		})

		DescribeTable("skips records that only carry a retry interval",
			func(model llm.ModelConfig) {
				start(model)
				transport.sink.OnResponse(200, nil)
				transport.sink.OnChunk([]byte("retry: 3000\n\n"))
				transport.sink.OnChunk([]byte("id: 7\n\nevent:\n\n"))
				transport.sink.OnComplete(nil)

				Expect(rec.Events()).To(Equal([]string{"complete:success"}))
			},
			Entry("responses stream", openAIModel),
			Entry("messages stream", anthropicModel),
			Entry("chat completions stream", openRouterModel),
			Entry("candidates stream", geminiModel),
		)

		It("forwards empty content tokens", func() {
			start(openRouterModel)
			transport.sink.OnResponse(200, nil)
			transport.sink.OnChunk([]byte(`data: {"choices":[{"delta":{"role":"assistant","content":""}}]}` + "\n\n"))
			transport.sink.OnComplete(nil)

			Expect(rec.Events()).To(Equal([]string{"token:", "complete:success"}))
		})
	})

	Describe("terminal errors", func() {
		It("reports only the first of several decoder errors", func() {
			start(openAIModel)
			transport.sink.OnResponse(200, nil)
			transport.sink.OnChunk([]byte(
				"event: response.output_text.delta\ndata: {\"delta\":\"ok\"}\n\n" +
					"event: error\ndata: {\"error\":{\"message\":\"first\",\"code\":\"server_error\"}}\n\n" +
					"event: error\ndata: {\"error\":{\"message\":\"second\"}}\n\n" +
					"event: response.output_text.delta\ndata: {\"delta\":\"late\"}\n\n"))
			transport.sink.OnChunk([]byte("event: response.output_text.delta\ndata: {\"delta\":\"later\"}\n\n"))
			transport.sink.OnComplete(nil)

			Expect(rec.Events()).To(Equal([]string{"token:ok", "complete:failed"}))
			o := rec.Outcomes()[0]
			Expect(o.Err.Kind).To(Equal(stream.StreamingError))
			Expect(o.Err.Message).To(Equal("first"))
			Expect(o.Err.Code).To(Equal("server_error"))
		})

		It("reports malformed payloads as streaming errors", func() {
			start(openRouterModel)
			transport.sink.OnResponse(200, nil)
			transport.sink.OnChunk([]byte("data: {\"choices\":[\n\n"))
			transport.sink.OnComplete(nil)

			Expect(rec.Outcomes()).To(HaveLen(1))
			Expect(rec.Outcomes()[0].Err).To(MatchError(stream.ErrStreaming))
		})

		It("keeps the latched error when the transport then fails", func() {
			start(openRouterModel)
			transport.sink.OnResponse(200, nil)
			transport.sink.OnChunk([]byte(`data: {"error":{"message":"upstream died"}}` + "\n\n"))
			transport.sink.OnComplete(errors.New("connection reset by peer"))

			o := rec.Outcomes()[0]
			Expect(o.Err.Kind).To(Equal(stream.StreamingError))
			Expect(o.Err.Message).To(Equal("upstream died"))
		})

		It("reports invalid text as a decode error", func() {
			start(openRouterModel)
			transport.sink.OnResponse(200, nil)
			transport.sink.OnChunk([]byte("data: \xff\xfe\n\n"))
			transport.sink.OnComplete(nil)

			o := rec.Outcomes()[0]
			Expect(o.Err.Kind).To(Equal(stream.DecodeError))
			Expect(errors.Is(o.Err, sse.ErrInvalidText)).To(BeTrue())
		})
	})

	Describe("HTTP errors", func() {
		It("resolves ApiError with the envelope message", func() {
			start(geminiModel)
			transport.sink.OnResponse(429, nil)
			transport.sink.OnChunk([]byte(`{"error":{"message":"rate limited"}}`))
			transport.sink.OnComplete(nil)

			Expect(rec.Events()).To(Equal([]string{"complete:failed"}))
			o := rec.Outcomes()[0]
			Expect(o.Err.Kind).To(Equal(stream.APIError))
			Expect(o.Err.Message).To(Equal("rate limited"))
			Expect(o.Err.StatusCode).To(Equal(429))
			Expect(o.Message()).To(Equal("API error (status 429): rate limited"))
		})

		It("uses a body that arrived before the status", func() {
			start(openRouterModel)
			transport.sink.OnChunk([]byte(`{"error":{"message":"No auth`))
			transport.sink.OnChunk([]byte(` credentials found","code":401}}`))
			transport.sink.OnResponse(401, nil)
			transport.sink.OnComplete(nil)

			o := rec.Outcomes()[0]
			Expect(o.Err.Message).To(Equal("No auth credentials found"))
			Expect(o.Err.Code).To(Equal("401"))
			Expect(o.Err.StatusCode).To(Equal(401))
		})

		It("falls back to a generic message", func() {
			start(openRouterModel)
			transport.sink.OnResponse(502, nil)
			transport.sink.OnChunk([]byte("<html>Bad Gateway</html>"))
			transport.sink.OnComplete(nil)

			o := rec.Outcomes()[0]
			Expect(o.Err.Message).To(Equal("status 502"))
			Expect(o.Message()).To(Equal("API error: status 502"))
		})

		It("does not decode an error body as tokens", func() {
			start(openRouterModel)
			transport.sink.OnResponse(500, nil)
			transport.sink.OnChunk([]byte(`data: {"choices":[{"delta":{"content":"nope"}}]}` + "\n\n"))
			transport.sink.OnComplete(nil)

			Expect(rec.Events()).To(Equal([]string{"complete:failed"}))
		})
	})

	Describe("network errors", func() {
		It("reports a transport failure", func() {
			start(openRouterModel)
			transport.sink.OnResponse(200, nil)
			transport.sink.OnComplete(errors.New("connection reset by peer"))

			o := rec.Outcomes()[0]
			Expect(o.Err.Kind).To(Equal(stream.NetworkError))
			Expect(o.Err.Message).To(Equal("connection reset by peer"))
		})

		It("reports a completion without any response", func() {
			start(openRouterModel)
			transport.sink.OnComplete(nil)

			Expect(rec.Outcomes()[0].Err).To(MatchError(stream.ErrNetwork))
		})
	})

	Describe("cancellation", func() {
		It("is idempotent and resolves Cancelled once", func() {
			h := start(openRouterModel)
			transport.sink.OnResponse(200, nil)

			h.Cancel()
			h.Cancel()
			Expect(transport.ctx.Err()).To(MatchError(context.Canceled))

			transport.sink.OnChunk([]byte(`data: {"choices":[{"delta":{"content":"late"}}]}` + "\n\n"))
			transport.sink.OnComplete(transport.ctx.Err())
			transport.sink.OnComplete(transport.ctx.Err())

			Expect(rec.Events()).To(Equal([]string{"complete:cancelled"}))
			Expect(rec.Outcomes()[0].Message()).To(Equal("Request cancelled."))
			Expect(h.Done()).To(BeClosed())
		})

		It("is a no-op after natural completion", func() {
			h := start(geminiModel)
			transport.sink.OnResponse(200, nil)
			transport.sink.OnComplete(nil)

			Expect(func() {
				h.Cancel()
				h.Cancel()
			}).NotTo(Panic())
			Expect(rec.Events()).To(Equal([]string{"complete:success"}))
		})

		It("can be requested from inside a token callback", func() {
			var h *stream.Handle
			onToken := func(t string) {
				rec.onToken(t)
				h.Cancel()
			}
			h = co.Start(context.Background(), openRouterModel, history, "test-key", onToken, rec.onComplete)

			transport.sink.OnResponse(200, nil)
			transport.sink.OnChunk([]byte(
				`data: {"choices":[{"delta":{"content":"one"}}]}` + "\n\n" +
					`data: {"choices":[{"delta":{"content":"two"}}]}` + "\n\n"))
			transport.sink.OnComplete(context.Canceled)

			Expect(rec.Events()).To(Equal([]string{"token:one", "complete:cancelled"}))
		})

		It("resolves Cancelled when the parent context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			co.Start(ctx, openRouterModel, history, "test-key", rec.onToken, rec.onComplete)

			cancel()
			transport.sink.OnComplete(transport.ctx.Err())
			Expect(rec.Events()).To(Equal([]string{"complete:cancelled"}))
		})
	})

	It("gives every exchange its own ID", func() {
		a := start(openRouterModel)
		b := start(openRouterModel)
		Expect(a.ID()).NotTo(BeEmpty())
		Expect(a.ID()).NotTo(Equal(b.ID()))
	})
})
