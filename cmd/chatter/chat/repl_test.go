package chatcmder

import (
	"bytes"
	"context"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/cliui"
	"github.com/papercomputeco/chatter/pkg/logger"
	"github.com/papercomputeco/chatter/pkg/stream"
)

var _ = Describe("repl", func() {
	var (
		out        *bytes.Buffer
		interrupts chan os.Signal
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		interrupts = make(chan os.Signal, 1)
	})

	newREPL := func(t stream.Transport, keys keyLookup, input string) *repl {
		return &repl{
			conv: newTestConversation(t, keys),
			in:   strings.NewReader(input),
			out:  out,
			interrupt: func() (<-chan os.Signal, func()) {
				return interrupts, func() {}
			},
			logger:  logger.Nop(),
			mdStyle: cliui.StyleNoTTY,
		}
	}

	It("streams the reply and keeps the history", func() {
		transport := &scriptedTransport{status: 200, chunks: deltaStream("Hel", "lo ", "world")}
		r := newREPL(transport, staticKeys("sk-test"), "hi\nagain\n/exit\n")

		Expect(r.run(context.Background())).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Hello world"))
		Expect(out.String()).To(ContainSubstring("GPT-4.1 mini"))
		Expect(transport.calls()).To(Equal(2))
		Expect(transport.sentMessages(1)).To(HaveLen(3))
	})

	It("stops at end of input", func() {
		transport := &scriptedTransport{status: 200, chunks: deltaStream("ok")}
		r := newREPL(transport, staticKeys("sk-test"), "hi\n")

		Expect(r.run(context.Background())).To(Succeed())
		Expect(transport.calls()).To(Equal(1))
	})

	It("prints the failure message", func() {
		transport := &scriptedTransport{status: 500, chunks: []string{`{"error":{"message":"overloaded"}}`}}
		r := newREPL(transport, staticKeys("sk-test"), "hi\n/exit\n")

		Expect(r.run(context.Background())).To(Succeed())
		Expect(out.String()).To(ContainSubstring("overloaded"))
	})

	It("points to chatter auth when the key is missing", func() {
		r := newREPL(&scriptedTransport{status: 200}, staticKeys(""), "hi\n/exit\n")

		Expect(r.run(context.Background())).To(Succeed())
		Expect(out.String()).To(ContainSubstring(`chatter auth openai`))
		Expect(out.String()).To(ContainSubstring("OPENAI_API_KEY"))
	})

	It("cancels the in-flight reply on interrupt", func() {
		interrupts <- os.Interrupt
		r := newREPL(hangingTransport{}, staticKeys("sk-test"), "hi\n/exit\n")

		Expect(r.run(context.Background())).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Request cancelled."))
		Expect(r.conv.Busy()).To(BeFalse())
	})

	It("clears the conversation", func() {
		transport := &scriptedTransport{status: 200, chunks: deltaStream("ok")}
		r := newREPL(transport, staticKeys("sk-test"), "hi\n/clear\nagain\n/exit\n")

		Expect(r.run(context.Background())).To(Succeed())
		Expect(out.String()).To(ContainSubstring("New conversation"))
		Expect(transport.sentMessages(1)).To(HaveLen(1))
	})

	It("renders the finished reply as markdown", func() {
		transport := &scriptedTransport{status: 200, chunks: deltaStream("# Title\n\n", "body text")}
		r := newREPL(transport, staticKeys("sk-test"), "hi\n/exit\n")
		r.markdown = true

		Expect(r.run(context.Background())).To(Succeed())
		Expect(out.String()).To(ContainSubstring("receiving... 2 tokens"))
		Expect(out.String()).To(ContainSubstring("body text"))
	})
})
