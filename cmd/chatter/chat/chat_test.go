package chatcmder

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/config"
)

var _ = Describe("NewChatCmd", func() {
	var (
		tmpDir string
		server *httptest.Server
		auth   chan string
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		orig, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
		DeferCleanup(os.Chdir, orig)

		auth = make(chan string, 4)
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth <- r.Header.Get("Authorization")
			if r.URL.Path != "/v1/responses" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/event-stream")
			for _, chunk := range deltaStream("Hello ", "from the server") {
				fmt.Fprint(w, chunk)
				w.(http.Flusher).Flush()
			}
			fmt.Fprint(w, "event: response.completed\ndata: {\"type\":\"response.completed\"}\n\n")
		}))
		DeferCleanup(server.Close)

		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfger.SetConfigValue("providers.openai_base_url", server.URL)).To(Succeed())
	})

	execute := func(stdin string, args ...string) (string, error) {
		out := &bytes.Buffer{}
		cmd := NewChatCmd()
		cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
		cmd.PersistentFlags().String("config-dir", "", "Override path to .chatter/ config directory")
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append(args, "--config-dir", tmpDir))
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		err := cmd.Execute()
		return out.String(), err
	}

	It("registers the chat flags", func() {
		cmd := NewChatCmd()
		for _, name := range []string{"model", "markdown", "timeout", "log-json", "log-file", "tui"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("chats with the configured endpoint using the environment key", func() {
		GinkgoT().Setenv("OPENAI_API_KEY", "sk-env")

		out, err := execute("hi\n/exit\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Hello from the server"))
		Expect(auth).To(Receive(Equal("Bearer sk-env")))
	})

	It("falls back to a .env file in the working directory", func() {
		GinkgoT().Setenv("OPENAI_API_KEY", "")
		Expect(os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("OPENAI_API_KEY=sk-dotenv\n"), 0o600)).To(Succeed())

		_, err := execute("hi\n/exit\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(auth).To(Receive(Equal("Bearer sk-dotenv")))
	})

	It("prints the auth hint when no key is configured", func() {
		GinkgoT().Setenv("OPENAI_API_KEY", "")

		out, err := execute("hi\n/exit\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("chatter auth openai"))
		Expect(auth).NotTo(Receive())
	})

	It("writes JSON logs to --log-file", func() {
		GinkgoT().Setenv("OPENAI_API_KEY", "sk-env")
		logPath := filepath.Join(tmpDir, "chat.log")

		_, err := execute("hi\n/exit\n", "--log-file", logPath, "--debug")
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(logPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"msg":"exchange started"`))
		Expect(string(data)).To(ContainSubstring(`"exchange_id"`))
	})

	It("rejects models missing from the catalog", func() {
		_, err := execute("", "--model", "no-such-model")
		Expect(err).To(MatchError(ContainSubstring("unknown model")))
	})

	It("rejects a non-positive timeout", func() {
		_, err := execute("", "--timeout", "-1s")
		Expect(err).To(HaveOccurred())
	})
})
