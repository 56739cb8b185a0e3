package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/chatter/cmd/chatter/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir string
		out    *bytes.Buffer
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
	})

	run := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .chatter/ config directory")
		cmd.SetOut(out)
		cmd.SetArgs(append(args, "--config-dir", tmpDir))
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		return cmd.Execute()
	}

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(run("set", "chat.model", "claude-sonnet-4-5")).To(Succeed())

			_, err := os.Stat(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.String()).To(ContainSubstring("claude-sonnet-4-5"))
		})

		It("rejects unknown keys", func() {
			Expect(run("set", "invalid_key", "value")).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			Expect(run("set", "chat.model")).To(HaveOccurred())
			Expect(run("set")).To(HaveOccurred())
		})

		It("rejects invalid bool values", func() {
			Expect(run("set", "chat.markdown", "sometimes")).To(HaveOccurred())
		})

		It("rejects non-positive timeouts", func() {
			Expect(run("set", "chat.request_timeout", "0s")).To(HaveOccurred())
			Expect(run("set", "chat.request_timeout", "soon")).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(run("set", "providers.custom_base_url", "http://localhost:11434/v1")).To(Succeed())
			out.Reset()

			Expect(run("get", "providers.custom_base_url")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("http://localhost:11434/v1"))
		})

		It("shows unset keys", func() {
			Expect(run("get", "log.file")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			Expect(run("get", "invalid_key")).To(HaveOccurred())
		})

		It("requires exactly one argument", func() {
			Expect(run("get")).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key with defaults applied", func() {
			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("chat.model"))
			Expect(out.String()).To(ContainSubstring(`"gpt-4.1-mini"`))
			Expect(out.String()).To(ContainSubstring("log.file"))
		})

		It("reflects stored values", func() {
			Expect(run("set", "chat.markdown", "true")).To(Succeed())
			out.Reset()

			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(MatchRegexp(`chat\.markdown\s+= "true"`))
		})

		It("rejects any arguments", func() {
			Expect(run("list", "extra")).To(HaveOccurred())
		})
	})
})
