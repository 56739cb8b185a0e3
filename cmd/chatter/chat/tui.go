package chatcmder

import (
	"context"
	"log/slog"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/chatter/pkg/cliui"
	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/stream"
	"github.com/papercomputeco/chatter/pkg/utils"
)

// dispatchMsg carries a coordinator callback onto the program's event loop
// so conversation state is only touched from Update.
type dispatchMsg struct {
	fn func()
}

// startedMsg hands the in-flight exchange back to the model.
type startedMsg struct {
	handle *stream.Handle
}

// programDispatcher marshals callbacks through p.Send. Send must not be
// called from Update, so exchanges are always started from a tea.Cmd.
func programDispatcher(p *tea.Program) stream.Dispatcher {
	return stream.DispatcherFunc(func(fn func()) {
		p.Send(dispatchMsg{fn: fn})
	})
}

const defaultWidth = 80

type tuiModel struct {
	ctx    context.Context
	conv   *conversation
	logger *slog.Logger

	input   textinput.Model
	spinner spinner.Model
	width   int
	height  int

	handle        *stream.Handle
	cancelPending bool
	status        string

	markdown bool
	mdStyle  string
	rendered map[int]string
}

func newTUIModel(ctx context.Context, conv *conversation, logger *slog.Logger, markdown bool, mdStyle string) *tuiModel {
	ti := textinput.New()
	ti.Placeholder = "Send a message"
	ti.Prompt = "› "

	return &tuiModel{
		ctx:      ctx,
		conv:     conv,
		logger:   logger,
		input:    ti,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(cliui.StepStyle)),
		markdown: markdown,
		mdStyle:  mdStyle,
		rendered: make(map[int]string),
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return m.input.Focus()
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(max(msg.Width-4, 10))
		clear(m.rendered)
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.conv.Busy() {
				m.cancel()
				return m, nil
			}
			return m, tea.Quit
		case "esc":
			if m.conv.Busy() {
				return m, nil
			}
			return m, tea.Quit
		case "enter":
			start := m.submit()
			if start == nil {
				return m, nil
			}
			return m, tea.Batch(start, m.spinner.Tick)
		}

	case dispatchMsg:
		msg.fn()
		return m, nil

	case startedMsg:
		// The exchange may already have resolved.
		if !m.conv.Busy() {
			return m, nil
		}
		m.handle = msg.handle
		if m.cancelPending {
			m.cancelPending = false
			m.handle.Cancel()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.conv.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles the input line. It returns the command that starts an
// exchange, or nil when nothing needs to stream.
func (m *tuiModel) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.conv.Busy() {
		return nil
	}

	switch text {
	case "/exit":
		return tea.Quit
	case "/clear":
		if err := m.conv.Reset(); err == nil {
			clear(m.rendered)
			m.status = ""
			m.input.Reset()
		}
		return nil
	}

	t, err := m.conv.Begin(text)
	if err != nil {
		m.status = err.Error()
		return nil
	}
	m.input.Reset()
	m.status = ""

	ctx := m.ctx
	return func() tea.Msg {
		h := t.Start(ctx, func(string) {}, m.finished)
		return startedMsg{handle: h}
	}
}

// finished runs on the event loop once the exchange resolves.
func (m *tuiModel) finished(o stream.Outcome) {
	m.handle = nil
	m.cancelPending = false

	if o.Err != nil && stream.IsAPIKeyMissing(o.Err) {
		m.status = apiKeyHint(m.conv.model.Provider)
	}
	m.logger.Debug("exchange finished", "status", o.Status.String())
}

func (m *tuiModel) cancel() {
	if m.handle != nil {
		m.handle.Cancel()
		return
	}
	m.cancelPending = true
}

func (m *tuiModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m *tuiModel) render() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	header := cliui.HeaderStyle.Render("chatter") + " " +
		cliui.NameStyle.Render(utils.Truncate(m.conv.model.Label(), 40)) + " " +
		cliui.DimStyle.Render("("+m.conv.model.Provider+")")

	help := "enter send • ctrl+c quit"
	if m.conv.Busy() {
		help = "ctrl+c cancel"
	}
	footer := []string{m.input.View()}
	if m.status != "" {
		footer = append(footer, cliui.WarnStyle.Render(m.status))
	}
	footer = append(footer, cliui.DimStyle.Render(help))

	lines := strings.Split(m.transcript(width), "\n")
	if m.height > 0 {
		avail := max(m.height-len(footer)-2, 1)
		if len(lines) > avail {
			lines = lines[len(lines)-avail:]
		}
	}

	out := make([]string, 0, len(lines)+len(footer)+2)
	out = append(out, header, "")
	out = append(out, lines...)
	out = append(out, footer...)
	return strings.Join(out, "\n")
}

func (m *tuiModel) transcript(width int) string {
	var b strings.Builder
	for i, msg := range m.conv.Messages() {
		b.WriteString(m.renderMessage(i, msg, width))
		b.WriteString("\n\n")
	}

	if m.conv.Busy() {
		b.WriteString(cliui.AssistantPrompt + m.spinner.View() + "\n")
		if reply := m.conv.Reply(); reply != "" {
			b.WriteString(ansi.Wrap(reply, width, ""))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *tuiModel) renderMessage(i int, msg llm.Message, width int) string {
	switch msg.Role {
	case llm.RoleUser:
		return cliui.UserPrompt + ansi.Wrap(msg.Content, width-ansi.StringWidth(cliui.UserPrompt), "")
	case llm.RoleError:
		return cliui.FailMark + " " + cliui.ErrorStyle.Render(ansi.Wrap(msg.Content, width-2, ""))
	}

	if !m.markdown {
		return ansi.Wrap(msg.Content, width, "")
	}
	if r, ok := m.rendered[i]; ok {
		return r
	}
	r, err := cliui.RenderMarkdown(msg.Content, m.mdStyle, width)
	if err != nil {
		m.logger.Debug("rendering markdown", "error", err)
		return ansi.Wrap(msg.Content, width, "")
	}
	r = strings.Trim(r, "\n")
	m.rendered[i] = r
	return r
}
