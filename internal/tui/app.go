// Package tui is the terminal front end of the Glass Factory chat client.
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"glassfactory-chat/internal/pkg/logger"
	"glassfactory-chat/pkg/chat"
	"glassfactory-chat/pkg/render"
	"glassfactory-chat/pkg/typing"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	modeCompose = iota
	modeAttach
)

const (
	sidebarWidth    = 30
	composeHeight   = 3
	minSidebarWidth = 100
	logModule       = "TUI"
)

type stateChangedMsg struct{}

type frameMsg struct{ frame typing.Frame }

type sendDoneMsg struct{ err error }

type model struct {
	ctx     context.Context
	manager *chat.Manager
	logger  logger.ILogger

	width  int
	height int
	mode   int

	compose    textarea.Model
	attach     textinput.Model
	transcript viewport.Model
	spinner    spinner.Model
	keys       keyMap
	help       help.Model
	showHelp   bool
	theme      theme
	scroll     typing.ScrollTracker

	promptIndex int
	status      string
	statusErr   bool
	// sending covers the gap between a send command being issued and the
	// manager marking itself loading.
	sending bool
}

func newModel(ctx context.Context, mgr *chat.Manager, log logger.ILogger) model {
	compose := textarea.New()
	compose.Placeholder = "Ask about glass manufacturing... (/help for commands)"
	compose.Prompt = ""
	compose.ShowLineNumbers = false
	compose.SetHeight(composeHeight)
	compose.Focus()

	attach := textinput.New()
	attach.Placeholder = "path to an image"
	attach.Prompt = "image: "

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return model{
		ctx:        ctx,
		manager:    mgr,
		logger:     log,
		compose:    compose,
		attach:     attach,
		transcript: viewport.New(0, 0),
		spinner:    spin,
		keys:       defaultKeyMap,
		help:       help.New(),
		theme:      newTheme(mgr.IsDarkMode()),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.syncTranscript()
		return m, nil

	case stateChangedMsg, frameMsg:
		m.theme = newTheme(m.manager.IsDarkMode())
		m.syncTranscript()
		return m, nil

	case sendDoneMsg:
		m.handleSendDone(msg.err)
		m.syncTranscript()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.manager.IsLoading() {
			m.syncTranscript()
		}
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		m.trackScroll()
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.mode == modeAttach {
			return m.updateAttach(msg)
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Send):
		value := m.compose.Value()
		if strings.HasPrefix(strings.TrimSpace(value), "/") {
			m.compose.Reset()
			return m.runCommand(strings.TrimSpace(value)), true
		}
		return m.startSend(value), true

	case key.Matches(msg, m.keys.Newline):
		m.compose.InsertString("\n")
		return nil, true

	case key.Matches(msg, m.keys.NewChat):
		m.manager.NewChat(m.ctx)
		m.compose.Reset()
		m.setStatus("Started a new chat", false)
		return nil, true

	case key.Matches(msg, m.keys.NextSession):
		m.cycleSession(1)
		return nil, true

	case key.Matches(msg, m.keys.PrevSession):
		m.cycleSession(-1)
		return nil, true

	case key.Matches(msg, m.keys.Delete):
		m.deleteActive()
		return nil, true

	case key.Matches(msg, m.keys.Theme):
		m.toggleTheme()
		return nil, true

	case key.Matches(msg, m.keys.Attach):
		m.mode = modeAttach
		m.attach.SetValue(m.manager.AttachedImage())
		m.compose.Blur()
		return m.attach.Focus(), true

	case key.Matches(msg, m.keys.Prompt):
		prompts := m.manager.SuggestedPrompts()
		if len(prompts) > 0 {
			m.compose.SetValue(prompts[m.promptIndex%len(prompts)])
			m.promptIndex++
		}
		return nil, true

	case key.Matches(msg, m.keys.ScrollUp, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		m.trackScroll()
		return cmd, true

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.layout()
		m.syncTranscript()
		return nil, true
	}
	return nil, false
}

func (m model) updateAttach(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.leaveAttach()
		return m, nil
	case key.Matches(msg, m.keys.Send):
		path := strings.TrimSpace(m.attach.Value())
		m.leaveAttach()
		m.attachImage(path)
		return m, nil
	}

	var cmd tea.Cmd
	m.attach, cmd = m.attach.Update(msg)
	return m, cmd
}

func (m *model) leaveAttach() {
	m.mode = modeCompose
	m.attach.Blur()
	m.compose.Focus()
}

func (m *model) attachImage(path string) {
	if path == "" {
		m.manager.RemoveImage()
		m.setStatus("Image removed", false)
		return
	}
	if err := m.manager.AttachImage(expandHome(path)); err != nil {
		m.logger.Warn(logModule, "Image rejected", map[string]interface{}{"path": path, "error": err.Error()})
		m.setStatus("Cannot attach: "+err.Error(), true)
		return
	}
	m.setStatus("Attached "+filepath.Base(path), false)
}

// startSend hands the compose box to the manager. The box is cleared right away
// and restored if the send fails before reaching the server.
func (m *model) startSend(text string) tea.Cmd {
	if m.busy() {
		m.setStatus("Waiting for the previous reply...", true)
		return nil
	}
	if strings.TrimSpace(text) == "" && m.manager.AttachedImage() == "" {
		return nil
	}

	m.manager.SetInput(text)
	m.compose.Reset()
	m.status = ""
	m.sending = true

	ctx, mgr := m.ctx, m.manager
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return sendDoneMsg{err: mgr.Send(ctx)}
	})
}

func (m *model) busy() bool {
	return m.sending || m.manager.IsLoading()
}

func (m *model) handleSendDone(err error) {
	m.sending = false
	switch {
	case err == nil:
		m.scroll.Reset()
	case chat.IsSendRejection(err):
	case errors.Is(err, chat.ErrImageConversion), errors.Is(err, chat.ErrNotAnImage):
		m.compose.SetValue(m.manager.Input())
		m.setStatus("Could not read the attached image", true)
	default:
		m.compose.SetValue(m.manager.Input())
		m.setStatus(err.Error(), true)
	}
}

func (m *model) cycleSession(delta int) {
	history := m.manager.History()
	if len(history) == 0 {
		m.setStatus("No saved chats yet", false)
		return
	}

	current := -1
	active := m.manager.SessionID()
	for i, s := range history {
		if s.SessionID == active {
			current = i
			break
		}
	}

	next := 0
	if current >= 0 {
		next = (current + delta + len(history)) % len(history)
	} else if delta < 0 {
		next = len(history) - 1
	}

	if err := m.manager.LoadSession(m.ctx, history[next].SessionID); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.scroll.Reset()
	m.setStatus("Opened "+history[next].Title, false)
}

func (m *model) deleteActive() {
	id := m.manager.SessionID()
	m.manager.DeleteSession(m.ctx, id)
	m.compose.Reset()
	m.setStatus("Chat deleted", false)
}

func (m *model) toggleTheme() {
	dark := m.manager.ToggleDarkMode(m.ctx)
	m.theme = newTheme(dark)
	if dark {
		m.setStatus("Dark mode", false)
	} else {
		m.setStatus("Light mode", false)
	}
}

// runCommand handles slash commands typed into the compose box.
func (m *model) runCommand(input string) tea.Cmd {
	name, arg, _ := strings.Cut(strings.TrimPrefix(input, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "new":
		m.manager.NewChat(m.ctx)
		m.setStatus("Started a new chat", false)
	case "delete":
		m.deleteActive()
	case "theme":
		m.toggleTheme()
	case "image":
		m.attachImage(arg)
	case "noimage":
		m.attachImage("")
	case "export":
		path, err := exportTranscript(expandHome(arg), m.manager)
		if err != nil {
			m.logger.Error(logModule, "Export failed", map[string]interface{}{"error": err})
			m.setStatus("Export failed: "+err.Error(), true)
			break
		}
		m.setStatus("Exported to "+path, false)
	case "prompt":
		prompts := m.manager.SuggestedPrompts()
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(prompts) {
			m.setStatus(fmt.Sprintf("Usage: /prompt 1-%d", len(prompts)), true)
			break
		}
		if m.busy() {
			m.setStatus("Waiting for the previous reply...", true)
			break
		}
		m.sending = true
		ctx, mgr, prompt := m.ctx, m.manager, prompts[n-1]
		return tea.Batch(m.spinner.Tick, func() tea.Msg {
			return sendDoneMsg{err: mgr.SendPrompt(ctx, prompt)}
		})
	case "help":
		m.showHelp = true
		m.help.ShowAll = true
		m.layout()
		m.setStatus("/new /delete /theme /image <path> /noimage /export [file] /prompt <n>", false)
	default:
		m.setStatus("Unknown command /"+name, true)
	}
	return nil
}

func (m *model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *model) trackScroll() {
	m.scroll.Update(m.transcript.YOffset, m.transcript.Height, m.transcript.TotalLineCount(), m.width)
}

func (m *model) showSidebar() bool {
	return m.width >= minSidebarWidth
}

func (m *model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	mainWidth := m.width
	if m.showSidebar() {
		mainWidth -= sidebarWidth + 1
	}

	m.compose.SetWidth(mainWidth - 2)
	m.attach.Width = mainWidth - 10

	footer := 1
	if m.showHelp {
		footer += 3
	}
	// header + compose box with border + attachment line + status + footer
	h := m.height - 1 - (composeHeight + 2) - 1 - 1 - footer
	if h < 3 {
		h = 3
	}
	m.transcript.Width = mainWidth
	m.transcript.Height = h
}

func (m *model) syncTranscript() {
	m.transcript.SetContent(m.renderTranscript(m.transcript.Width))
	if m.scroll.AutoScroll() {
		m.transcript.GotoBottom()
	}
}

func (m model) renderTranscript(width int) string {
	if width <= 0 {
		width = 80
	}
	wrapWidth := width - 2
	typingID, typed, typingActive := m.manager.Typing()
	messages := m.manager.Messages()

	var b strings.Builder
	for i, msg := range messages {
		label := m.theme.assistant.Render("Glass Factory")
		if msg.IsUser {
			label = m.theme.user.Render("You")
		}
		b.WriteString(label + " " + m.theme.timestamp.Render(msg.Timestamp.Local().Format("15:04")) + "\n")

		if msg.Image != "" {
			name := "image"
			if msg.ImageFile != "" {
				name = filepath.Base(msg.ImageFile)
			}
			b.WriteString("  " + m.theme.attached.Render("[image: "+name+"]") + "\n")
		}

		text := msg.Text
		if typingActive && msg.ID == typingID {
			text = typed
		}
		if text != "" {
			if !msg.IsUser {
				text = render.Terminal(render.Parse(text))
			}
			body := ansi.Wrap(text, wrapWidth, "")
			for _, line := range strings.Split(body, "\n") {
				b.WriteString("  " + line + "\n")
			}
		}
		if i < len(messages)-1 {
			b.WriteString("\n")
		}
	}

	if len(messages) == 1 && !m.manager.IsLoading() {
		b.WriteString("\n" + m.theme.dim.Render("Try one of these (ctrl+p or /prompt n):") + "\n")
		for i, p := range m.manager.SuggestedPrompts() {
			b.WriteString(m.theme.dim.Render(fmt.Sprintf("  %d. %s", i+1, p)) + "\n")
		}
	}

	if m.manager.IsLoading() {
		b.WriteString("\n" + m.theme.dim.Render(m.spinner.View()+" Thinking...") + "\n")
	}
	return b.String()
}

func (m model) renderSidebar(height int) string {
	var b strings.Builder
	b.WriteString(m.theme.header.Render("Chats") + "\n\n")

	active := m.manager.SessionID()
	inner := sidebarWidth - 4
	for _, s := range m.manager.History() {
		title := ansi.Truncate(s.Title, inner-2, "...")
		if s.SessionID == active {
			b.WriteString(m.theme.active.Render("> "+title) + "\n")
		} else {
			b.WriteString("  " + title + "\n")
		}
		b.WriteString(m.theme.dim.Render("  "+ansi.Truncate(s.LastMessage, inner-2, "...")) + "\n")
	}
	if len(m.manager.History()) == 0 {
		b.WriteString(m.theme.dim.Render("No saved chats") + "\n")
	}

	return m.theme.sidebar.Width(sidebarWidth - 2).Height(height - 2).Render(b.String())
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := m.manager.Title()
	if title == "" {
		title = chat.NewChatTitle
	}
	palette := "light"
	if m.manager.IsDarkMode() {
		palette = "dark"
	}
	header := m.theme.header.Render("Glass Factory") + m.theme.dim.Render(" · "+title+" · "+palette)

	attachment := ""
	if img := m.manager.AttachedImage(); img != "" {
		attachment = m.theme.attached.Render("Attached: " + filepath.Base(img) + " (/noimage to remove)")
	}

	input := m.compose.View()
	if m.mode == modeAttach {
		input = m.attach.View()
	}
	box := m.theme.compose.Render(input)

	status := m.status
	if m.statusErr {
		status = m.theme.err.Render(status)
	} else {
		status = m.theme.dim.Render(status)
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.transcript.View(),
		attachment,
		box,
		status,
	)

	if m.showSidebar() {
		main = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(lipgloss.Height(main)), " ", main)
	}
	return lipgloss.JoinVertical(lipgloss.Left, main, m.help.View(m.keys))
}
