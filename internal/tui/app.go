// Package tui renders the Brio help-desk client: a login view for the email
// identity and a chat view with conversation sidebar, message log, composer
// and voice capture. All session state transitions run through the session
// controller on the bubbletea event loop; network calls happen inside
// commands and come back as messages.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"

	"briochat/internal/api"
	"briochat/internal/audio"
	"briochat/internal/identity"
	"briochat/internal/model"
	"briochat/internal/session"
)

const (
	viewLogin = iota
	viewChat
)

const (
	focusComposer = iota
	focusSidebar
)

const sidebarWidth = 32

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	youStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	botStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	composerWrap = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	sidebarWrap  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, true, false, false).BorderForeground(lipgloss.Color("240"))
)

type sidebarMsg struct {
	seq   uint64
	convs []model.Conversation
	err   error
}

type historyMsg struct {
	conversationID string
	history        []model.HistoryMessage
	err            error
}

type sendDoneMsg struct {
	attempt session.SendAttempt
	reply   string
	err     error
}

type transcribedMsg struct {
	text string
	err  error
}

type appModel struct {
	logger   *zap.Logger
	client   *api.Client
	recorder *audio.Recorder
	session  *session.Controller

	width  int
	height int
	view   int
	focus  int

	emailInput textinput.Model
	loginErr   string

	sidebar  list.Model
	chatView viewport.Model
	composer textarea.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	showHelp bool

	transcribing bool
	notice       string
}

// Run starts the TUI and blocks until the user quits.
func Run(logger *zap.Logger, provider identity.Provider, client *api.Client, recorder *audio.Recorder) error {
	ctrl := session.NewController(provider, logger)
	p := tea.NewProgram(newAppModel(logger, ctrl, client, recorder), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newAppModel(logger *zap.Logger, ctrl *session.Controller, client *api.Client, recorder *audio.Recorder) appModel {
	emailInput := textinput.New()
	emailInput.Placeholder = "Enter your email to see history"
	emailInput.Width = 40
	emailInput.Focus()

	composer := textarea.New()
	composer.Placeholder = "Message Brio..."
	composer.Prompt = ""
	composer.ShowLineNumbers = false
	composer.SetHeight(3)

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = dimStyle

	m := appModel{
		logger:     logger,
		client:     client,
		recorder:   recorder,
		session:    ctrl,
		view:       viewLogin,
		focus:      focusComposer,
		emailInput: emailInput,
		sidebar:    newListModel(),
		chatView:   viewport.New(0, 0),
		composer:   composer,
		spinner:    spin,
		help:       help.New(),
		keys:       defaultKeyMap,
	}

	// Returning user: skip login and land in a fresh conversation.
	email, err := ctrl.Initialize()
	switch {
	case err == nil:
		m.view = viewChat
		m.composer.Focus()
		logger.Info("session resumed", zap.String("email", email))
	case errors.Is(err, identity.ErrNoIdentity):
		// First run, show login.
	default:
		logger.Warn("failed to read identity", zap.Error(err))
	}
	return m
}

func (m appModel) Init() tea.Cmd {
	if m.view == viewChat {
		return tea.Batch(textarea.Blink, m.spinner.Tick, m.refreshSidebarCmd())
	}
	return textinput.Blink
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.syncChatViewport()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.session.Sending() || m.transcribing || m.recorder.Recording() {
			m.syncChatViewport()
			return m, cmd
		}
		return m, nil
	case sidebarMsg:
		if m.session.ApplySidebar(msg.seq, msg.convs, msg.err) {
			m.sidebar.SetItems(buildConversationItems(m.session.Conversations()))
		}
		return m, nil
	case historyMsg:
		m.session.ApplyHistory(msg.conversationID, msg.history, msg.err)
		m.syncChatViewport()
		m.chatView.GotoBottom()
		return m, nil
	case sendDoneMsg:
		refresh := m.session.CompleteSend(msg.attempt, msg.reply, msg.err)
		m.syncChatViewport()
		m.chatView.GotoBottom()
		if refresh {
			return m, m.refreshSidebarCmd()
		}
		return m, nil
	case transcribedMsg:
		m.transcribing = false
		if msg.err != nil {
			// The draft is left exactly as it was before the recording.
			m.logger.Error("transcription failed", zap.Error(msg.err))
			m.notice = "Transcription failed"
			return m, nil
		}
		m.notice = ""
		m.composer.SetValue(msg.text)
		m.composer.CursorEnd()
		return m, nil
	case tea.KeyMsg:
		if m.view == viewLogin {
			return m.updateLogin(msg)
		}
		return m.updateChat(msg)
	}
	return m, nil
}

func (m appModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		return m, tea.Quit
	case "enter":
		email := strings.TrimSpace(m.emailInput.Value())
		if !validEmail(email) {
			m.loginErr = "Valid email required"
			return m, nil
		}
		if err := m.session.Login(email); err != nil {
			m.logger.Error("failed to persist identity", zap.Error(err))
			m.loginErr = "Could not save your email. Please try again."
			return m, nil
		}
		m.loginErr = ""
		m.view = viewChat
		m.focus = focusComposer
		m.composer.Focus()
		m.emailInput.Blur()
		m.syncChatViewport()
		m.chatView.GotoBottom()
		return m, tea.Batch(textarea.Blink, m.refreshSidebarCmd())
	}
	var cmd tea.Cmd
	m.emailInput, cmd = m.emailInput.Update(msg)
	return m, cmd
}

func (m appModel) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// While the sidebar filter is typing, it swallows everything else.
	if m.focus == focusSidebar && m.sidebar.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.NewChat):
		m.session.StartNewConversation()
		m.composer.Reset()
		m.focusComposerPane()
		m.syncChatViewport()
		m.chatView.GotoBottom()
		return m, nil
	case key.Matches(msg, m.keys.Record):
		cmd := m.toggleRecording()
		return m, cmd
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshSidebarCmd()
	case key.Matches(msg, m.keys.Logout):
		return m.logout()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.layout()
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusComposer {
			m.focus = focusSidebar
			m.composer.Blur()
		} else {
			m.focusComposerPane()
		}
		return m, nil
	}

	if m.focus == focusSidebar {
		switch {
		case msg.String() == "enter":
			item, ok := m.sidebar.SelectedItem().(conversationItem)
			if !ok {
				return m, nil
			}
			conversationID := m.session.BeginSelect(item.data)
			m.focusComposerPane()
			m.syncChatViewport()
			return m, fetchHistoryCmd(m.client, conversationID)
		}
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Newline):
		m.composer.InsertString("\n")
		return m, nil
	case key.Matches(msg, m.keys.Send):
		cmd := m.startSend()
		return m, cmd
	}
	switch msg.String() {
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

func (m *appModel) focusComposerPane() {
	m.focus = focusComposer
	m.composer.Focus()
}

func (m appModel) logout() (tea.Model, tea.Cmd) {
	if m.recorder.Recording() {
		if _, err := m.recorder.Stop(); err != nil {
			m.logger.Warn("failed to stop recording on logout", zap.Error(err))
		}
	}
	m.session.Logout()
	m.view = viewLogin
	m.loginErr = ""
	m.notice = ""
	m.transcribing = false
	m.emailInput.SetValue("")
	m.emailInput.Focus()
	m.composer.Reset()
	m.composer.Blur()
	m.sidebar.SetItems(nil)
	return m, textinput.Blink
}

// startSend runs the optimistic append through the controller and, if it
// accepted the text, fires the round trip.
func (m *appModel) startSend() tea.Cmd {
	attempt, ok := m.session.BeginSend(m.composer.Value())
	if !ok {
		return nil
	}
	m.composer.Reset()
	m.syncChatViewport()
	m.chatView.GotoBottom()
	return tea.Batch(m.spinner.Tick, sendCmd(m.client, attempt))
}

// toggleRecording flips the capture session. Recording and transcription are
// mutually exclusive: a new recording cannot start while an upload is in
// flight.
func (m *appModel) toggleRecording() tea.Cmd {
	if m.transcribing {
		m.notice = "Still transcribing..."
		return nil
	}
	if m.recorder.Recording() {
		clip, err := m.recorder.Stop()
		if err != nil {
			m.logger.Error("failed to finalize recording", zap.Error(err))
			m.notice = "Recording failed"
			return nil
		}
		m.transcribing = true
		m.notice = ""
		return tea.Batch(m.spinner.Tick, transcribeCmd(m.client, clip))
	}
	if err := m.recorder.Start(); err != nil {
		// Terminal for this attempt; the capture key reverts to idle.
		m.logger.Error("microphone unavailable", zap.Error(err))
		m.notice = "Microphone unavailable"
		return nil
	}
	m.notice = ""
	return m.spinner.Tick
}

func (m *appModel) refreshSidebarCmd() tea.Cmd {
	seq, email := m.session.BeginSidebarRefresh()
	client := m.client
	return func() tea.Msg {
		convs, err := client.Conversations(context.Background(), email)
		return sidebarMsg{seq: seq, convs: convs, err: err}
	}
}

func fetchHistoryCmd(client *api.Client, conversationID string) tea.Cmd {
	return func() tea.Msg {
		history, err := client.History(context.Background(), conversationID)
		return historyMsg{conversationID: conversationID, history: history, err: err}
	}
}

func sendCmd(client *api.Client, attempt session.SendAttempt) tea.Cmd {
	return func() tea.Msg {
		reply, err := client.Send(context.Background(), attempt.ConversationID, attempt.Email, attempt.Text)
		return sendDoneMsg{attempt: attempt, reply: reply, err: err}
	}
}

func transcribeCmd(client *api.Client, clip []byte) tea.Cmd {
	return func() tea.Msg {
		text, err := client.Transcribe(context.Background(), clip)
		return transcribedMsg{text: text, err: err}
	}
}

func validEmail(email string) bool {
	return strings.Contains(email, "@")
}

func (m *appModel) layout() {
	chatWidth := m.chatPaneWidth()
	chatHeight := m.height - chromeHeight - m.composer.Height()
	if chatHeight < 3 {
		chatHeight = 3
	}
	m.chatView.Width = chatWidth
	m.chatView.Height = chatHeight
	m.composer.SetWidth(chatWidth)
	// The sidebar spans the chat viewport plus the composer box.
	m.sidebar.SetSize(sidebarWidth, chatHeight+m.composer.Height()+2)
	m.help.Width = m.width
}

// Header, alert line, spacer, footer, composer border.
const chromeHeight = 6

func (m *appModel) chatPaneWidth() int {
	w := m.width - sidebarWidth - 2
	if w < 20 {
		w = 20
	}
	return w
}

// syncChatViewport rebuilds the rendered message log. Any append is followed
// by a GotoBottom at the call site so the view anchors to the newest
// message.
func (m *appModel) syncChatViewport() {
	width := m.chatPaneWidth()
	if width <= 0 {
		return
	}
	wrapWidth := width - 2
	if wrapWidth < 1 {
		wrapWidth = width
	}
	atBottom := m.chatView.AtBottom()
	m.chatView.SetContent(strings.Join(m.chatLines(wrapWidth), "\n"))
	if atBottom || m.session.Sending() {
		m.chatView.GotoBottom()
	}
}

func (m *appModel) chatLines(wrapWidth int) []string {
	messages := m.session.Messages()
	lines := make([]string, 0, len(messages)*3)
	for _, msg := range messages {
		label := botStyle.Render("Brio")
		if msg.Author == model.AuthorUser {
			label = youStyle.Render("You")
		}
		lines = append(lines, fmt.Sprintf("%s %s", label, dimStyle.Render(msg.At)))
		wrapped := ansi.Wrap(msg.Text, wrapWidth, "")
		for _, line := range strings.Split(wrapped, "\n") {
			lines = append(lines, "  "+line)
		}
		lines = append(lines, "")
	}
	if m.session.Sending() {
		lines = append(lines, dimStyle.Render(m.spinner.View()+" Typing..."))
	}
	if len(lines) == 0 {
		lines = []string{dimStyle.Render("No messages yet.")}
	}
	return lines
}

func (m appModel) View() string {
	if m.view == viewLogin {
		return m.viewLogin()
	}
	return m.viewChat()
}

func (m appModel) viewLogin() string {
	lines := []string{
		headerStyle.Render("Welcome to Help Desk AI"),
		"",
		m.emailInput.View(),
		"",
	}
	if m.loginErr != "" {
		lines = append(lines, errStyle.Render(m.loginErr), "")
	}
	lines = append(lines, footerStyle.Render("enter: login & chat  ctrl+q: quit"))
	content := strings.Join(lines, "\n")
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}

func (m appModel) viewChat() string {
	status := onlineStyle.Render("Online")
	if m.session.Sending() {
		status = dimStyle.Render("Typing...")
	}
	header := headerStyle.Render("Brio Support") + "  " + status + "  " + dimStyle.Render(m.session.Email())

	alert := ""
	switch {
	case m.session.Banner() != "":
		alert = errStyle.Render(m.session.Banner())
	case m.recorder.Recording():
		alert = recStyle.Render("● Recording (ctrl+r to stop)")
	case m.transcribing:
		alert = dimStyle.Render(m.spinner.View() + " Transcribing...")
	case m.notice != "":
		alert = dimStyle.Render(m.notice)
	}

	chatColumn := strings.Join([]string{
		m.chatView.View(),
		composerWrap.Width(m.chatPaneWidth()).Render(m.composer.View()),
	}, "\n")
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebarWrap.Render(m.sidebar.View()), " ", chatColumn)

	footer := footerStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
	if m.showHelp {
		footer = m.help.FullHelpView(m.keys.FullHelp())
	}

	return strings.Join([]string{header, alert, "", body, footer}, "\n")
}
