// Package ui is the terminal front end of pleader.
package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

// Focus is the part of the screen receiving key presses.
type Focus string

const (
	FocusInput   Focus = "input"
	FocusSidebar Focus = "sidebar"
	FocusSearch  Focus = "search"
)

const sidebarWidth = 28

type Model struct {
	ctx        context.Context
	controller ChatController
	history    ConversationList

	viewport viewport.Model
	textArea textarea.Model
	search   textinput.Model
	spinner  spinner.Model
	help     help.Model

	keyMap KeyMap
	style  *Style
	width  int
	height int

	focus    Focus
	state    conversation.State
	items    []conversation.Summary
	selected int
	// notice is the last failure, cleared by the next user action
	notice string
}

type ModelOption func(*Model)

func WithStyle(style *Style) ModelOption {
	return func(m *Model) {
		m.style = style
	}
}

func WithKeyMap(keyMap KeyMap) ModelOption {
	return func(m *Model) {
		m.keyMap = keyMap
	}
}

func NewModel(ctx context.Context, controller ChatController, history ConversationList, options ...ModelOption) Model {
	ret := Model{
		ctx:        ctx,
		controller: controller,
		history:    history,
		viewport:   viewport.New(0, 0),
		help:       help.New(),
		keyMap:     DefaultKeyMap,
		style:      DefaultStyles(),
		state:      controller.Snapshot(),
		items:      history.Items(),
	}
	for _, option := range options {
		option(&ret)
	}

	ret.textArea = textarea.New()
	ret.textArea.Placeholder = "Ask a legal question..."
	ret.textArea.ShowLineNumbers = false
	ret.textArea.SetHeight(3)
	ret.textArea.Focus()

	ret.search = textinput.New()
	ret.search.Prompt = "/ "
	ret.search.Placeholder = "search"

	ret.spinner = spinner.New()
	ret.spinner.Spinner = spinner.Dot

	ret.focus = FocusInput
	ret.updateKeyBindings()

	return ret
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		refreshHistoryCmd(m.ctx, m.history),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recomputeSize()

	case StateMsg:
		m.setState(msg.State)

	case NotificationMsg:
		m.notice = msg.Notification.Message
		log.Debug().
			Str("kind", string(msg.Notification.Kind)).
			Str("error", msg.Notification.Error).
			Msg("notification")

	case historyMsg:
		m.items = msg.Items
		m.clampSelection()
		if msg.Err != nil {
			m.notice = "Error loading chat history"
		}

	case submitDoneMsg, loadDoneMsg, deleteDoneMsg, newDoneMsg:
		m.items = m.history.Items()
		m.clampSelection()
		m.setState(m.controller.Snapshot())

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.recomputeSize()
		return m, nil

	case key.Matches(msg, m.keyMap.NewConversation):
		m.notice = ""
		cmd = m.setFocus(FocusInput)
		return m, tea.Batch(cmd, startNewCmd(m.controller))

	case key.Matches(msg, m.keyMap.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	switch m.focus {
	case FocusInput:
		switch {
		case key.Matches(msg, m.keyMap.SubmitMessage):
			cmd = m.submit()
			return m, cmd
		case key.Matches(msg, m.keyMap.UnfocusInput):
			cmd = m.setFocus(FocusSidebar)
			return m, cmd
		}
		m.textArea, cmd = m.textArea.Update(msg)
		return m, cmd

	case FocusSidebar:
		switch {
		case key.Matches(msg, m.keyMap.SelectPrevConversation):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, m.keyMap.SelectNextConversation):
			if m.selected < len(m.visibleItems())-1 {
				m.selected++
			}
		case key.Matches(msg, m.keyMap.OpenConversation):
			cmd = m.openSelected()
			return m, cmd
		case key.Matches(msg, m.keyMap.DeleteConversation):
			if item, ok := m.selectedItem(); ok {
				m.notice = ""
				return m, deleteCmd(m.ctx, m.controller, m.history, item.ID)
			}
		case key.Matches(msg, m.keyMap.Search):
			cmd = m.setFocus(FocusSearch)
			return m, cmd
		case key.Matches(msg, m.keyMap.FocusInput):
			cmd = m.setFocus(FocusInput)
			return m, cmd
		}
		return m, nil

	case FocusSearch:
		if key.Matches(msg, m.keyMap.LeaveSearch) {
			cmd = m.setFocus(FocusSidebar)
			return m, cmd
		}
		m.search, cmd = m.search.Update(msg)
		m.selected = 0
		return m, cmd
	}

	return m, nil
}

func (m *Model) submit() tea.Cmd {
	text := m.textArea.Value()
	if strings.TrimSpace(text) == "" || m.state.Pending {
		return nil
	}
	m.notice = ""
	m.textArea.Reset()
	// the controller confirms through a state event
	m.state.Pending = true
	return submitCmd(m.ctx, m.controller, text)
}

func (m *Model) openSelected() tea.Cmd {
	item, ok := m.selectedItem()
	if !ok {
		return nil
	}
	m.notice = ""
	focusCmd := m.setFocus(FocusInput)
	return tea.Batch(focusCmd, loadCmd(m.ctx, m.controller, item.ID))
}

func (m *Model) setFocus(focus Focus) tea.Cmd {
	m.focus = focus
	m.updateKeyBindings()

	var cmd tea.Cmd
	m.textArea.Blur()
	m.search.Blur()
	switch focus {
	case FocusInput:
		cmd = m.textArea.Focus()
	case FocusSearch:
		cmd = m.search.Focus()
	case FocusSidebar:
	}
	m.clampSelection()
	return cmd
}

func (m *Model) setState(state conversation.State) {
	m.state = state
	m.viewport.SetContent(m.messageView())
	m.viewport.GotoBottom()
}

func (m *Model) updateKeyBindings() {
	m.keyMap.SubmitMessage.SetEnabled(m.focus == FocusInput)
	m.keyMap.UnfocusInput.SetEnabled(m.focus == FocusInput)

	m.keyMap.FocusInput.SetEnabled(m.focus == FocusSidebar)
	m.keyMap.SelectPrevConversation.SetEnabled(m.focus == FocusSidebar)
	m.keyMap.SelectNextConversation.SetEnabled(m.focus == FocusSidebar)
	m.keyMap.OpenConversation.SetEnabled(m.focus == FocusSidebar)
	m.keyMap.DeleteConversation.SetEnabled(m.focus == FocusSidebar)
	m.keyMap.Search.SetEnabled(m.focus == FocusSidebar)

	m.keyMap.LeaveSearch.SetEnabled(m.focus == FocusSearch)
}

func (m Model) mainWidth() int {
	w := m.width - sidebarWidth - m.style.Sidebar.GetHorizontalFrameSize()
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) recomputeSize() {
	width := m.mainWidth()

	h, _ := m.style.FocusedInput.GetFrameSize()
	m.textArea.SetWidth(width - h)
	m.search.Width = sidebarWidth - 3

	fixed := lipgloss.Height(m.headerView()) +
		lipgloss.Height(m.statusView()) +
		lipgloss.Height(m.textAreaView()) +
		lipgloss.Height(m.help.View(m.keyMap))
	newHeight := m.height - fixed
	if newHeight < 0 {
		newHeight = 0
	}
	m.viewport.Width = width
	m.viewport.Height = newHeight
	m.viewport.SetContent(m.messageView())
	m.viewport.GotoBottom()
}

func (m Model) headerView() string {
	return m.style.Header.Render("PLEADER AI") + "  " + m.activeTitle()
}

func (m Model) messageView() string {
	width := m.mainWidth()
	if len(m.state.Messages) == 0 {
		return m.style.EmptyPlaceholder.Render("Ask a question to start a new chat.")
	}

	views := make([]string, 0, len(m.state.Messages))
	for _, msg := range m.state.Messages {
		views = append(views, m.renderMessage(msg, width))
	}
	return strings.Join(views, "\n")
}

func (m Model) renderMessage(msg conversation.Message, width int) string {
	style := m.style.AssistantMessage
	label := m.style.AssistantLabel.Render("Pleader AI")
	if msg.IsUser() {
		style = m.style.UserMessage
		label = m.style.UserLabel.Render("You")
	}
	if !msg.Timestamp.IsZero() {
		label += " " + m.style.Timestamp.Render(msg.Timestamp.Local().Format("15:04"))
	}

	w := width - style.GetHorizontalFrameSize()
	body := RenderContent(msg.Content, w, m.style)
	return style.Width(width - style.GetHorizontalBorderSize()).Render(label + "\n" + body)
}

func (m Model) statusView() string {
	switch {
	case m.notice != "":
		return m.style.Error.Render(m.notice)
	case m.state.Pending:
		return m.style.Pending.Render(m.spinner.View() + " Pleader AI is thinking...")
	default:
		return ""
	}
}

func (m Model) textAreaView() string {
	if m.focus == FocusInput {
		return m.style.FocusedInput.Render(m.textArea.View())
	}
	return m.style.UnfocusedInput.Render(m.textArea.View())
}

func (m Model) View() string {
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.statusView(),
		m.textAreaView(),
		m.help.View(m.keyMap),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(sidebarWidth, lipgloss.Height(main)), main)
}
