package ui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeController struct {
	mu        sync.Mutex
	state     conversation.State
	submitted []string
	loaded    []string
	deleted   []string
	deleteErr error
	started   int
}

func (f *fakeController) Snapshot() conversation.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeController) StartNew() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	f.state = conversation.State{Messages: []conversation.Message{}}
}

func (f *fakeController) LoadExisting(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = append(f.loaded, id)
	f.state = conversation.State{
		ConversationID: id,
		Messages:       []conversation.Message{conversation.NewUserMessage("loaded "+id, t0)},
	}
	return nil
}

func (f *fakeController) Submit(ctx context.Context, text string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, text)
	f.state = conversation.State{
		ConversationID: "c1",
		Messages: []conversation.Message{
			conversation.NewUserMessage(text, t0),
			conversation.NewAssistantMessage("### Answer\n1. First\n2. Second", t0),
		},
	}
	return true, nil
}

func (f *fakeController) DeleteConversation(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

type fakeList struct {
	items []conversation.Summary
}

func (f *fakeList) Refresh(ctx context.Context) error {
	return nil
}

func (f *fakeList) Items() []conversation.Summary {
	return f.items
}

func (f *fakeList) Remove(id string) {
	items := []conversation.Summary{}
	for _, item := range f.items {
		if item.ID != id {
			items = append(items, item)
		}
	}
	f.items = items
}

func newTestModel(t *testing.T) (Model, *fakeController) {
	c := &fakeController{}
	list := &fakeList{items: []conversation.Summary{
		{ID: "c1", Title: "Legal notice", UpdatedAt: t0},
		{ID: "c2", Title: "Property dispute", UpdatedAt: t0.Add(-time.Hour)},
	}}
	m := NewModel(context.Background(), c, list)
	// a blinking cursor returns a timer command on focus
	_ = m.textArea.Cursor.SetMode(cursor.CursorStatic)
	_ = m.search.Cursor.SetMode(cursor.CursorStatic)

	tm, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return tm.(Model), c
}

// collect runs cmd and flattens batches into the messages they produce.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var ret []tea.Msg
		for _, c := range batch {
			ret = append(ret, collect(c)...)
		}
		return ret
	}
	return []tea.Msg{msg}
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	tm, cmd := m.Update(msg)
	ret, ok := tm.(Model)
	require.True(t, ok)
	return ret, cmd
}

func TestSubmitRunsControllerAndShowsReply(t *testing.T) {
	m, c := newTestModel(t)
	m.textArea.SetValue("What is a caveat?")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.NotNil(t, cmd)
	assert.True(t, m.state.Pending)
	assert.Equal(t, "", m.textArea.Value())
	assert.Contains(t, m.View(), "thinking")

	msgs := collect(cmd)
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"What is a caveat?"}, c.submitted)

	tm, _ := m.Update(msgs[0])
	m = tm.(Model)
	assert.False(t, m.state.Pending)
	assert.Equal(t, "c1", m.state.ConversationID)

	view := m.messageView()
	assert.Contains(t, view, "What is a caveat?")
	assert.Contains(t, view, "Answer")
	assert.Contains(t, view, "1. First")
	assert.Contains(t, view, "2. Second")
	assert.NotContains(t, view, "###")
	assert.Contains(t, m.headerView(), "Legal notice")
}

func TestSubmitIgnoresBlankAndPending(t *testing.T) {
	m, c := newTestModel(t)

	m.textArea.SetValue("   ")
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Nil(t, cmd)

	m.state.Pending = true
	m.textArea.SetValue("second")
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Nil(t, cmd)
	assert.Equal(t, "second", m.textArea.Value())
	assert.Empty(t, c.submitted)
}

func TestStateAndNotificationMessages(t *testing.T) {
	m, _ := newTestModel(t)

	tm, _ := m.Update(StateMsg{State: conversation.State{
		Messages: []conversation.Message{conversation.NewUserMessage("hello **there**", t0)},
		Pending:  true,
	}})
	m = tm.(Model)
	assert.Contains(t, m.messageView(), "hello there")
	assert.Contains(t, m.statusView(), "thinking")

	tm, _ = m.Update(NotificationMsg{Notification: conversation.EventNotification{
		Kind:    conversation.NotificationSendFailed,
		Message: "Error sending message",
	}})
	m = tm.(Model)
	assert.Equal(t, "Error sending message", m.statusView())
	assert.Contains(t, m.View(), "Error sending message")
}

func TestSidebarOpenAndDelete(t *testing.T) {
	m, c := newTestModel(t)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, FocusSidebar, m.focus)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selected)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selected)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, FocusInput, m.focus)
	msgs := collect(cmd)
	assert.Equal(t, []string{"c2"}, c.loaded)
	require.NotEmpty(t, msgs)

	tm, _ := m.Update(loadDoneMsg{})
	m = tm.(Model)
	assert.Equal(t, "c2", m.state.ConversationID)
	assert.Contains(t, m.messageView(), "loaded c2")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	collect(cmd)
	assert.Equal(t, []string{"c2"}, c.deleted)
}

func TestSearchFiltersSidebar(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	assert.Equal(t, FocusSearch, m.focus)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("PROP")})
	items := m.visibleItems()
	require.Len(t, items, 1)
	assert.Equal(t, "c2", items[0].ID)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, FocusSidebar, m.focus)
	assert.Len(t, m.visibleItems(), 1)

	view := m.sidebarView(sidebarWidth, 10)
	assert.Contains(t, view, "Property dispute")
	assert.NotContains(t, view, "Legal notice")
}

func TestNewConversationResetsState(t *testing.T) {
	m, c := newTestModel(t)
	m.notice = "Error loading chat"

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, "", m.notice)
	assert.Contains(t, collect(cmd), tea.Msg(newDoneMsg{}))
	assert.Equal(t, 1, c.started)

	tm, _ := m.Update(newDoneMsg{})
	m = tm.(Model)
	assert.Equal(t, "New chat", m.activeTitle())
	assert.Contains(t, m.messageView(), "Ask a question")
}

type recordingSender struct {
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.msgs = append(r.msgs, msg)
}

func TestForwarder(t *testing.T) {
	s := &recordingSender{}
	f := NewForwarder(s)

	require.NoError(t, f.HandleStateChanged(context.Background(), &conversation.EventStateChanged{
		State: conversation.State{ConversationID: "c1"},
	}))
	require.NoError(t, f.HandleNotification(context.Background(), &conversation.EventNotification{
		Message: "Error deleting chat",
	}))

	require.Len(t, s.msgs, 2)
	assert.Equal(t, StateMsg{State: conversation.State{ConversationID: "c1"}}, s.msgs[0])
	assert.Equal(t, "Error deleting chat", s.msgs[1].(NotificationMsg).Notification.Message)
}

func TestRenderBlocks(t *testing.T) {
	style := DefaultStyles()

	out := RenderContent("# Title\nSome **bold** words\n\n- one\n- two\n1. a\n2. b\ntext\n1. again", 0, style)
	assert.Equal(t, strings.Join([]string{
		"Title",
		"Some bold words",
		"",
		"• one",
		"• two",
		"1. a",
		"2. b",
		"text",
		"1. again",
	}, "\n"), out)
}

func TestRenderBlocksWrapsListItems(t *testing.T) {
	out := RenderContent("- alpha beta gamma delta", 13, DefaultStyles())
	assert.Equal(t, "• alpha beta\n  gamma delta", out)
}

func TestDeleteRemovesConversationFromSidebar(t *testing.T) {
	m, c := newTestModel(t)
	list := m.history.(*fakeList)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	assert.Contains(t, collect(cmd), tea.Msg(deleteDoneMsg{}))
	assert.Equal(t, []string{"c1"}, c.deleted)

	tm, _ := m.Update(deleteDoneMsg{})
	m = tm.(Model)
	require.Len(t, list.items, 1)
	require.Len(t, m.items, 1)
	assert.Equal(t, "c2", m.items[0].ID)
}

func TestFailedDeleteKeepsConversationInSidebar(t *testing.T) {
	m, c := newTestModel(t)
	c.deleteErr = conversation.ErrTransient
	list := m.history.(*fakeList)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	collect(cmd)

	assert.Equal(t, []string{"c1"}, c.deleted)
	assert.Len(t, list.items, 2)
}
