package ui

import (
	"strings"

	"github.com/muesli/reflow/truncate"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

// visibleItems is the conversation list after the search filter.
func (m Model) visibleItems() []conversation.Summary {
	return conversation.FilterSummaries(m.items, m.search.Value())
}

func (m Model) selectedItem() (conversation.Summary, bool) {
	items := m.visibleItems()
	if m.selected < 0 || m.selected >= len(items) {
		return conversation.Summary{}, false
	}
	return items[m.selected], true
}

func (m *Model) clampSelection() {
	n := len(m.visibleItems())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m Model) activeTitle() string {
	if !m.state.Persisted() {
		return "New chat"
	}
	for _, item := range m.items {
		if item.ID == m.state.ConversationID {
			return item.Title
		}
	}
	return "Chat"
}

func (m Model) sidebarView(width int, height int) string {
	lines := []string{m.style.SidebarTitle.Render("Chats")}

	if m.focus == FocusSearch || m.search.Value() != "" {
		lines = append(lines, m.search.View())
	}

	items := m.visibleItems()
	if len(items) == 0 {
		lines = append(lines, m.style.EmptyPlaceholder.Render("no chats"))
	}
	for idx, item := range items {
		title := truncate.StringWithTail(item.Title, uint(width), "…")
		style := m.style.SidebarItem
		if item.ID == m.state.ConversationID {
			style = m.style.ActiveItem
		}
		if idx == m.selected && m.focus != FocusInput {
			style = m.style.SelectedItem
		}
		lines = append(lines, style.Render(title))
	}

	return m.style.Sidebar.
		Width(width).
		Height(height).
		Render(strings.Join(lines, "\n"))
}
