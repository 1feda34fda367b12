package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	SubmitMessage key.Binding
	UnfocusInput  key.Binding
	FocusInput    key.Binding

	SelectPrevConversation key.Binding
	SelectNextConversation key.Binding
	OpenConversation       key.Binding
	DeleteConversation     key.Binding
	NewConversation        key.Binding
	Search                 key.Binding
	LeaveSearch            key.Binding

	ScrollUp   key.Binding
	ScrollDown key.Binding

	Help key.Binding
	Quit key.Binding
}

var DefaultKeyMap = KeyMap{
	SubmitMessage: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "send")),
	UnfocusInput:  key.NewBinding(key.WithKeys("esc", "ctrl+g"), key.WithHelp("esc", "chats")),
	FocusInput:    key.NewBinding(key.WithKeys("i", "esc"), key.WithHelp("i", "write")),

	SelectPrevConversation: key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	SelectNextConversation: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	OpenConversation:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	DeleteConversation:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	NewConversation:        key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
	Search:                 key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	LeaveSearch:            key.NewBinding(key.WithKeys("esc", "enter"), key.WithHelp("esc", "done")),

	ScrollUp:   key.NewBinding(key.WithKeys("pgup", "shift+up"), key.WithHelp("pgup", "scroll up")),
	ScrollDown: key.NewBinding(key.WithKeys("pgdown", "shift+down"), key.WithHelp("pgdn", "scroll down")),

	Help: key.NewBinding(key.WithKeys("ctrl+_", "f1"), key.WithHelp("f1", "help")),
	Quit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.SubmitMessage, k.UnfocusInput, k.FocusInput,
		k.OpenConversation, k.Search, k.NewConversation,
		k.Help, k.Quit,
	}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SubmitMessage, k.UnfocusInput, k.FocusInput, k.NewConversation},
		{k.SelectPrevConversation, k.SelectNextConversation, k.OpenConversation, k.DeleteConversation},
		{k.Search, k.LeaveSearch, k.ScrollUp, k.ScrollDown},
		{k.Help, k.Quit},
	}
}
