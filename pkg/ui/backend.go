package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

// ChatController is the part of conversation.Controller the model drives.
type ChatController interface {
	Snapshot() conversation.State
	StartNew()
	LoadExisting(ctx context.Context, id string) error
	Submit(ctx context.Context, text string) (bool, error)
	DeleteConversation(ctx context.Context, id string) error
}

// ConversationList is the part of conversation.History the sidebar reads.
type ConversationList interface {
	Refresh(ctx context.Context) error
	Items() []conversation.Summary
	Remove(id string)
}

var (
	_ ChatController   = (*conversation.Controller)(nil)
	_ ConversationList = (*conversation.History)(nil)
)

// StateMsg carries a controller snapshot into the program.
type StateMsg struct {
	State conversation.State
}

// NotificationMsg carries a controller failure into the program.
type NotificationMsg struct {
	Notification conversation.EventNotification
}

type historyMsg struct {
	Items []conversation.Summary
	Err   error
}

// the controller reports failures through notifications, these only signal completion
type submitDoneMsg struct{}
type loadDoneMsg struct{}
type deleteDoneMsg struct{}
type newDoneMsg struct{}

// Controller calls publish events that the Forwarder sends back into the
// program, so they must never run inside Update.

func startNewCmd(c ChatController) tea.Cmd {
	return func() tea.Msg {
		c.StartNew()
		return newDoneMsg{}
	}
}

func submitCmd(ctx context.Context, c ChatController, text string) tea.Cmd {
	return func() tea.Msg {
		_, _ = c.Submit(ctx, text)
		return submitDoneMsg{}
	}
}

func loadCmd(ctx context.Context, c ChatController, id string) tea.Cmd {
	return func() tea.Msg {
		_ = c.LoadExisting(ctx, id)
		return loadDoneMsg{}
	}
}

func deleteCmd(ctx context.Context, c ChatController, h ConversationList, id string) tea.Cmd {
	return func() tea.Msg {
		if err := c.DeleteConversation(ctx, id); err == nil {
			h.Remove(id)
		}
		return deleteDoneMsg{}
	}
}

func refreshHistoryCmd(ctx context.Context, h ConversationList) tea.Cmd {
	return func() tea.Msg {
		err := h.Refresh(ctx)
		return historyMsg{Items: h.Items(), Err: err}
	}
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Forwarder hands controller events to a running program. Register it on
// the event router with AddConversationHandler.
type Forwarder struct {
	p Sender
}

func NewForwarder(p Sender) *Forwarder {
	return &Forwarder{p: p}
}

func (f *Forwarder) HandleStateChanged(ctx context.Context, e *conversation.EventStateChanged) error {
	f.p.Send(StateMsg{State: e.State})
	return nil
}

func (f *Forwarder) HandleNotification(ctx context.Context, e *conversation.EventNotification) error {
	f.p.Send(NotificationMsg{Notification: *e})
	return nil
}
