// Package conversation holds the client side of a chat with a remote assistant.
//
// A Controller owns the message list of the one conversation currently on
// screen. It appends the user's message optimistically, asks a Messenger for
// the assistant reply, and reports the outcome through an EventSink. A History
// keeps the list of prior conversations that the presentation layer shows next
// to the chat.
package conversation

import "context"

// SendResult is the backend answer to a sent message.
type SendResult struct {
	AssistantMessage Message
	// ConversationID is freshly assigned when the message was sent without one.
	ConversationID string
}

// Messenger is the backend collaborator the controller talks to.
type Messenger interface {
	ListConversations(ctx context.Context) ([]Summary, error)
	// FetchConversation returns ErrNotFound for unknown ids.
	FetchConversation(ctx context.Context, id string) (*Conversation, error)
	// SendMessage creates a new conversation when conversationID is empty.
	SendMessage(ctx context.Context, text string, conversationID string) (*SendResult, error)
	DeleteConversation(ctx context.Context, id string) error
}

// HistoryRefresher is told when the list of conversations changed.
type HistoryRefresher interface {
	Refresh(ctx context.Context) error
}

// Identity describes who is chatting. It is only used for logging and is
// passed in explicitly rather than looked up globally.
type Identity struct {
	UserID string
	Name   string
}
