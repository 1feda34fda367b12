package client

import (
	"time"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

// wireSenderAssistant is how the backend names assistant messages.
const wireSenderAssistant = "ai"

type WireMessage struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type SendRequest struct {
	ChatID  *string `json:"chat_id"`
	Message string  `json:"message"`
}

type SendResponse struct {
	ChatID      string      `json:"chat_id"`
	UserMessage WireMessage `json:"user_message"`
	AIMessage   WireMessage `json:"ai_message"`
}

type WireChat struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []WireMessage `json:"messages,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

func MessageFromWire(m WireMessage) conversation.Message {
	sender := conversation.SenderUser
	if m.Sender == wireSenderAssistant || m.Sender == string(conversation.SenderAssistant) {
		sender = conversation.SenderAssistant
	}
	return conversation.Message{
		Sender:    sender,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

func MessageToWire(m conversation.Message) WireMessage {
	sender := string(conversation.SenderUser)
	if m.Sender == conversation.SenderAssistant {
		sender = wireSenderAssistant
	}
	return WireMessage{
		Sender:    sender,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

func ConversationFromWire(c WireChat) *conversation.Conversation {
	msgs := make([]conversation.Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		msgs = append(msgs, MessageFromWire(m))
	}
	return &conversation.Conversation{
		ID:        c.ID,
		Title:     c.Title,
		Messages:  msgs,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func ConversationToWire(c *conversation.Conversation) WireChat {
	msgs := make([]WireMessage, 0, len(c.Messages))
	for _, m := range c.Messages {
		msgs = append(msgs, MessageToWire(m))
	}
	return WireChat{
		ID:        c.ID,
		Title:     c.Title,
		Messages:  msgs,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
