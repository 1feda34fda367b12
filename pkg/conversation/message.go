package conversation

import "time"

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is a single chat entry. Messages are never edited once created.
type Message struct {
	Sender    Sender    `json:"sender" yaml:"sender"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewUserMessage stamps the message with the client clock.
func NewUserMessage(text string, at time.Time) Message {
	return Message{
		Sender:    SenderUser,
		Content:   text,
		Timestamp: at,
	}
}

func NewAssistantMessage(text string, at time.Time) Message {
	return Message{
		Sender:    SenderAssistant,
		Content:   text,
		Timestamp: at,
	}
}

func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// Conversation is a persisted chat as returned by the messaging backend.
type Conversation struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title,omitempty" yaml:"title,omitempty"`
	Messages  []Message `json:"messages" yaml:"messages"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Summary is one row of the conversation list.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

const maxTitleLength = 50

// TitleFromText derives a conversation title from its first message, taken
// as typed: the first 50 runes plus "..." when the message is longer.
func TitleFromText(text string) string {
	runes := []rune(text)
	if len(runes) <= maxTitleLength {
		return text
	}
	return string(runes[:maxTitleLength]) + "..."
}

func copyMessages(msgs []Message) []Message {
	if len(msgs) == 0 {
		return []Message{}
	}
	ret := make([]Message, len(msgs))
	copy(ret, msgs)
	return ret
}
