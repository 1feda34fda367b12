// Package local implements the chat backend in-process, on top of the
// sqlite store and an assistant.
package local

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/pleader/pkg/assistant"
	"github.com/go-go-golems/pleader/pkg/conversation"
	"github.com/go-go-golems/pleader/pkg/store/sqlite"
)

const historyLimit = 100

type Backend struct {
	store     *sqlite.Store
	assistant assistant.Assistant
	now       func() time.Time
	newID     func() string
}

var _ conversation.Messenger = (*Backend)(nil)

type Option func(*Backend)

func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(b *Backend) {
		b.newID = newID
	}
}

func New(store *sqlite.Store, a assistant.Assistant, options ...Option) *Backend {
	ret := &Backend{
		store:     store,
		assistant: a,
		now: func() time.Time {
			return time.Now().UTC()
		},
		newID: func() string {
			return uuid.New().String()
		},
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (b *Backend) ListConversations(ctx context.Context) ([]conversation.Summary, error) {
	return b.store.ListChats(ctx, historyLimit)
}

func (b *Backend) FetchConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	return b.store.GetChat(ctx, id)
}

// SendMessage stores the question and the generated answer. Nothing is
// stored when the assistant fails.
func (b *Backend) SendMessage(ctx context.Context, text string, conversationID string) (*conversation.SendResult, error) {
	var prior []conversation.Message
	if conversationID != "" {
		chat, err := b.store.GetChat(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		prior = chat.Messages
	}

	userMessage := conversation.NewUserMessage(text, b.now())
	reply, err := b.assistant.Reply(ctx, prior, text)
	if err != nil {
		log.Error().Err(err).Str("chat_id", conversationID).Msg("assistant failed")
		return nil, errors.Wrap(err, "error generating response")
	}
	aiMessage := conversation.NewAssistantMessage(reply, b.now())

	if conversationID == "" {
		conversationID = b.newID()
		err := b.store.CreateChatWithMessages(ctx, &conversation.Conversation{
			ID:        conversationID,
			Title:     conversation.TitleFromText(text),
			CreatedAt: userMessage.Timestamp,
			UpdatedAt: aiMessage.Timestamp,
		}, userMessage, aiMessage)
		if err != nil {
			return nil, err
		}
		log.Info().Str("chat_id", conversationID).Msg("created chat")
	} else if err := b.store.AppendMessages(ctx, conversationID, aiMessage.Timestamp, userMessage, aiMessage); err != nil {
		return nil, err
	}

	return &conversation.SendResult{
		AssistantMessage: aiMessage,
		ConversationID:   conversationID,
	}, nil
}

func (b *Backend) DeleteConversation(ctx context.Context, id string) error {
	return b.store.DeleteChat(ctx, id)
}
