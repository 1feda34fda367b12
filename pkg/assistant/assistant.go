// Package assistant produces the replies the local backend stores for each
// user message.
package assistant

import (
	"context"
	"time"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

// DefaultContextMessages is how many prior messages are sent along with a question.
const DefaultContextMessages = 5

type Assistant interface {
	// Reply answers text given the prior messages of the conversation.
	Reply(ctx context.Context, history []conversation.Message, text string) (string, error)
}

// EchoAssistant returns the question unchanged. It is used for demos and tests.
type EchoAssistant struct {
	TimePerCharacter time.Duration
}

var _ Assistant = (*EchoAssistant)(nil)

func NewEchoAssistant() *EchoAssistant {
	return &EchoAssistant{}
}

func (e *EchoAssistant) Reply(ctx context.Context, history []conversation.Message, text string) (string, error) {
	if e.TimePerCharacter <= 0 {
		return text, ctx.Err()
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(e.TimePerCharacter * time.Duration(len([]rune(text)))):
		return text, nil
	}
}

func lastMessages(history []conversation.Message, n int) []conversation.Message {
	if n <= 0 {
		return nil
	}
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
