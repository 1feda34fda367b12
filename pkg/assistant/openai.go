package assistant

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

const DefaultModel = go_openai.GPT3Dot5Turbo

const DefaultSystemPrompt = `You are Pleader AI, an expert legal assistant specializing in Indian law.
You provide accurate, helpful legal information and guidance.
Provide a clear, professional response focusing on Indian legal context. Include relevant laws, sections, or precedents when applicable.`

type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req go_openai.ChatCompletionRequest) (go_openai.ChatCompletionResponse, error)
}

// OpenAIAssistant asks an OpenAI compatible chat completion endpoint.
type OpenAIAssistant struct {
	client          ChatCompleter
	model           string
	systemPrompt    string
	contextMessages int
}

var _ Assistant = (*OpenAIAssistant)(nil)

type OpenAIOption func(*OpenAIAssistant)

func WithModel(model string) OpenAIOption {
	return func(a *OpenAIAssistant) {
		if model != "" {
			a.model = model
		}
	}
}

func WithSystemPrompt(prompt string) OpenAIOption {
	return func(a *OpenAIAssistant) {
		a.systemPrompt = prompt
	}
}

// WithContextMessages limits how much of the conversation is sent with each question.
func WithContextMessages(n int) OpenAIOption {
	return func(a *OpenAIAssistant) {
		a.contextMessages = n
	}
}

func NewOpenAIAssistant(client ChatCompleter, options ...OpenAIOption) *OpenAIAssistant {
	ret := &OpenAIAssistant{
		client:          client,
		model:           DefaultModel,
		systemPrompt:    DefaultSystemPrompt,
		contextMessages: DefaultContextMessages,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// MakeClient builds a go-openai client, pointing it at baseURL when set.
func MakeClient(apiKey string, baseURL string) (*go_openai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("no OpenAI API key")
	}
	config := go_openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return go_openai.NewClientWithConfig(config), nil
}

func (o *OpenAIAssistant) Reply(ctx context.Context, history []conversation.Message, text string) (string, error) {
	req := go_openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: o.buildMessages(history, text),
	}

	log.Debug().
		Str("model", o.model).
		Int("messages", len(req.Messages)).
		Msg("requesting chat completion")

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (o *OpenAIAssistant) buildMessages(history []conversation.Message, text string) []go_openai.ChatCompletionMessage {
	msgs := []go_openai.ChatCompletionMessage{}
	if o.systemPrompt != "" {
		msgs = append(msgs, go_openai.ChatCompletionMessage{
			Role:    go_openai.ChatMessageRoleSystem,
			Content: o.systemPrompt,
		})
	}
	for _, m := range lastMessages(history, o.contextMessages) {
		role := go_openai.ChatMessageRoleUser
		if m.Sender == conversation.SenderAssistant {
			role = go_openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, go_openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}
	return append(msgs, go_openai.ChatCompletionMessage{
		Role:    go_openai.ChatMessageRoleUser,
		Content: text,
	})
}

func classifyOpenAIError(err error) error {
	status := 0
	var apiErr *go_openai.APIError
	var reqErr *go_openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == http.StatusTooManyRequests || status >= 500 {
		return errors.Wrapf(conversation.ErrTransient, "chat completion: %v", err)
	}
	return errors.Wrap(err, "chat completion")
}
