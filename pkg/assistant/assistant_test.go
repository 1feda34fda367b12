package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	go_openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestEchoAssistant(t *testing.T) {
	e := NewEchoAssistant()
	reply, err := e.Reply(context.Background(), nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
}

func TestEchoAssistantCancelled(t *testing.T) {
	e := &EchoAssistant{TimePerCharacter: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Reply(ctx, nil, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingCompleter struct {
	requests []go_openai.ChatCompletionRequest
	reply    string
	err      error
}

func (r *recordingCompleter) CreateChatCompletion(ctx context.Context, req go_openai.ChatCompletionRequest) (go_openai.ChatCompletionResponse, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return go_openai.ChatCompletionResponse{}, r.err
	}
	return go_openai.ChatCompletionResponse{
		Choices: []go_openai.ChatCompletionChoice{
			{Message: go_openai.ChatCompletionMessage{Role: go_openai.ChatMessageRoleAssistant, Content: r.reply}},
		},
	}, nil
}

func history(n int) []conversation.Message {
	ret := []conversation.Message{}
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			ret = append(ret, conversation.NewUserMessage(string(rune('a'+i)), t0))
		} else {
			ret = append(ret, conversation.NewAssistantMessage(string(rune('a'+i)), t0))
		}
	}
	return ret
}

func TestOpenAIAssistantSendsRecentContext(t *testing.T) {
	c := &recordingCompleter{reply: "  Section 80 CPC applies.\n"}
	a := NewOpenAIAssistant(c, WithModel("gpt-test"))

	reply, err := a.Reply(context.Background(), history(7), "Which notice?")
	require.NoError(t, err)
	assert.Equal(t, "Section 80 CPC applies.", reply)

	require.Len(t, c.requests, 1)
	req := c.requests[0]
	assert.Equal(t, "gpt-test", req.Model)
	// system prompt, five context messages, the question
	require.Len(t, req.Messages, 7)
	assert.Equal(t, go_openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "c", req.Messages[1].Content)
	assert.Equal(t, go_openai.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Equal(t, go_openai.ChatMessageRoleAssistant, req.Messages[2].Role)
	assert.Equal(t, "Which notice?", req.Messages[6].Content)
}

func TestOpenAIAssistantWithoutSystemPrompt(t *testing.T) {
	c := &recordingCompleter{reply: "ok"}
	a := NewOpenAIAssistant(c, WithSystemPrompt(""), WithContextMessages(0))

	_, err := a.Reply(context.Background(), history(3), "q")
	require.NoError(t, err)
	require.Len(t, c.requests[0].Messages, 1)
}

func TestOpenAIAssistantNoChoices(t *testing.T) {
	a := NewOpenAIAssistant(completerFunc(func(ctx context.Context, req go_openai.ChatCompletionRequest) (go_openai.ChatCompletionResponse, error) {
		return go_openai.ChatCompletionResponse{}, nil
	}))

	_, err := a.Reply(context.Background(), nil, "q")
	require.Error(t, err)
}

func TestOpenAIAssistantAgainstHTTPEndpoint(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"message": "slow down", "type": "rate_limit"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  "gpt-test",
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": "Hello counsel."}},
			},
		})
	}))
	defer srv.Close()

	client, err := MakeClient("sk-test", srv.URL+"/v1")
	require.NoError(t, err)
	a := NewOpenAIAssistant(client)

	reply, err := a.Reply(context.Background(), nil, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello counsel.", reply)

	status = http.StatusTooManyRequests
	_, err = a.Reply(context.Background(), nil, "hi")
	require.Error(t, err)
	assert.Equal(t, conversation.ErrorKindTransient, conversation.Classify(err))
}

func TestMakeClientRequiresKey(t *testing.T) {
	_, err := MakeClient("", "")
	require.Error(t, err)
}

func TestClassifyOpenAIErrorKeepsOtherErrors(t *testing.T) {
	err := classifyOpenAIError(&go_openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "bad"})
	assert.Equal(t, conversation.ErrorKindOther, conversation.Classify(err))

	err = classifyOpenAIError(errors.New("boom"))
	assert.Equal(t, conversation.ErrorKindOther, conversation.Classify(err))
}

type completerFunc func(ctx context.Context, req go_openai.ChatCompletionRequest) (go_openai.ChatCompletionResponse, error)

func (f completerFunc) CreateChatCompletion(ctx context.Context, req go_openai.ChatCompletionRequest) (go_openai.ChatCompletionResponse, error) {
	return f(ctx, req)
}
