// Package client talks to the chat backend over its REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

const defaultTimeout = 120 * time.Second

// Client implements conversation.Messenger against the HTTP backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ conversation.Messenger = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithToken sends the session token as a bearer token.
func WithToken(token string) Option {
	return func(cl *Client) {
		cl.token = token
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(cl *Client) {
		cl.httpClient.Timeout = timeout
	}
}

func New(baseURL string, options ...Option) *Client {
	ret := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (c *Client) ListConversations(ctx context.Context) ([]conversation.Summary, error) {
	var chats []WireChat
	if err := c.do(ctx, http.MethodGet, "/api/chat/history", nil, &chats); err != nil {
		return nil, err
	}
	ret := make([]conversation.Summary, 0, len(chats))
	for _, chat := range chats {
		ret = append(ret, conversation.Summary{
			ID:        chat.ID,
			Title:     chat.Title,
			UpdatedAt: chat.UpdatedAt,
		})
	}
	return ret, nil
}

func (c *Client) FetchConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	var chat WireChat
	if err := c.do(ctx, http.MethodGet, "/api/chat/"+url.PathEscape(id), nil, &chat); err != nil {
		return nil, err
	}
	return ConversationFromWire(chat), nil
}

func (c *Client) SendMessage(ctx context.Context, text string, conversationID string) (*conversation.SendResult, error) {
	req := SendRequest{Message: text}
	if conversationID != "" {
		req.ChatID = &conversationID
	}

	var resp SendResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat/send", req, &resp); err != nil {
		return nil, err
	}
	if resp.ChatID == "" {
		return nil, errors.New("backend did not return a chat id")
	}

	return &conversation.SendResult{
		AssistantMessage: MessageFromWire(resp.AIMessage),
		ConversationID:   resp.ChatID,
	}, nil
}

func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/chat/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method string, path string, in interface{}, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "could not encode request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "could not create request %s %s", method, path)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(conversation.ErrTransient, "%s %s: %v", method, path, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", res.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend request")

	if res.StatusCode >= 400 {
		return statusError(method, path, res)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "could not decode response of %s %s", method, path)
	}
	return nil
}

func statusError(method string, path string, res *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 64*1024))
	detail := strings.TrimSpace(string(b))
	var er ErrorResponse
	if json.Unmarshal(b, &er) == nil && er.Detail != "" {
		detail = er.Detail
	}

	switch {
	case res.StatusCode == http.StatusNotFound:
		return errors.Wrapf(conversation.ErrNotFound, "%s %s: %s", method, path, detail)
	case res.StatusCode >= 500,
		res.StatusCode == http.StatusTooManyRequests,
		res.StatusCode == http.StatusRequestTimeout:
		return errors.Wrapf(conversation.ErrTransient, "%s %s: status %d: %s", method, path, res.StatusCode, detail)
	default:
		return errors.Errorf("%s %s: status %d: %s", method, path, res.StatusCode, detail)
	}
}
