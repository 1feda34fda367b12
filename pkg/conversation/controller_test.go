package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sendCall struct {
	text           string
	conversationID string
}

type sendReply struct {
	result *SendResult
	err    error
}

// fakeMessenger answers SendMessage with whatever is pushed on replies. When
// gate is set, SendMessage signals on started and blocks until a reply
// arrives.
type fakeMessenger struct {
	mu            sync.Mutex
	sends         []sendCall
	deletes       []string
	conversations map[string]*Conversation
	summaries     []Summary
	listErr       error
	deleteErr     error
	fetchErr      error

	started chan sendCall
	replies chan sendReply
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		conversations: map[string]*Conversation{},
		started:       make(chan sendCall, 10),
		replies:       make(chan sendReply, 10),
	}
}

func (f *fakeMessenger) ListConversations(ctx context.Context) ([]Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.summaries, nil
}

func (f *fakeMessenger) FetchConversation(ctx context.Context, id string) (*Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	c, ok := f.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (f *fakeMessenger) SendMessage(ctx context.Context, text string, conversationID string) (*SendResult, error) {
	call := sendCall{text: text, conversationID: conversationID}
	f.mu.Lock()
	f.sends = append(f.sends, call)
	f.mu.Unlock()

	f.started <- call
	r := <-f.replies
	return r.result, r.err
}

func (f *fakeMessenger) DeleteConversation(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, id)
	delete(f.conversations, id)
	return nil
}

func (f *fakeMessenger) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) PublishEvent(event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) notifications() []*EventNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := []*EventNotification{}
	for _, e := range r.events {
		if n, ok := e.(*EventNotification); ok {
			ret = append(ret, n)
		}
	}
	return ret
}

type countingHistory struct {
	mu    sync.Mutex
	count int
}

func (h *countingHistory) Refresh(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	return nil
}

func (h *countingHistory) refreshes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestController(m Messenger, sink EventSink, history HistoryRefresher) *Controller {
	return NewController(m,
		WithEventSink(sink),
		WithHistory(history),
		WithClock(func() time.Time { return fixedNow }),
	)
}

type submitOutcome struct {
	ok  bool
	err error
}

func submitAsync(c *Controller, text string) <-chan submitOutcome {
	done := make(chan submitOutcome, 1)
	go func() {
		ok, err := c.Submit(context.Background(), text)
		done <- submitOutcome{ok: ok, err: err}
	}()
	return done
}

func TestSubmitOptimisticSuccess(t *testing.T) {
	m := newFakeMessenger()
	sink := &recordingSink{}
	history := &countingHistory{}
	c := newTestController(m, sink, history)

	done := submitAsync(c, "hello")
	call := <-m.started
	assert.Equal(t, sendCall{text: "hello", conversationID: ""}, call)

	s := c.Snapshot()
	require.Len(t, s.Messages, 1)
	assert.Equal(t, NewUserMessage("hello", fixedNow), s.Messages[0])
	assert.True(t, s.Pending)
	assert.False(t, s.Persisted())

	replyAt := fixedNow.Add(3 * time.Second)
	m.replies <- sendReply{result: &SendResult{
		AssistantMessage: NewAssistantMessage("hi there", replyAt),
		ConversationID:   "c1",
	}}
	out := <-done
	require.NoError(t, out.err)
	assert.True(t, out.ok)

	s = c.Snapshot()
	require.Len(t, s.Messages, 2)
	assert.Equal(t, "c1", s.ConversationID)
	assert.False(t, s.Pending)
	assert.Equal(t, SenderAssistant, s.Messages[1].Sender)
	assert.Equal(t, replyAt, s.Messages[1].Timestamp)
	assert.Equal(t, 1, history.refreshes())
	assert.Empty(t, sink.notifications())
}

func TestSubmitFailureKeepsUserMessage(t *testing.T) {
	m := newFakeMessenger()
	sink := &recordingSink{}
	history := &countingHistory{}
	c := newTestController(m, sink, history)

	done := submitAsync(c, "hello")
	<-m.started
	m.replies <- sendReply{err: errors.Wrap(ErrTransient, "connection refused")}
	out := <-done

	assert.True(t, out.ok)
	require.Error(t, out.err)

	s := c.Snapshot()
	require.Len(t, s.Messages, 1)
	assert.Equal(t, "hello", s.Messages[0].Content)
	assert.False(t, s.Pending)
	assert.Empty(t, s.ConversationID)

	notifications := sink.notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, NotificationSendFailed, notifications[0].Kind)
	assert.Equal(t, ErrorKindTransient, notifications[0].ErrorKind)
	assert.Equal(t, 0, history.refreshes())
}

func TestSubmitIgnoredWhilePending(t *testing.T) {
	m := newFakeMessenger()
	c := newTestController(m, &recordingSink{}, nil)

	done := submitAsync(c, "first")
	<-m.started

	before := c.Snapshot()
	ok, err := c.Submit(context.Background(), "second")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, c.Snapshot())
	assert.Equal(t, 1, m.sendCount())

	m.replies <- sendReply{result: &SendResult{
		AssistantMessage: NewAssistantMessage("ok", fixedNow),
		ConversationID:   "c1",
	}}
	<-done
	assert.Len(t, c.Snapshot().Messages, 2)
}

func TestSubmitIgnoresBlankText(t *testing.T) {
	m := newFakeMessenger()
	sink := &recordingSink{}
	c := newTestController(m, sink, nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		ok, err := c.Submit(context.Background(), text)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 0, m.sendCount())
	assert.Empty(t, sink.events)
	assert.Empty(t, c.Snapshot().Messages)
}

func TestSubmitPersistedKeepsID(t *testing.T) {
	m := newFakeMessenger()
	m.conversations["c1"] = &Conversation{ID: "c1", Messages: []Message{
		NewUserMessage("q", fixedNow),
		NewAssistantMessage("a", fixedNow),
	}}
	history := &countingHistory{}
	c := newTestController(m, &recordingSink{}, history)
	require.NoError(t, c.LoadExisting(context.Background(), "c1"))

	done := submitAsync(c, "follow up")
	call := <-m.started
	assert.Equal(t, "c1", call.conversationID)
	m.replies <- sendReply{result: &SendResult{
		AssistantMessage: NewAssistantMessage("answer", fixedNow),
		ConversationID:   "other",
	}}
	<-done

	s := c.Snapshot()
	assert.Equal(t, "c1", s.ConversationID)
	assert.Len(t, s.Messages, 4)
	assert.Equal(t, 0, history.refreshes())
}

func TestStaleReplyIsDiscarded(t *testing.T) {
	m := newFakeMessenger()
	m.conversations["c2"] = &Conversation{ID: "c2", Messages: []Message{
		NewUserMessage("old", fixedNow),
	}}
	sink := &recordingSink{}
	c := newTestController(m, sink, nil)

	done := submitAsync(c, "hello")
	<-m.started

	require.NoError(t, c.LoadExisting(context.Background(), "c2"))
	assert.False(t, c.Snapshot().Pending)

	m.replies <- sendReply{result: &SendResult{
		AssistantMessage: NewAssistantMessage("late", fixedNow),
		ConversationID:   "c1",
	}}
	<-done

	s := c.Snapshot()
	assert.Equal(t, "c2", s.ConversationID)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, "old", s.Messages[0].Content)
	assert.False(t, s.Pending)
}

func TestStaleFailureIsNotNotified(t *testing.T) {
	m := newFakeMessenger()
	sink := &recordingSink{}
	c := newTestController(m, sink, nil)

	done := submitAsync(c, "hello")
	<-m.started
	c.StartNew()
	m.replies <- sendReply{err: ErrTransient}
	<-done

	assert.Empty(t, sink.notifications())
	assert.Empty(t, c.Snapshot().Messages)
}

func TestStartNewClearsState(t *testing.T) {
	m := newFakeMessenger()
	m.conversations["c1"] = &Conversation{ID: "c1", Messages: []Message{NewUserMessage("q", fixedNow)}}
	c := newTestController(m, &recordingSink{}, nil)
	require.NoError(t, c.LoadExisting(context.Background(), "c1"))

	c.StartNew()

	s := c.Snapshot()
	assert.Empty(t, s.ConversationID)
	assert.Empty(t, s.Messages)
	assert.False(t, s.Pending)
}

func TestLoadExistingReplacesMessages(t *testing.T) {
	m := newFakeMessenger()
	m.conversations["c1"] = &Conversation{ID: "c1", Messages: []Message{
		NewUserMessage("q", fixedNow),
		NewAssistantMessage("a", fixedNow),
	}}
	sink := &recordingSink{}
	c := newTestController(m, sink, nil)

	require.NoError(t, c.LoadExisting(context.Background(), "c1"))

	s := c.Snapshot()
	assert.Equal(t, "c1", s.ConversationID)
	assert.Len(t, s.Messages, 2)

	require.Len(t, sink.events, 1)
	changed, ok := sink.events[0].(*EventStateChanged)
	require.True(t, ok)
	assert.Equal(t, s, changed.State)
}

func TestLoadExistingFailureLeavesState(t *testing.T) {
	m := newFakeMessenger()
	m.conversations["c1"] = &Conversation{ID: "c1", Messages: []Message{NewUserMessage("q", fixedNow)}}
	sink := &recordingSink{}
	c := newTestController(m, sink, nil)
	require.NoError(t, c.LoadExisting(context.Background(), "c1"))
	before := c.Snapshot()

	err := c.LoadExisting(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, ErrorKindNotFound, Classify(err))
	assert.Equal(t, before, c.Snapshot())

	notifications := sink.notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, NotificationLoadFailed, notifications[0].Kind)
	assert.Equal(t, ErrorKindNotFound, notifications[0].ErrorKind)
}

func TestDeleteActiveConversationResets(t *testing.T) {
	m := newFakeMessenger()
	m.conversations["c1"] = &Conversation{ID: "c1", Messages: []Message{
		NewUserMessage("q", fixedNow),
		NewAssistantMessage("a", fixedNow),
	}}
	history := &countingHistory{}
	c := newTestController(m, &recordingSink{}, history)
	require.NoError(t, c.LoadExisting(context.Background(), "c1"))

	require.NoError(t, c.DeleteConversation(context.Background(), "c1"))

	s := c.Snapshot()
	assert.False(t, s.Persisted())
	assert.Empty(t, s.Messages)
	assert.Equal(t, []string{"c1"}, m.deletes)
	assert.Equal(t, 1, history.refreshes())
}

func TestDeleteOtherConversationKeepsState(t *testing.T) {
	m := newFakeMessenger()
	m.conversations["c1"] = &Conversation{ID: "c1", Messages: []Message{NewUserMessage("q", fixedNow)}}
	m.conversations["c2"] = &Conversation{ID: "c2"}
	c := newTestController(m, &recordingSink{}, nil)
	require.NoError(t, c.LoadExisting(context.Background(), "c1"))
	before := c.Snapshot()

	require.NoError(t, c.DeleteConversation(context.Background(), "c2"))
	assert.Equal(t, before, c.Snapshot())
}

func TestDeleteFailureNotifies(t *testing.T) {
	m := newFakeMessenger()
	m.deleteErr = ErrTransient
	m.conversations["c1"] = &Conversation{ID: "c1"}
	sink := &recordingSink{}
	c := newTestController(m, sink, nil)
	require.NoError(t, c.LoadExisting(context.Background(), "c1"))

	require.Error(t, c.DeleteConversation(context.Background(), "c1"))
	assert.Equal(t, "c1", c.Snapshot().ConversationID)

	notifications := sink.notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, NotificationDeleteFailed, notifications[0].Kind)
}

func TestSnapshotIsACopy(t *testing.T) {
	m := newFakeMessenger()
	m.conversations["c1"] = &Conversation{ID: "c1", Messages: []Message{NewUserMessage("q", fixedNow)}}
	c := newTestController(m, &recordingSink{}, nil)
	require.NoError(t, c.LoadExisting(context.Background(), "c1"))

	s := c.Snapshot()
	s.Messages[0].Content = "changed"

	assert.Equal(t, "q", c.Snapshot().Messages[0].Content)
	assert.Equal(t, "q", m.conversations["c1"].Messages[0].Content)
}
