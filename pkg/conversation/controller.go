package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Controller owns the message list of the active conversation and its
// submission lifecycle.
//
// The mutex is never held while the Messenger is called. Navigation
// (StartNew, LoadExisting, deleting the active conversation) bumps an epoch,
// and backend answers that belong to an older epoch are dropped.
type Controller struct {
	messenger Messenger
	sink      EventSink
	history   HistoryRefresher
	identity  Identity
	now       func() time.Time

	mu             sync.Mutex
	conversationID string
	messages       []Message
	pending        bool
	epoch          uint64
}

type ControllerOption func(*Controller)

func WithEventSink(sink EventSink) ControllerOption {
	return func(c *Controller) {
		c.sink = sink
	}
}

func WithHistory(history HistoryRefresher) ControllerOption {
	return func(c *Controller) {
		c.history = history
	}
}

func WithIdentity(identity Identity) ControllerOption {
	return func(c *Controller) {
		c.identity = identity
	}
}

// WithClock replaces the clock used to stamp user messages.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.now = now
	}
}

func NewController(messenger Messenger, options ...ControllerOption) *Controller {
	ret := &Controller{
		messenger: messenger,
		sink:      NullSink{},
		now:       time.Now,
		messages:  []Message{},
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	return State{
		ConversationID: c.conversationID,
		Messages:       copyMessages(c.messages),
		Pending:        c.pending,
	}
}

func (c *Controller) resetLocked() {
	c.epoch++
	c.conversationID = ""
	c.messages = []Message{}
	c.pending = false
}

// StartNew switches to an empty, unsaved conversation.
func (c *Controller) StartNew() {
	c.mu.Lock()
	c.resetLocked()
	state := c.snapshotLocked()
	c.mu.Unlock()

	log.Debug().Str("user", c.identity.UserID).Msg("started new conversation")
	c.emitState(state)
}

// LoadExisting replaces the active conversation with the persisted one. On
// failure the current state is left as it was.
func (c *Controller) LoadExisting(ctx context.Context, id string) error {
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	conv, err := c.messenger.FetchConversation(ctx, id)
	if err == nil && conv == nil {
		err = errors.Wrapf(ErrNotFound, "empty answer for conversation %s", id)
	}
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", id).Msg("could not load conversation")
		c.notify(NotificationLoadFailed, "Error loading chat", err)
		return errors.Wrapf(err, "could not load conversation %s", id)
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		log.Debug().Str("conversation_id", id).Msg("dropping superseded conversation load")
		return ErrSuperseded
	}
	c.epoch++
	c.conversationID = conv.ID
	if c.conversationID == "" {
		c.conversationID = id
	}
	c.messages = copyMessages(conv.Messages)
	c.pending = false
	state := c.snapshotLocked()
	c.mu.Unlock()

	log.Debug().
		Str("conversation_id", state.ConversationID).
		Int("messages", len(state.Messages)).
		Msg("loaded conversation")
	c.emitState(state)
	return nil
}

// Submit sends text to the backend. It returns false without doing anything
// when text is blank or another submission is still pending.
//
// The user message is visible in Snapshot before the backend answers and is
// kept if the backend fails. The returned error is informational, failures
// are also reported as a notification event.
func (c *Controller) Submit(ctx context.Context, text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		log.Debug().Msg("ignoring submit while a message is pending")
		return false, nil
	}
	c.messages = append(c.messages, NewUserMessage(text, c.now()))
	c.pending = true
	epoch := c.epoch
	conversationID := c.conversationID
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.emitState(state)

	res, err := c.messenger.SendMessage(ctx, text, conversationID)
	if err == nil && res == nil {
		err = errors.New("backend returned no reply")
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		log.Debug().
			Str("conversation_id", conversationID).
			AnErr("send_error", err).
			Msg("dropping reply for a conversation that is no longer active")
		return true, err
	}

	c.pending = false
	if err != nil {
		state = c.snapshotLocked()
		c.mu.Unlock()

		log.Warn().Err(err).Str("conversation_id", conversationID).Msg("could not send message")
		c.emitState(state)
		c.notify(NotificationSendFailed, "Error sending message", err)
		return true, errors.Wrap(err, "could not send message")
	}

	c.messages = append(c.messages, res.AssistantMessage)
	adopted := false
	if c.conversationID == "" {
		c.conversationID = res.ConversationID
		adopted = c.conversationID != ""
	} else if res.ConversationID != "" && res.ConversationID != c.conversationID {
		log.Warn().
			Str("conversation_id", c.conversationID).
			Str("returned_id", res.ConversationID).
			Msg("backend returned a different conversation id, keeping the current one")
	}
	state = c.snapshotLocked()
	c.mu.Unlock()

	c.emitState(state)

	if adopted {
		log.Info().Str("conversation_id", state.ConversationID).Msg("conversation persisted")
		c.refreshHistory(ctx)
	}

	return true, nil
}

// DeleteConversation removes a conversation on the backend. Deleting the
// active conversation moves the controller to a new, unsaved one.
func (c *Controller) DeleteConversation(ctx context.Context, id string) error {
	if err := c.messenger.DeleteConversation(ctx, id); err != nil {
		log.Warn().Err(err).Str("conversation_id", id).Msg("could not delete conversation")
		c.notify(NotificationDeleteFailed, "Error deleting chat", err)
		return errors.Wrapf(err, "could not delete conversation %s", id)
	}

	c.mu.Lock()
	active := id != "" && c.conversationID == id
	if active {
		c.resetLocked()
	}
	state := c.snapshotLocked()
	c.mu.Unlock()

	if active {
		c.emitState(state)
	}
	c.refreshHistory(ctx)

	return nil
}

func (c *Controller) refreshHistory(ctx context.Context) {
	if c.history == nil {
		return
	}
	if err := c.history.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("could not refresh conversation history")
	}
}

func (c *Controller) emitState(state State) {
	if err := c.sink.PublishEvent(&EventStateChanged{State: state}); err != nil {
		log.Warn().Err(err).Msg("failed to publish state change")
	}
}

func (c *Controller) notify(kind NotificationKind, message string, err error) {
	e := &EventNotification{
		Kind:      kind,
		ErrorKind: Classify(err),
		Message:   message,
	}
	if err != nil {
		e.Error = err.Error()
	}
	if err := c.sink.PublishEvent(e); err != nil {
		log.Warn().Err(err).Msg("failed to publish notification")
	}
}
