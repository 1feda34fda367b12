package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

// TopicConversation carries the controller events.
const TopicConversation = "conversation"

// ConversationEventHandler reacts to decoded controller events.
type ConversationEventHandler interface {
	HandleStateChanged(ctx context.Context, e *conversation.EventStateChanged) error
	HandleNotification(ctx context.Context, e *conversation.EventNotification) error
}

type EventRouter struct {
	logger     watermill.LoggerAdapter
	Publisher  message.Publisher
	Subscriber message.Subscriber
	router     *message.Router
	verbose    bool
	dumpOut    io.Writer
}

type EventRouterOption func(*EventRouter)

func WithLogger(logger watermill.LoggerAdapter) EventRouterOption {
	return func(r *EventRouter) {
		r.logger = logger
	}
}

func WithVerbose(verbose bool) EventRouterOption {
	return func(r *EventRouter) {
		r.verbose = verbose
		r.logger = NewWatermill(log.Logger)
	}
}

// WithDumpOutput sets where DumpRawEvents writes. Defaults to stdout.
func WithDumpOutput(w io.Writer) EventRouterOption {
	return func(r *EventRouter) {
		r.dumpOut = w
	}
}

func NewEventRouter(options ...EventRouterOption) (*EventRouter, error) {
	ret := &EventRouter{
		logger:  watermill.NopLogger{},
		dumpOut: os.Stdout,
	}

	for _, o := range options {
		o(ret)
	}

	goPubSub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, ret.logger)
	ret.Publisher = goPubSub
	ret.Subscriber = goPubSub

	router, err := message.NewRouter(message.RouterConfig{}, ret.logger)
	if err != nil {
		return nil, err
	}

	ret.router = router

	return ret, nil
}

// Close shuts down the publisher first so that pending publishes fail fast,
// then the router.
func (e *EventRouter) Close() error {
	log.Debug().Msg("Closing publisher")
	err := e.Publisher.Close()
	if err != nil {
		log.Error().Err(err).Msg("Failed to close pubsub")
	}

	log.Debug().Msg("Closing router")
	err = e.router.Close()
	if err != nil {
		log.Error().Err(err).Msg("Failed to close router")
	}

	return nil
}

// Sink returns an EventSink publishing to the conversation topic of this router.
func (e *EventRouter) Sink() *PublisherManager {
	pm := NewPublisherManager()
	pm.SubscribePublisher(TopicConversation, e.Publisher)
	return pm
}

func (e *EventRouter) AddHandler(name string, topic string, f func(msg *message.Message) error) {
	e.router.AddNoPublisherHandler(name, topic, e.Subscriber, f)
}

// AddConversationHandler decodes every message on the conversation topic and
// dispatches it to handler.
func (e *EventRouter) AddConversationHandler(name string, handler ConversationEventHandler) {
	e.AddHandler(name, TopicConversation, createConversationDispatchHandler(handler))
}

func createConversationDispatchHandler(handler ConversationEventHandler) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ev, err := NewEventFromJSON(msg.Payload)
		if err != nil {
			// one bad payload must not stop the handler
			log.Error().Err(err).Str("message_id", msg.UUID).Msg("Failed to parse conversation event")
			return nil
		}

		ctx := msg.Context()
		switch e_ := ev.(type) {
		case *conversation.EventStateChanged:
			err = handler.HandleStateChanged(ctx, e_)
		case *conversation.EventNotification:
			err = handler.HandleNotification(ctx, e_)
		default:
			log.Warn().Str("event_type", string(ev.Type())).Msg("Unhandled conversation event type")
		}
		if err != nil {
			log.Error().Err(err).Str("message_id", msg.UUID).Msg("Error processing conversation event")
			return err
		}
		return nil
	}
}

func (e *EventRouter) DumpRawEvents(msg *message.Message) error {
	defer msg.Ack()

	var s map[string]interface{}
	err := json.Unmarshal(msg.Payload, &s)
	if err != nil {
		return err
	}
	if !e.verbose {
		if state, ok := s["state"].(map[string]interface{}); ok {
			if msgs, ok := state["messages"].([]interface{}); ok {
				state["messages"] = len(msgs)
			}
		}
	}
	s_, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.dumpOut, string(s_))
	return err
}

func (e *EventRouter) Running() chan struct{} {
	return e.router.Running()
}

func (e *EventRouter) IsRunning() bool {
	return e.router.IsRunning()
}

func (e *EventRouter) Run(ctx context.Context) error {
	return e.router.Run(ctx)
}
