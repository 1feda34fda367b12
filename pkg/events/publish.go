package events

import (
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

const sequenceNumberMetadataKey = "sequence_number"

// PublisherManager is used to distribute events to a set of Publishers.
// As such, you "subscribe" a publisher to the given topic.
// When you publish an event, it will get distributed to all publishers
// on the topic they were subscribed with.
//
// The manager also keeps a sequence number for each outgoing message,
// in the order they are handled by PublishEvent.
type PublisherManager struct {
	Publishers     map[string][]message.Publisher
	sequenceNumber uint64
	mutex          sync.Mutex
}

var _ conversation.EventSink = (*PublisherManager)(nil)

func NewPublisherManager() *PublisherManager {
	return &PublisherManager{
		Publishers: make(map[string][]message.Publisher),
	}
}

func (s *PublisherManager) SubscribePublisher(topic string, sub message.Publisher) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Publishers[topic] = append(s.Publishers[topic], sub)
}

// PublishEvent serializes the event and hands it to every subscribed
// publisher. Failing publishers are logged and skipped.
func (s *PublisherManager) PublishEvent(event conversation.Event) error {
	b, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	// lock for the sequence number
	s.mutex.Lock()
	defer s.mutex.Unlock()

	seq := s.sequenceNumber
	s.sequenceNumber++

	for topic, subs := range s.Publishers {
		for _, sub := range subs {
			msg := message.NewMessage(watermill.NewUUID(), b)
			msg.Metadata.Set(sequenceNumberMetadataKey, fmt.Sprintf("%d", seq))
			if err := sub.Publish(topic, msg); err != nil {
				log.Warn().Err(err).Str("topic", topic).Msg("failed to publish")
			}
		}
	}

	return nil
}

func (s *PublisherManager) PublishBlind(event conversation.Event) {
	if err := s.PublishEvent(event); err != nil {
		log.Warn().Err(err).Msg("failed to publish")
	}
}
