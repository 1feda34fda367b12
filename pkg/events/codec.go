package events

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

type envelope struct {
	Type conversation.EventType `json:"type"`
}

// EncodeEvent writes the event as a flat JSON object with a "type" field.
func EncodeEvent(event conversation.Event) ([]byte, error) {
	switch e := event.(type) {
	case *conversation.EventStateChanged:
		return json.Marshal(struct {
			envelope
			*conversation.EventStateChanged
		}{envelope{e.Type()}, e})
	case *conversation.EventNotification:
		return json.Marshal(struct {
			envelope
			*conversation.EventNotification
		}{envelope{e.Type()}, e})
	default:
		return nil, errors.Errorf("unknown event type %T", event)
	}
}

func NewEventFromJSON(b []byte) (conversation.Event, error) {
	var hdr envelope
	if err := json.Unmarshal(b, &hdr); err != nil {
		return nil, errors.Wrap(err, "could not decode event header")
	}

	switch hdr.Type {
	case conversation.EventTypeStateChanged:
		e := &conversation.EventStateChanged{}
		if err := json.Unmarshal(b, e); err != nil {
			return nil, errors.Wrap(err, "could not decode state event")
		}
		return e, nil
	case conversation.EventTypeNotification:
		e := &conversation.EventNotification{}
		if err := json.Unmarshal(b, e); err != nil {
			return nil, errors.Wrap(err, "could not decode notification")
		}
		return e, nil
	default:
		return nil, errors.Errorf("unknown event type %q", hdr.Type)
	}
}
