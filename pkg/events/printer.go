package events

import (
	"fmt"
	"io"

	"github.com/ThreeDotsLabs/watermill/message"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

// PrinterFunc returns a router handler writing a one line summary of every
// event to w. Notifications are followed by their details as YAML.
func PrinterFunc(name string, w io.Writer) func(msg *message.Message) error {
	return func(msg *message.Message) error {
		defer msg.Ack()

		e, err := NewEventFromJSON(msg.Payload)
		if err != nil {
			return err
		}

		prefix := ""
		if name != "" {
			prefix = "[" + name + "] "
		}

		switch p_ := e.(type) {
		case *conversation.EventStateChanged:
			id := p_.State.ConversationID
			if id == "" {
				id = "(unsaved)"
			}
			_, err = fmt.Fprintf(w, "%sstate chat=%s messages=%d pending=%t\n",
				prefix, id, len(p_.State.Messages), p_.State.Pending)
			return err

		case *conversation.EventNotification:
			if _, err := fmt.Fprintf(w, "%s%s: %s\n", prefix, p_.Kind, p_.Message); err != nil {
				return err
			}
			v_, err := yaml.Marshal(map[string]string{
				"error_kind": string(p_.ErrorKind),
				"error":      p_.Error,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "%s", v_)
			return err
		}

		return nil
	}
}
