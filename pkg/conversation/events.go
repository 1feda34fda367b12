package conversation

type EventType string

const (
	EventTypeStateChanged EventType = "state-changed"
	EventTypeNotification EventType = "notification"
)

// Event is emitted by the Controller after every state transition and for
// every transient failure.
type Event interface {
	Type() EventType
}

// State is a read-only copy of the controller state.
type State struct {
	ConversationID string    `json:"conversation_id,omitempty"`
	Messages       []Message `json:"messages"`
	Pending        bool      `json:"pending"`
}

// Persisted is true once the backend assigned an identifier.
func (s State) Persisted() bool {
	return s.ConversationID != ""
}

type EventStateChanged struct {
	State State `json:"state"`
}

func (e *EventStateChanged) Type() EventType {
	return EventTypeStateChanged
}

type NotificationKind string

const (
	NotificationLoadFailed   NotificationKind = "load-failed"
	NotificationSendFailed   NotificationKind = "send-failed"
	NotificationDeleteFailed NotificationKind = "delete-failed"
)

// EventNotification is advisory. It never means the controller is unusable.
type EventNotification struct {
	Kind      NotificationKind `json:"kind"`
	ErrorKind ErrorKind        `json:"error_kind"`
	Message   string           `json:"message"`
	Error     string           `json:"error,omitempty"`
}

func (e *EventNotification) Type() EventType {
	return EventTypeNotification
}

// EventSink is the destination of controller events.
type EventSink interface {
	PublishEvent(event Event) error
}

// NullSink discards all events.
type NullSink struct{}

func (NullSink) PublishEvent(Event) error {
	return nil
}

var _ EventSink = NullSink{}
