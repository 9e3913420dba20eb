package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/madokanomi/publimatch-cli/internal/types"
)

// EventKind tags an inbound realtime event.
type EventKind string

const (
	EventConnected       EventKind = "connected"
	EventNewMessage      EventKind = "newMessage"
	EventNewNotification EventKind = "new_notification"
)

// Event is the tagged union delivered to subscribers. Exactly the field
// matching Kind is set.
type Event struct {
	Kind         EventKind
	Message      *types.Message
	Notification *types.NotificationItem
}

type envelope struct {
	Event EventKind       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinPayload struct {
	UserID string `json:"user_id"`
}

func encodeJoin(userID string) ([]byte, error) {
	data, err := json.Marshal(joinPayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: "setup", Data: data})
}

func decodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, fmt.Errorf("decode event envelope: %w", err)
	}
	switch env.Event {
	case EventConnected:
		return Event{Kind: EventConnected}, nil
	case EventNewMessage:
		var msg types.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return Event{}, fmt.Errorf("decode newMessage payload: %w", err)
		}
		return Event{Kind: EventNewMessage, Message: &msg}, nil
	case EventNewNotification:
		var item types.NotificationItem
		if err := json.Unmarshal(env.Data, &item); err != nil {
			return Event{}, fmt.Errorf("decode new_notification payload: %w", err)
		}
		return Event{Kind: EventNewNotification, Notification: &item}, nil
	default:
		return Event{}, fmt.Errorf("unknown event %q", env.Event)
	}
}
