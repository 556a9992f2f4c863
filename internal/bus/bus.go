package bus

import (
	"context"
	"encoding/json"
)

// Event kinds broadcast to every connected client.
const (
	EventPollStarted         = "poll_started"
	EventVoteUpdated         = "vote_updated"
	EventPollEnded           = "poll_ended"
	EventNewMessage          = "new_message"
	EventParticipantsUpdated = "participants_updated"
	EventUserKicked          = "user_kicked"
)

// Event is one coordinator state change, carried to every subscriber.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent builds an event with the payload marshalled in place.
func NewEvent(eventType string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: data}, nil
}

// Bus carries coordinator events to every subscriber. Publish takes the
// poll id so a future multi-session variant can shard topics without a
// protocol break; today everything flows through one well-known topic and
// subscribers receive every event unconditionally.
type Bus interface {
	Publish(ctx context.Context, pollID string, ev Event) error
	// Subscribe returns a channel that receives every published event
	// until ctx is cancelled. Delivery is at-most-once and FIFO per
	// subscriber; there is no replay.
	Subscribe(ctx context.Context) (<-chan Event, error)
}
